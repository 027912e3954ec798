package models

import "time"

// OpType is the category of a deferred sync operation.
type OpType string

const (
	OpUpsert OpType = "upsert"
	OpDelete OpType = "delete"
)

// QueuedOp is one durable entry in the offline operation queue. Seq is the
// store-assigned sequence number that fixes replay order.
type QueuedOp struct {
	Seq        int64     `json:"seq"`
	LocalID    string    `json:"local_id"`
	OwnerID    string    `json:"owner_id"`
	Kind       Kind      `json:"kind"`
	Op         OpType    `json:"op"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
