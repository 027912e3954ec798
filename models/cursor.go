package models

import "time"

// Cursor is the pull high-water mark for one (kind, owner) pair. It records
// the greatest remote UpdatedAt that has been successfully applied locally,
// and only ever moves forward.
type Cursor struct {
	Kind    Kind      `json:"kind"`
	OwnerID string    `json:"owner_id"`
	Since   time.Time `json:"since"`
}

// IsZero reports whether the cursor has never been advanced, meaning the
// next pull for its kind fetches the full remote history.
func (c Cursor) IsZero() bool {
	return c.Since.IsZero()
}
