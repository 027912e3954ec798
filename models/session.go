package models

// SessionClaims are the identity claims extracted from the current bearer
// token. RemoteID is the remote principal identifier ("sub"); Handle is the
// stable natural key used to find-or-create the remote principal record.
type SessionClaims struct {
	RemoteID string `json:"remote_id"`
	Handle   string `json:"handle"`
}
