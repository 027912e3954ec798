// Package utils holds small shared helpers with no domain knowledge.
package utils

import "github.com/google/uuid"

// UUIDGenerator produces local entity identifiers. Version 7 UUIDs are
// time-ordered, which keeps freshly created rows adjacent in the local
// index.
type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
