package id

import "github.com/google/uuid"

type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator { return UUIDGenerator{} }

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// Valid reports whether s parses as a UUID. Path ids that do not are answered
// with not found by the HTTP adapter.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
