package todo

import "github.com/google/uuid"

// NewID returns a UUIDv7 string: a millisecond timestamp followed by random
// bits, so ids sort by creation time and stay unique across reloads.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
