package simulation

import (
	"fmt"

	"github.com/google/uuid"
)

// IDSource supplies identifiers for plates and features. It is injected
// rather than read from process-wide state so that tests and replays can
// use a deterministic sequence.
type IDSource interface {
	NewID() string
}

// UUIDSource generates random UUIDs
type UUIDSource struct{}

func (UUIDSource) NewID() string {
	return uuid.NewString()
}

// SequenceSource generates deterministic ids with a prefix and a
// monotonic counter. Not safe for concurrent use; the world serializes
// all mutation.
type SequenceSource struct {
	Prefix string
	next   int
}

func (s *SequenceSource) NewID() string {
	s.next++
	return fmt.Sprintf("%s-%d", s.Prefix, s.next)
}
