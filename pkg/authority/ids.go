package authority

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"

	"github.com/ferrall/leasehold/pkg/types"
)

// IDSource mints lease identifiers.
// Ids must be unique per authority for the lifetime of the process; a
// multi-node deployment needs a collision-free source fed by an external
// coordinator, which is outside this package.
type IDSource interface {
	NextLeaseID() types.LeaseID
}

// RandomIDs mints random 128-bit ids. The production source.
type RandomIDs struct{}

func (RandomIDs) NextLeaseID() types.LeaseID {
	return uuid.New()
}

// SequentialIDs mints a deterministic id sequence for tests: the counter is
// packed into the low bytes of an otherwise-zero uuid.
type SequentialIDs struct {
	mu   sync.Mutex
	next uint64
}

func (s *SequentialIDs) NextLeaseID() types.LeaseID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	var id uuid.UUID
	binary.BigEndian.PutUint64(id[8:], s.next)
	return id
}
