package types

import (
	"time"

	"github.com/google/uuid"
)

// identity of the peer holding (or requesting) a lease
type HolderID = uuid.UUID

// unique identifier of a lease
// 128-bit, opaque, never reused within a process
type LeaseID = uuid.UUID

// per-resource counter incremented on every successful lease grant
// used to tell successive leases on the same resource apart
type Epoch uint64

// jurisdiction state of a guarded resource
type State uint8

const (
	// the resource is under local, unleased control
	Domestic State = iota
	// the resource is under an active (or expired-but-unreclaimed) remote lease
	Foreign
)

func (s State) String() string {
	switch s {
	case Domestic:
		return "domestic"
	case Foreign:
		return "foreign"
	default:
		return "unknown"
	}
}

// a point-in-time snapshot of a guard's jurisdiction
// Holder, LeaseID and ExpiresAt are meaningful only when State is Foreign
// ExpiresAt is monotonic time from guard creation, not wall-clock time
type Jurisdiction struct {
	State     State
	Holder    HolderID
	LeaseID   LeaseID
	Epoch     Epoch
	ExpiresAt time.Duration
}

// whether the lease recorded in this snapshot has run out
// elapsed is monotonic time from guard creation
func (j Jurisdiction) Expired(elapsed time.Duration) bool {
	return j.State == Foreign && elapsed >= j.ExpiresAt
}
