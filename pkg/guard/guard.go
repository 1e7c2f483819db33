package guard

import (
	"sync"
	"time"

	"github.com/ferrall/leasehold/pkg/montime"
	"github.com/ferrall/leasehold/pkg/types"
)

// Guard gates every read and write of one protected value on its current
// jurisdiction.
// critical :
// - access is refused while the resource is leased to a foreign holder
// - an expired lease still refuses access until Reclaim is called; expiry
//   never grants access implicitly (fail closed)
// - epochs are strictly monotonic per guard, starting at 1 on the first grant
// - expiry is evaluated lazily on access and reclaim, never by background timers
//
// The value is reachable only inside View/Update callbacks, so no reference
// can outlive the jurisdiction check that produced it.
type Guard[T any] struct {
	mu    sync.RWMutex
	value T
	meta  types.Jurisdiction
	clock *montime.Clock
}

// New creates a guard under domestic jurisdiction, epoch 0.
func New[T any](value T) *Guard[T] {
	return NewWithClock(value, montime.NewClock())
}

// NewWithClock is New with a caller-supplied clock, shared across guards or
// pre-aged by tests.
func NewWithClock[T any](value T, clock *montime.Clock) *Guard[T] {
	return &Guard[T]{
		value: value,
		meta:  types.Jurisdiction{State: types.Domestic},
		clock: clock,
	}
}

// reports why access is refused right now, or nil if jurisdiction is domestic
// callers must hold g.mu in at least read mode
func (g *Guard[T]) ensureDomestic() error {
	if g.meta.State == types.Domestic {
		return nil
	}
	if g.clock.Elapsed() < g.meta.ExpiresAt {
		return &types.SovereigntyViolationError{
			Holder:    g.meta.Holder,
			ExpiresAt: g.meta.ExpiresAt,
		}
	}
	// expired but not reclaimed: still refused, reclaim is explicit
	return &types.LeaseExpiredError{Holder: g.meta.Holder}
}

// View calls fn with the current value while holding a shared lock.
// fn must treat the value as read-only; it must not retain it or anything
// reachable from it past the call.
func (g *Guard[T]) View(fn func(value T)) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.ensureDomestic(); err != nil {
		return err
	}

	fn(g.value)
	return nil
}

// Update calls fn with a pointer to the value while holding the exclusive
// lock. An error from fn is returned unchanged; the guard does not roll the
// value back. Callers enforce their declared invariants inside fn, after
// mutating and before returning.
func (g *Guard[T]) Update(fn func(value *T) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.ensureDomestic(); err != nil {
		return err
	}

	return fn(&g.value)
}

// GrantLease moves the guard from Domestic to Foreign for the given holder.
// The lease id is supplied by the caller (the lease authority owns id
// generation). Returns the new epoch, previous epoch + 1.
// Fails with ErrAlreadyLeased when already Foreign: no stacking, no
// preemption, even if the standing lease has expired.
func (g *Guard[T]) GrantLease(holder types.HolderID, id types.LeaseID, d time.Duration) (types.Epoch, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.meta.State == types.Foreign {
		return 0, types.ErrAlreadyLeased
	}

	g.meta = types.Jurisdiction{
		State:     types.Foreign,
		Holder:    holder,
		LeaseID:   id,
		Epoch:     g.meta.Epoch + 1,
		ExpiresAt: g.clock.ExpiresAt(d),
	}

	return g.meta.Epoch, nil
}

// Reclaim moves an expired Foreign guard back to Domestic.
// Fails with ErrNotYetExpired while the lease is live. Idempotent no-op on
// an already-domestic guard.
func (g *Guard[T]) Reclaim() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.meta.State == types.Domestic {
		return nil
	}

	if g.clock.Elapsed() < g.meta.ExpiresAt {
		return types.ErrNotYetExpired
	}

	// the epoch survives reclamation, it counts grants over the guard's life
	g.meta = types.Jurisdiction{
		State: types.Domestic,
		Epoch: g.meta.Epoch,
	}

	return nil
}

// Snapshot returns a copy of the current jurisdiction record.
func (g *Guard[T]) Snapshot() types.Jurisdiction {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.meta
}

// Elapsed exposes the guard's monotonic clock so callers can interpret
// snapshot expiries.
func (g *Guard[T]) Elapsed() time.Duration {
	return g.clock.Elapsed()
}
