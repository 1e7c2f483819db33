package authority

import (
	"time"

	"github.com/ferrall/leasehold/pkg/audit"
	"github.com/ferrall/leasehold/pkg/metrics"
	"github.com/ferrall/leasehold/pkg/types"
)

// the one guard operation the authority needs
// satisfied by *guard.Guard[T] for any T
type Leasable interface {
	GrantLease(holder types.HolderID, id types.LeaseID, d time.Duration) (types.Epoch, error)
}

// duration policy applied to every hire
// zero values disable the corresponding bound
type Policy struct {
	MinTTL time.Duration
	MaxTTL time.Duration
}

func (p Policy) validate(d time.Duration) error {
	if d <= 0 {
		return types.ErrInvalidLeaseDuration
	}
	if p.MinTTL > 0 && d < p.MinTTL {
		return types.ErrInvalidLeaseDuration
	}
	if p.MaxTTL > 0 && d > p.MaxTTL {
		return types.ErrInvalidLeaseDuration
	}
	return nil
}

// Authority is the sole path by which Lease values are minted.
// It owns the lease id source (nothing process-global, so tests can run with
// deterministic isolated sequences), applies the duration policy, and records
// every grant in the audit log when one is attached.
type Authority struct {
	ids    IDSource
	policy Policy
	log    *audit.Log
}

type Option func(*Authority)

// WithAudit attaches an audit log; grant outcomes are appended to it.
func WithAudit(log *audit.Log) Option {
	return func(a *Authority) { a.log = log }
}

// WithPolicy sets the duration policy.
func WithPolicy(p Policy) Option {
	return func(a *Authority) { a.policy = p }
}

func New(ids IDSource, opts ...Option) *Authority {
	a := &Authority{ids: ids}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// TryHire leases the resource to holder for d.
// On success the freshly minted lease id and new epoch are wrapped into a
// Lease value. Guard refusals (ErrAlreadyLeased) pass through unchanged so
// the caller can decide to wait and retry.
func (a *Authority) TryHire(resource string, g Leasable, holder types.HolderID, d time.Duration) (types.Lease, error) {
	if err := a.policy.validate(d); err != nil {
		metrics.LeaseGrantTotal.WithLabelValues(resource, "failure").Inc()
		return types.Lease{}, err
	}

	id := a.ids.NextLeaseID()
	epoch, err := g.GrantLease(holder, id, d)
	if err != nil {
		metrics.LeaseGrantTotal.WithLabelValues(resource, "failure").Inc()
		return types.Lease{}, err
	}

	metrics.LeaseGrantTotal.WithLabelValues(resource, "success").Inc()
	a.record(audit.Event{
		Kind:     audit.KindGrant,
		Resource: resource,
		Holder:   holder,
		LeaseID:  id,
		Epoch:    epoch,
		At:       time.Now(),
	})

	return types.Lease{
		LeaseID:  id,
		Holder:   holder,
		Epoch:    epoch,
		Duration: d,
	}, nil
}

func (a *Authority) record(ev audit.Event) {
	if a.log == nil {
		return
	}
	// an unwritable audit log must not block lease traffic
	_ = a.log.Append(ev)
}

// Record exposes audit appends to collaborators (the status server logs
// reclaims and denials through the same trail).
func (a *Authority) Record(ev audit.Event) {
	a.record(ev)
}
