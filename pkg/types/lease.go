package types

import "time"

// a lease is a time-bound capability granting one holder exclusive
// foreign control of a resource
// it is a token, not an owner: holding a Lease value does not keep the
// resource leased past ExpiresAt
// leases are minted only by the lease authority and never forged by callers
type Lease struct {
	LeaseID  LeaseID
	Holder   HolderID
	Epoch    Epoch
	Duration time.Duration
}
