package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/ferrall/leasehold/pkg/types"
)

// the guard surface the daemon needs, without the value's type parameter
// satisfied by *guard.Guard[T] for any T
type Resource interface {
	Snapshot() types.Jurisdiction
	Elapsed() time.Duration
	GrantLease(holder types.HolderID, id types.LeaseID, d time.Duration) (types.Epoch, error)
	Reclaim() error
}

// Registry binds guards to resource names so the status surface and the
// coordinator can address them.
type Registry struct {
	mu        sync.RWMutex
	resources map[string]Resource
}

func New() *Registry {
	return &Registry{
		resources: make(map[string]Resource),
	}
}

// Register binds name to r. Names are bound once for the process lifetime;
// rebinding fails with ErrDuplicateResource.
func (r *Registry) Register(name string, res Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.resources[name]; ok {
		return types.ErrDuplicateResource
	}
	r.resources[name] = res
	return nil
}

// Get looks a resource up by name.
func (r *Registry) Get(name string) (Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.resources[name]
	if !ok {
		return nil, types.ErrUnknownResource
	}
	return res, nil
}

// Names returns all bound names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.resources))
	for name := range r.resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Foreign counts resources currently under foreign jurisdiction.
func (r *Registry) Foreign() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, res := range r.resources {
		if res.Snapshot().State == types.Foreign {
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.resources)
}
