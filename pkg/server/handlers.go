package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ferrall/leasehold/pkg/audit"
	"github.com/ferrall/leasehold/pkg/invariant"
	"github.com/ferrall/leasehold/pkg/metrics"
	"github.com/ferrall/leasehold/pkg/registry"
	"github.com/ferrall/leasehold/pkg/types"
	"github.com/ferrall/leasehold/pkg/waitfor"
)

// value access on top of the metadata-only registry surface
// satisfied by *guard.Guard[Document]
type valueAccessor interface {
	View(fn func(value Document)) error
	Update(fn func(value *Document) error) error
}

// daemon-level document policy, enforced after every update
var documentInvariants = []invariant.Invariant[Document]{
	invariant.Declare("document keys must not start with underscore", func(d Document) bool {
		for k := range d {
			if len(k) > 0 && k[0] == '_' {
				return false
			}
		}
		return true
	}),
}

type resourceStatus struct {
	Name                string  `json:"name"`
	State               string  `json:"state"`
	Epoch               uint64  `json:"epoch"`
	HolderID            string  `json:"holder_id,omitempty"`
	LeaseID             string  `json:"lease_id,omitempty"`
	TTLRemainingSeconds float64 `json:"ttl_remaining_seconds,omitempty"`
	Expired             bool    `json:"expired,omitempty"`
}

func statusOf(name string, res registry.Resource) resourceStatus {
	snap := res.Snapshot()

	st := resourceStatus{
		Name:  name,
		State: snap.State.String(),
		Epoch: uint64(snap.Epoch),
	}
	if snap.State == types.Foreign {
		st.HolderID = snap.Holder.String()
		st.LeaseID = snap.LeaseID.String()

		remaining := snap.ExpiresAt - res.Elapsed()
		if remaining <= 0 {
			st.Expired = true
		} else {
			st.TTLRemainingSeconds = remaining.Seconds()
		}
	}
	return st
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resources := make([]resourceStatus, 0, s.reg.Len())
	for _, name := range s.reg.Names() {
		res, err := s.reg.Get(name)
		if err != nil {
			continue
		}
		resources = append(resources, statusOf(name, res))
	}

	detected, chains := s.scanDeadlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"resources": resources,
		"deadlock": map[string]any{
			"detected": detected,
			"chains":   chains,
		},
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	res, err := s.reg.Get(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusOf(r.PathValue("name"), res))
}

type grantRequest struct {
	HolderID   string `json:"holder_id"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

type grantResponse struct {
	LeaseID    string `json:"lease_id"`
	HolderID   string `json:"holder_id"`
	Epoch      uint64 `json:"epoch"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	holder, err := uuid.Parse(req.HolderID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "holder_id must be a uuid"})
		return
	}

	res, err := s.reg.Get(name)
	if err != nil {
		writeError(w, err)
		return
	}

	lease, err := s.auth.TryHire(name, res, holder, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.ForeignResources.Set(float64(s.reg.Foreign()))
	s.log.Info("lease granted",
		"resource", name,
		"holder", lease.Holder,
		"lease_id", lease.LeaseID,
		"epoch", lease.Epoch,
		"ttl", lease.Duration)

	writeJSON(w, http.StatusOK, grantResponse{
		LeaseID:    lease.LeaseID.String(),
		HolderID:   lease.Holder.String(),
		Epoch:      uint64(lease.Epoch),
		TTLSeconds: req.TTLSeconds,
	})
}

func (s *Server) handleReclaim(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	res, err := s.reg.Get(name)
	if err != nil {
		writeError(w, err)
		return
	}

	// snapshot first so the audit event can name who held the lease
	before := res.Snapshot()

	if err := res.Reclaim(); err != nil {
		metrics.ReclaimTotal.WithLabelValues(name, "failure").Inc()
		s.auth.Record(audit.Event{
			Kind:     audit.KindReclaimDenied,
			Resource: name,
			Holder:   before.Holder,
			LeaseID:  before.LeaseID,
			Epoch:    before.Epoch,
			At:       time.Now(),
		})
		writeError(w, err)
		return
	}

	metrics.ReclaimTotal.WithLabelValues(name, "success").Inc()
	metrics.ForeignResources.Set(float64(s.reg.Foreign()))
	if before.State == types.Foreign {
		s.auth.Record(audit.Event{
			Kind:     audit.KindReclaim,
			Resource: name,
			Holder:   before.Holder,
			LeaseID:  before.LeaseID,
			Epoch:    before.Epoch,
			At:       time.Now(),
		})
	}
	s.log.Info("resource reclaimed", "resource", name)

	writeJSON(w, http.StatusOK, map[string]bool{"reclaimed": true})
}

// records a refused value access in metrics and the audit trail
func (s *Server) noteDenied(name string, res registry.Resource, err error) {
	snap := res.Snapshot()

	var sv *types.SovereigntyViolationError
	var exp *types.LeaseExpiredError
	switch {
	case errors.As(err, &sv):
		metrics.AccessDeniedTotal.WithLabelValues(name, "foreign").Inc()
		s.auth.Record(audit.Event{
			Kind:     audit.KindDeniedForeign,
			Resource: name,
			Holder:   snap.Holder,
			LeaseID:  snap.LeaseID,
			Epoch:    snap.Epoch,
			At:       time.Now(),
		})
	case errors.As(err, &exp):
		metrics.AccessDeniedTotal.WithLabelValues(name, "expired").Inc()
		s.auth.Record(audit.Event{
			Kind:     audit.KindDeniedExpired,
			Resource: name,
			Holder:   snap.Holder,
			LeaseID:  snap.LeaseID,
			Epoch:    snap.Epoch,
			At:       time.Now(),
		})
	}
}

func (s *Server) handleViewValue(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	res, err := s.reg.Get(name)
	if err != nil {
		writeError(w, err)
		return
	}
	va, ok := res.(valueAccessor)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "resource has no document value"})
		return
	}

	// shallow-copy inside the callback so nothing guarded escapes the lock
	var doc Document
	err = va.View(func(value Document) {
		doc = make(Document, len(value))
		for k, v := range value {
			doc[k] = v
		}
	})
	if err != nil {
		s.noteDenied(name, res, err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleUpdateValue(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var body Document
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	res, err := s.reg.Get(name)
	if err != nil {
		writeError(w, err)
		return
	}
	va, ok := res.(valueAccessor)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "resource has no document value"})
		return
	}

	err = va.Update(func(value *Document) error {
		*value = body
		return invariant.Enforce(*value, documentInvariants...)
	})
	if err != nil {
		s.noteDenied(name, res, err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

type waitRequest struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

func (s *Server) handleAddWait(w http.ResponseWriter, r *http.Request) {
	var req waitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	s.graph.AddWait(waitfor.NodeID(req.From), waitfor.NodeID(req.To))
	metrics.WaitEdges.Set(float64(s.graph.Len()))

	writeJSON(w, http.StatusOK, map[string]int{"edges": s.graph.Len()})
}

func (s *Server) handleRemoveWait(w http.ResponseWriter, r *http.Request) {
	var req waitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	s.graph.RemoveWait(waitfor.NodeID(req.From), waitfor.NodeID(req.To))
	metrics.WaitEdges.Set(float64(s.graph.Len()))

	writeJSON(w, http.StatusOK, map[string]int{"edges": s.graph.Len()})
}

func (s *Server) handleDeadlock(w http.ResponseWriter, r *http.Request) {
	detected, chains := s.scanDeadlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"detected": detected,
		"chains":   chains,
		"edges":    s.graph.Len(),
	})
}

func (s *Server) scanDeadlock() (bool, []string) {
	detected := s.graph.DetectCycle()
	chains := s.graph.Chains()

	metrics.DeadlockScanTotal.Inc()
	if detected {
		metrics.DeadlockDetected.Set(1)
		s.log.Warn("deadlock detected", "chains", chains)
	} else {
		metrics.DeadlockDetected.Set(0)
	}

	if chains == nil {
		chains = []string{}
	}
	return detected, chains
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	n := 50
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "n must be a positive integer"})
			return
		}
		n = parsed
	}

	if s.auditLog == nil {
		writeJSON(w, http.StatusOK, []audit.Event{})
		return
	}

	events, err := s.auditLog.Recent(n)
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}
