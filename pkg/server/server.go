package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ferrall/leasehold/pkg/audit"
	"github.com/ferrall/leasehold/pkg/authority"
	"github.com/ferrall/leasehold/pkg/registry"
	"github.com/ferrall/leasehold/pkg/waitfor"
)

// a JSON document guarded by the daemon
type Document = map[string]any

// Server exposes the jurisdiction primitives over HTTP for the operational
// dashboard and the coordinator: jurisdiction snapshots, lease grant and
// reclaim, guarded value access, wait-edge lifecycle, cycle queries and the
// audit trail. Prometheus metrics are served on /metrics.
type Server struct {
	httpServer *http.Server
	reg        *registry.Registry
	auth       *authority.Authority
	graph      *waitfor.Graph
	auditLog   *audit.Log
	log        hclog.Logger
}

func New(addr string, reg *registry.Registry, auth *authority.Authority, graph *waitfor.Graph, auditLog *audit.Log, log hclog.Logger) *Server {
	s := &Server{
		reg:      reg,
		auth:     auth,
		graph:    graph,
		auditLog: auditLog,
		log:      log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/deadlock", s.handleDeadlock)
	mux.HandleFunc("GET /v1/resources/{name}", s.handleSnapshot)
	mux.HandleFunc("GET /v1/resources/{name}/value", s.handleViewValue)
	mux.HandleFunc("PUT /v1/resources/{name}/value", s.handleUpdateValue)
	mux.HandleFunc("POST /v1/resources/{name}/lease", s.handleGrant)
	mux.HandleFunc("POST /v1/resources/{name}/reclaim", s.handleReclaim)
	mux.HandleFunc("POST /v1/waits", s.handleAddWait)
	mux.HandleFunc("DELETE /v1/waits", s.handleRemoveWait)
	mux.HandleFunc("GET /v1/audit", s.handleAudit)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	return s
}

// Handler exposes the routed mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.log.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start http server: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
