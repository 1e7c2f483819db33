package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ferrall/leasehold/pkg/audit"
	"github.com/ferrall/leasehold/pkg/authority"
	"github.com/ferrall/leasehold/pkg/config"
	"github.com/ferrall/leasehold/pkg/guard"
	"github.com/ferrall/leasehold/pkg/metrics"
	"github.com/ferrall/leasehold/pkg/registry"
	"github.com/ferrall/leasehold/pkg/server"
	"github.com/ferrall/leasehold/pkg/waitfor"
)

var configPath string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config (built-in defaults if empty)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the leasehold daemon",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name:  "leasehold",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	auditLog, err := audit.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer auditLog.Close()

	reg := registry.New()
	for _, name := range cfg.Resources {
		if err := reg.Register(name, guard.New(server.Document{})); err != nil {
			return err
		}
		log.Debug("resource registered", "name", name)
	}

	auth := authority.New(authority.RandomIDs{},
		authority.WithAudit(auditLog),
		authority.WithPolicy(authority.Policy{
			MinTTL: cfg.Lease.MinTTL.Std(),
			MaxTTL: cfg.Lease.MaxTTL.Std(),
		}))

	graph := waitfor.New()
	srv := server.New(cfg.ListenAddr, reg, auth, graph, auditLog, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	// periodic deadlock scan; cycles never resolve themselves, so surfacing
	// them early is all the daemon can do
	g.Go(func() error {
		ticker := time.NewTicker(cfg.Detector.ScanInterval.Std())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				metrics.DeadlockScanTotal.Inc()
				metrics.WaitEdges.Set(float64(graph.Len()))
				if graph.DetectCycle() {
					metrics.DeadlockDetected.Set(1)
					log.Warn("deadlock detected", "chains", graph.Chains())
				} else {
					metrics.DeadlockDetected.Set(0)
				}
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	log.Info("leasehold is ready",
		"addr", cfg.ListenAddr,
		"resources", len(cfg.Resources),
		"scan_interval", cfg.Detector.ScanInterval.Std())

	return g.Wait()
}
