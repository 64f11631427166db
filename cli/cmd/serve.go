package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/simdeck/simdeck/cli/internal/config"
	"github.com/simdeck/simdeck/server"
	"github.com/simdeck/simdeck/sim"
	"github.com/simdeck/simdeck/store"
	"github.com/simdeck/simdeck/telemetry"
)

var serveFlags struct {
	config   string
	script   string
	scenario string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simdeck server",
	Long: `Starts the HTTP API and event stream.

Sessions and their histories persist in the configured store. With
--script, incoming requests are decided by the script instead of
waiting for an operator. With --scenario, the named scenario from the
scenario directory is replayed into a fresh session on startup.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.config, "config", "c", "", "path to simdeck.yaml")
	serveCmd.Flags().StringVar(&serveFlags.script, "script", "", "auto-responder script file")
	serveCmd.Flags().StringVar(&serveFlags.scenario, "scenario", "", "scenario to replay on startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(serveFlags.config)
	if err != nil {
		return err
	}

	l, shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
	})
	if err != nil {
		return fmt.Errorf("error setting up telemetry: %w", err)
	}
	slog.SetDefault(l)

	repo, err := openStore(cfg, l)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := sim.NewService(l, repo)

	if serveFlags.script != "" {
		responder, err := sim.NewResponderFromFile(l, serveFlags.script)
		if err != nil {
			return err
		}
		svc.SetResponder(responder)
		l.Info("auto-responder installed", "script", serveFlags.script)
	}

	if serveFlags.scenario != "" {
		if err := startScenario(ctx, cfg, svc, l); err != nil {
			return err
		}
	}

	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery())
	server.New(l, svc).Routes(g)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: g,
	}

	serveErr := make(chan error, 1)
	go func() {
		l.Info("server listening", "addr", cfg.Server.Addr, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	l.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("error draining server", "error", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		l.Error("error flushing telemetry", "error", err)
	}
	return nil
}

// openStore builds the repository the config selects.
func openStore(cfg *config.Config, l *slog.Logger) (sim.Repository, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.OpenPostgres(store.PostgresConfig{
			DSN: cfg.Store.DSN,
		})
	default:
		return store.OpenBadger(store.BadgerConfig{
			Path:       cfg.Store.Path,
			SyncWrites: cfg.Store.SyncWrites,
			Logger:     l,
		})
	}
}

// startScenario replays the named scenario into a new session.
func startScenario(ctx context.Context, cfg *config.Config, svc *sim.Service, l *slog.Logger) error {
	scenarios, err := sim.LoadScenarios(cfg.Scenarios.Dir)
	if err != nil {
		return err
	}
	sc, ok := scenarios[serveFlags.scenario]
	if !ok {
		return fmt.Errorf("scenario %q not found in %s", serveFlags.scenario, cfg.Scenarios.Dir)
	}

	if sc.AutoScript != "" {
		svc.SetResponder(sim.NewResponder(l, sc.AutoScript))
		l.Info("scenario auto-responder installed", "scenario", sc.Name)
	}

	sess, err := sc.Run(ctx, svc)
	if err != nil {
		return err
	}
	l.Info("scenario started", "scenario", sc.Name, "session_id", sess.ID)
	return nil
}
