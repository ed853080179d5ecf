package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	app "playout-engine/internal"
	"playout-engine/internal/config"
	"playout-engine/internal/nonce"
	"playout-engine/internal/playout"
	"playout-engine/internal/provisioning"
	"playout-engine/internal/routes"
	"playout-engine/internal/storage"
	"playout-engine/internal/telemetry"
	"playout-engine/internal/utils"
)

const shutdownTimeout = 10 * time.Second

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the playout server",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := ServerMain(ctx, provider); err != nil {
			fail("Server stopped", err)
		}
	},
}

// ServerMain serves the player API until ctx is cancelled.
func ServerMain(ctx context.Context, storageProvider storage.Provider) error {
	if config.Cfg == nil {
		return errors.New("config not initialized")
	}
	if storageProvider == nil {
		return errors.New("storage provider is nil")
	}

	if err := nonce.Init(config.Cfg, storageProvider); err != nil {
		return err
	}
	defer nonce.Default.Close()

	hasher := utils.NewTokenHasher(config.Cfg.Secret)
	services := &routes.Services{
		Storage:      storageProvider,
		Engine:       playout.NewEngine(storageProvider),
		Ingestor:     telemetry.NewIngestor(storageProvider, config.Cfg.Telemetry),
		Provisioning: provisioning.NewService(storageProvider, hasher),
		TokenHasher:  hasher,
		MediaBaseURL: config.Cfg.MediaBaseURL,
	}

	handler, err := app.HTTPServer(services, config.Cfg.AllowedNetworks)
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:              config.Cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		build := utils.ReadBuildInfo()
		slog.Info("Listening", "addr", server.Addr, "version", build.Version, "revision", build.Revision)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
