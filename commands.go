package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tradeboard/backend/src/config"
	"github.com/tradeboard/backend/src/database"
	"github.com/tradeboard/backend/src/handlers"
	"github.com/tradeboard/backend/src/logger"
	"github.com/tradeboard/backend/src/services"
	"github.com/tradeboard/backend/src/storage"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tradeboard",
		Short: "Backend API of the MT4 trading dashboard",
		Long: `tradeboard serves trades, account snapshot, risk configuration and trade
comments to the dashboard, and the pending-close queue to the trading agent.

The storage backend (sqlite or JSON files) is chosen with STORAGE_BACKEND.
Running without a subcommand starts the HTTP server.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadConfig()
			logger.InitLogger(config.Cfg.LogLevel)
		},
		RunE: runServe,
	}

	root.AddCommand(newServeCmd(), newMigrateCmd(), newSyncCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the SQLite schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.OpenAndMigrate(config.Cfg.DatabasePath, config.Cfg.DBBusyTimeout)
			if err != nil {
				return err
			}
			return db.Close()
		},
	}
}

func newSyncCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy the dashboard state from one backend into the other",
		Long: `Sync copies trades, the account snapshot, the config, comments and pending
close requests between the JSON documents and the SQLite database.

Example:
  tradeboard sync --from file --to sqlite`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == to {
				return fmt.Errorf("--from and --to must name different backends")
			}
			src, err := openBackend(from)
			if err != nil {
				return err
			}
			defer src.Close()
			dst, err := openBackend(to)
			if err != nil {
				return err
			}
			defer dst.Close()

			report, err := storage.Sync(cmd.Context(), src, dst)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"trades: %d created, %d updated; comments: %d copied, %d skipped; pending closes: %d; account copied: %t\n",
				report.TradesCreated, report.TradesUpdated, report.CommentsCopied, report.CommentsSkipped,
				report.PendingCopied, report.AccountCopied)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", config.BackendFile, "source backend (file or sqlite)")
	cmd.Flags().StringVar(&to, "to", config.BackendSQLite, "destination backend (file or sqlite)")
	return cmd
}

// openBackend builds the named backend from the loaded configuration.
func openBackend(kind string) (storage.Backend, error) {
	cfg := config.Cfg
	switch kind {
	case config.BackendSQLite:
		db, err := database.OpenAndMigrate(cfg.DatabasePath, cfg.DBBusyTimeout)
		if err != nil {
			return nil, err
		}
		return storage.NewSQLBackend(db), nil
	case config.BackendFile:
		return storage.NewFileBackend(storage.FilePaths{
			Trades:        cfg.TradesFile,
			Config:        cfg.ConfigFile,
			Comments:      cfg.CommentsFile,
			PendingCloses: cfg.PendingClosesFile,
		}), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q (want %s or %s)", kind, config.BackendSQLite, config.BackendFile)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Cfg
	logger.L.Info("Trading dashboard backend starting...", "backend", cfg.StorageBackend)

	backend, err := openBackend(cfg.StorageBackend)
	if err != nil {
		logger.L.Error("Failed to open storage backend", "backend", cfg.StorageBackend, "error", err)
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.L.Error("Error closing storage backend", "error", err)
		}
	}()

	router := handlers.NewRouter(handlers.Services{
		Trades:     services.NewTradeService(backend, cfg.PrinterTag, cfg.StartingBalance),
		CloseQueue: services.NewCloseQueueService(backend),
		Comments:   services.NewCommentService(backend, cfg.PrinterTag),
		Config:     services.NewConfigService(backend),
		Accounts:   services.NewAccountService(backend),
	}, handlers.RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Backend:        backend.Kind(),
	})

	serverAddr := ":" + cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.L.Info("Server starting", "address", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.L.Error("Failed to start server", "error", err)
		}
		return err
	case <-ctx.Done():
	}

	logger.L.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
