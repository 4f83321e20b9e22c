package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shorts/internal/api"
	"shorts/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// ErrAlreadyRunning is returned when another server holds the media root lock.
var ErrAlreadyRunning = errors.New("another shorts server is already managing this media root")

func newServeCommand(ctx *commandContext) *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the organizer web server and downloads watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			organizer, cfg, err := ctx.organizer()
			if err != nil {
				return err
			}
			if listenAddr != "" {
				cfg.Server.ListenAddr = listenAddr
			}

			if err := logging.Init(logging.Config{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			}); err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			defer func() { _ = logging.Sync() }()
			gin.SetMode(gin.ReleaseMode)

			if ctx.configFound {
				logging.Info("configuration loaded", zap.String("path", ctx.configPath))
			} else {
				logging.Info("no configuration file found, using defaults", zap.String("searched", ctx.configPath))
			}

			if err := os.MkdirAll(cfg.Media.Root, 0o755); err != nil {
				return fmt.Errorf("create media root: %w", err)
			}
			lock := flock.New(cfg.LockPath())
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return fmt.Errorf("%w (%s)", ErrAlreadyRunning, cfg.LockPath())
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					logging.Warn("failed to release lock", zap.Error(err))
				}
			}()

			if err := organizer.Initialize(); err != nil {
				return err
			}

			server := api.NewServer(organizer, cfg, nil)

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			group, groupCtx := errgroup.WithContext(signalCtx)

			group.Go(func() error {
				return organizer.Run(groupCtx)
			})
			group.Go(server.Start)
			group.Go(func() error {
				<-groupCtx.Done()
				logging.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})

			logging.Info("organizer started",
				zap.String("root", organizer.BasePath()),
				zap.String("downloads", organizer.DownloadsPath()),
				zap.String("categories", organizer.CategoriesPath()),
				zap.String("listen", cfg.Server.ListenAddr))
			return group.Wait()
		},
	}

	cmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Override the listen address (for example :3000)")
	return cmd
}
