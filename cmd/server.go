package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/mindmap/internal/metrics"
	"github.com/ziadkadry99/mindmap/internal/render"
	"github.com/ziadkadry99/mindmap/internal/server"
	"github.com/ziadkadry99/mindmap/internal/session"
	"github.com/ziadkadry99/mindmap/internal/store"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the mind map HTTP and WebSocket API",
	Long:  `Starts the mindmap server with the REST API for maps and preferences, the canvas WebSocket channel, and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serverPort
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		collector := metrics.NewCollector("mindmap")
		gen, err := newGenerator(cfg, logger, collector)
		if err != nil {
			return err
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()
		maps := store.NewStore(database)

		sessions := session.NewManager(gen, logger,
			session.WithRepository(maps),
			session.WithRecorder(collector),
			session.WithDefaultColor(cfg.DefaultColor),
			session.WithExportOptions(
				render.WithJPEGQuality(cfg.Export.JPEGQuality),
				render.WithExportRecorder(collector),
			),
		)

		srv := server.New(server.Config{
			Port:           cfg.Server.Port,
			AllowAll:       cfg.Server.AllowAll,
			RequestTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		}, sessions, maps, collector, logger)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("shutdown failed", zap.Error(err))
			}
		}()

		fmt.Fprintf(os.Stderr, "mindmap server %s starting on port %d\n", Version, cfg.Server.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", database.Path())
		fmt.Fprintf(os.Stderr, "  Model: %s/%s\n", cfg.Provider, cfg.Model)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "HTTP port (overrides server.port)")
	rootCmd.AddCommand(serverCmd)
}
