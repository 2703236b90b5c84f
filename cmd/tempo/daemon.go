package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fentz26/tempo/internal/announce"
	"github.com/fentz26/tempo/internal/audit"
	"github.com/fentz26/tempo/internal/config"
	"github.com/fentz26/tempo/internal/controlplane"
	"github.com/fentz26/tempo/internal/host"
	"github.com/fentz26/tempo/internal/logger"
	"github.com/fentz26/tempo/internal/notify"
	"github.com/fentz26/tempo/internal/store"
	"github.com/spf13/cobra"
)

var (
	listenAddr string
	dbPath     string
	logFile    string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the Tempo daemon",
	Long:  `Starts the Tempo daemon which owns the live run, speaks announcements and serves the HTTP API.`,
	RunE:  runDaemon,
}

func init() {
	daemonCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address for the API server (default from config)")
	daemonCmd.Flags().StringVar(&dbPath, "db", "", "Path to SQLite database (default from config)")
	daemonCmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")
}

func newLogger(mode string) (*logger.Logger, error) {
	if logFile != "" {
		return logger.NewFile(config.ExpandPath(logFile))
	}
	return logger.New(mode)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if listenAddr != "" {
		cfg.Daemon.Listen = listenAddr
	}
	if dbPath != "" {
		cfg.Daemon.DBPath = config.ExpandPath(dbPath)
	}

	log, err := newLogger(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("starting tempo daemon", "listen", cfg.Daemon.Listen, "db", cfg.Daemon.DBPath)

	// Initialize store
	s, err := store.New(cfg.Daemon.DBPath)
	if err != nil {
		return err
	}

	// Initialize components
	journal := audit.NewJournalWriter(s)
	queue, err := newAnnounceQueue(cfg.Voice, log)
	if err != nil {
		s.Close()
		return err
	}
	notifier := notify.NewMultiNotifier(
		notify.NewDesktopNotifier(cfg.Notifications.Desktop),
		notify.NewWebhookNotifier(cfg.Notifications.WebhookURL),
	)

	// Create and start host
	h := host.New(s, journal, queue, notifier, &host.Config{
		TickInterval:         cfg.Timers.TickInterval,
		MilestoneIntervalMin: cfg.Timers.MilestoneIntervalMin,
		OvertimeIntervalMin:  cfg.Timers.OvertimeIntervalMin,
	}, log)

	queue.Start()
	defer queue.Stop()

	if err := h.Start(); err != nil {
		s.Close()
		return err
	}

	// Interval edits in the config file apply without a restart.
	watcher, err := config.NewWatcher(config.ExpandPath(configPath), func(c *config.Config, err error) {
		if err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		h.SetIntervals(c.Timers.MilestoneIntervalMin, c.Timers.OvertimeIntervalMin)
		log.Info("config reloaded",
			"milestone_interval_min", c.Timers.MilestoneIntervalMin,
			"overtime_interval_min", c.Timers.OvertimeIntervalMin)
	})
	if err != nil {
		log.Warn("config watch disabled", "error", err)
	} else {
		watcher.Start(context.Background())
		defer watcher.Stop()
	}

	// Create service and server
	service := controlplane.NewService(s, h)
	server := controlplane.NewServer(service, s, cfg.Daemon.Listen, log)

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to receive server errors
	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		err := server.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigCh:
		log.Info("received signal, shutting down", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			log.Error("server error", "error", err)
			h.Stop()
			s.Close()
			return err
		}
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown error", "error", err)
	}

	h.Stop()
	if err := s.Close(); err != nil {
		log.Warn("database close error", "error", err)
	}

	log.Info("shutdown complete")
	return nil
}

// newAnnounceQueue builds the speech queue from the voice settings. With voice
// disabled the queue still runs but speaks nothing.
func newAnnounceQueue(v config.VoiceConfig, log *logger.Logger) (*announce.Queue, error) {
	var speaker announce.Speaker = announce.NoopSpeaker{}
	if v.Enabled {
		cs, err := announce.NewCommandSpeaker(v.Command, v.Args)
		if err != nil {
			return nil, err
		}
		speaker = cs
	}

	var ducker announce.Ducker = announce.NoopDucker{}
	if len(v.DuckCommand) > 0 {
		cd, err := announce.NewCommandDucker(v.DuckCommand, v.RestoreCommand)
		if err != nil {
			return nil, err
		}
		ducker = cd
	}

	return announce.NewQueue(speaker, ducker, log), nil
}
