package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/yourorg/officeattendance/internal/attendance"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	var configPath, addr, logPath string
	flagSet := pflag.NewFlagSet("attendance", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", os.Getenv("ATTENDANCE_CONFIG"), "path to a YAML config file")
	flagSet.StringVar(&addr, "addr", "", "listen address (overrides ADDR)")
	flagSet.StringVar(&logPath, "log-path", "", "attendance CSV log (overrides ATTENDANCE_LOG_PATH)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := attendance.LoadConfigFile(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if logPath != "" {
		cfg.LogPath = logPath
	}

	logger, closeLog, err := attendance.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog.Close()
	slog.SetDefault(logger)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := attendance.NewCSVLog(cfg.LogPath, loc)
	if err := store.EnsureInitialized(ctx); err != nil {
		return err
	}

	svc := attendance.NewService(cfg, store, logger, attendance.WithLocation(loc))
	handler := attendance.NewHandler(svc, cfg, logger)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("attendance api listening", "addr", cfg.Addr, "log", cfg.LogPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server stopped", "error", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}
