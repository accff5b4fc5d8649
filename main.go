package main

import (
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"

	"github.com/saim/willow/config"
	"github.com/saim/willow/control"
	"github.com/saim/willow/internal/app"
	"github.com/saim/willow/transcriptlog"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	var (
		logLevel    = flag.String("log-level", "", "log level (debug, info, warn, error); overrides config")
		metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
		autoStart   = flag.Bool("start", false, "begin audio capture immediately instead of waiting for a Start call")
	)
	flag.Parse()

	fsys := afero.NewOsFs()
	cfg, err := config.Load(fsys)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := setupLogging(cfg, *logLevel)
	log.Info("starting willow", "version", version, "commit", commit)

	opts := []app.Option{app.WithFs(fsys)}
	if store := openTranscriptLog(log); store != nil {
		opts = append(opts, app.WithTranscriptLog(store))
	}

	svc, err := app.New(log, opts...)
	if err != nil {
		log.Error("init service", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	server, err := control.New(svc, log)
	if err != nil {
		log.Error("init control surface", "error", err)
		os.Exit(1)
	}
	defer server.Close()
	svc.SetEmitter(server)

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, log)
	}

	if *autoStart {
		if err := svc.Start(); err != nil {
			log.Error("start capture", "error", err)
			os.Exit(1)
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	log.Info("shutting down", "signal", s.String())
}

// setupLogging writes to stderr and, when configured, to the log file
// as well. The flag level wins over the config level.
func setupLogging(cfg *config.Config, flagLevel string) *slog.Logger {
	level := cfg.Logging.Level
	if flagLevel != "" {
		level = flagLevel
	}

	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var w io.Writer = os.Stderr
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			slog.Warn("open log file", "path", cfg.Logging.File, "error", err)
		} else {
			w = io.MultiWriter(os.Stderr, f)
		}
	}

	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(log)
	return log
}

// openTranscriptLog opens the transcript store under the user data
// directory. Failure is not fatal; the service runs without history.
func openTranscriptLog(log *slog.Logger) *transcriptlog.Store {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Warn("transcript log disabled", "error", err)
		return nil
	}

	path := filepath.Join(home, ".local", "share", "willow", "transcripts")
	if err := os.MkdirAll(path, 0o755); err != nil {
		log.Warn("transcript log disabled", "error", err)
		return nil
	}

	store, err := transcriptlog.Open(path)
	if err != nil {
		log.Warn("transcript log disabled", "error", err)
		return nil
	}
	return store
}

func serveMetrics(addr string, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info("metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics server", "error", err)
	}
}
