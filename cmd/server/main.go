package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"chatwire/pkg/logging"
	"chatwire/pkg/server"
	"chatwire/pkg/store"
	"chatwire/pkg/version"
)

func main() {
	// Optional .env in the working directory; missing is fine.
	_ = godotenv.Load()

	defaults := server.DefaultConfig()

	configFile := flag.String("config", "", "YAML config file (flags override it)")
	addr := flag.String("addr", defaults.Addr, "TCP bind address")
	wsAddr := flag.String("ws", defaults.WSAddr, "WebSocket bind address (empty to disable)")
	metricsAddr := flag.String("metrics", defaults.MetricsAddr, "HTTP bind address for Prometheus /metrics (empty to disable)")
	idleTimeout := flag.Int("idle-timeout", defaults.IdleTimeoutSeconds, "Idle timeout in seconds before eviction")
	maxLine := flag.Int("max-line", defaults.MaxLineBytes, "Maximum protocol line length in bytes")
	dbPath := flag.String("db", defaults.DBPath, "SQLite audit database path (empty to disable)")
	exportSeen := flag.Bool("export-seen", false, "Export the username audit as YAML and exit")

	logLevel := flag.String("log-level", "info", "Log level: "+logging.LevelNames())
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	flag.Parse()

	if err := logging.Setup(logging.Options{
		Level:  *logLevel,
		Format: *logFormat,
		Output: os.Stdout,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(1)
	}

	cfg := defaults
	if *configFile != "" {
		loaded, err := server.LoadConfig(*configFile)
		if err != nil {
			slog.Error("load config", "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.FromEnv()

	// Explicitly set flags win over the file and the environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "ws":
			cfg.WSAddr = *wsAddr
		case "metrics":
			cfg.MetricsAddr = *metricsAddr
		case "idle-timeout":
			cfg.IdleTimeoutSeconds = *idleTimeout
		case "max-line":
			cfg.MaxLineBytes = *maxLine
		case "db":
			cfg.DBPath = *dbPath
		}
	})
	cfg.ExportSeen = *exportSeen

	// Export action (run and exit)
	if cfg.ExportSeen {
		if cfg.DBPath == "" {
			fmt.Fprintln(os.Stderr, "-export-seen requires -db")
			os.Exit(1)
		}
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			slog.Error("open database", "err", err)
			os.Exit(1)
		}
		defer func() { _ = st.Close() }()

		data, err := st.ExportSeenYAML()
		if err != nil {
			slog.Error("export seen users", "err", err)
			os.Exit(1)
		}
		fmt.Print(string(data))
		return
	}

	var deps server.Dependencies
	if cfg.DBPath != "" {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			slog.Error("open database", "err", err)
			os.Exit(1)
		}
		deps.Audit = st
	}

	slog.Info("chatwire starting", "version", version.String())

	srv := server.New(cfg, deps)
	if err := srv.Run(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
