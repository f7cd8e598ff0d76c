// Command codeindexd runs the code index and retrieval service over the
// Model Context Protocol, on stdio. A thin HTTP listener optionally
// exposes /metrics and /healthz for operators (spec §6); the MCP
// transport itself is the one required surface.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/codeindexd/codeindexd/internal/registry"
	"github.com/codeindexd/codeindexd/internal/tools"
	"github.com/codeindexd/codeindexd/internal/walker"
)

func main() {
	var (
		bind         string
		port         int
		maxFileSize  int64
		maxProjects  int
		root         string
		logLevel     string
		historyLimit int
	)

	flag.StringVar(&bind, "bind", "127.0.0.1", "bind address for the optional /metrics and /healthz listener")
	flag.IntVar(&port, "port", 0, "port for the optional /metrics and /healthz listener; 0 disables it")
	flag.Int64Var(&maxFileSize, "max-file-size", 1<<20, "per-file byte budget; larger files are tracked but produce no symbols")
	flag.IntVar(&maxProjects, "max-projects", registry.DefaultMaxProjects, "maximum number of resident projects before LRU eviction")
	flag.StringVar(&root, "root", "", "optional project root to pre-index at startup")
	flag.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.IntVar(&historyLimit, "history-limit", registry.DefaultHistoryLimit, "per-session request history ring buffer size")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: codeindexd [flags]\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(logLevel)})))

	reg := registry.New(registry.Config{
		MaxProjects:  maxProjects,
		HistoryLimit: historyLimit,
		WalkerOpts:   walker.Options{MaxFileSize: maxFileSize},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if root != "" {
		if _, err := reg.GetOrCreate(ctx, root); err != nil {
			slog.Error("codeindexd.preindex", "root", root, "err", err)
			os.Exit(1)
		}
		slog.Info("codeindexd.preindex", "root", root)
	}

	srv := tools.NewServer(reg)

	if port != 0 {
		startDiagnosticsServer(bind, port, reg)
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := srv.MCPServer().Run(sigCtx, &mcp.StdioTransport{})
	if runErr != nil {
		slog.Error("codeindexd.run", "err", runErr)
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startDiagnosticsServer serves /metrics and /healthz in the background;
// operators can scrape resident-project and session gauges without the
// MCP transport in the loop.
func startDiagnosticsServer(bind string, port int, reg *registry.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		h := reg.Health()
		fmt.Fprintf(w, "{\"projects_resident\":%d,\"sessions_open\":%d,\"max_projects\":%d}\n",
			h.ProjectsResident, h.SessionsOpen, h.MaxProjects)
	})

	addr := fmt.Sprintf("%s:%d", bind, port)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("codeindexd.diagnostics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Warn("codeindexd.diagnostics_listen_failed", "err", err)
		}
	}()
}
