// Command faec is a small front end over pkg/library: it renders one
// template from a directory to stdout, or serves a directory of templates
// over HTTP, resolving includes and taking bindings from either a JSON
// file or (in serve mode) the request's query parameters.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/CTAG07/fae/pkg/library"
	"github.com/CTAG07/fae/pkg/value"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "render":
		runRender(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: faec render [-recursive] [-ignore-bad] <dir> <template> [bindings.json]")
	fmt.Fprintln(os.Stderr, "       faec serve [-config path] <dir>")
}

func runRender(args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	recursive := fs.Bool("recursive", true, "scan the library directory recursively")
	ignoreBad := fs.Bool("ignore-bad", true, "silently drop templates that fail to compile")
	_ = fs.Parse(args)

	rest := fs.Args()
	if len(rest) < 2 {
		usage()
		os.Exit(2)
	}
	dir, name := rest[0], rest[1]
	bindingsPath := ""
	if len(rest) > 2 {
		bindingsPath = rest[2]
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	lib, err := library.New(dir, *recursive, *ignoreBad, library.WithLogger(logger))
	if err != nil {
		logger.Error("failed to build library", "dir", dir, "error", err)
		os.Exit(1)
	}

	bindings, err := loadBindings(bindingsPath)
	if err != nil {
		logger.Error("failed to load bindings", "error", err)
		os.Exit(1)
	}

	out, err := lib.Render(name, bindings)
	if err != nil {
		logger.Error("failed to render template", "template", name, "error", err)
		os.Exit(1)
	}

	fmt.Print(out)
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "faec.json", "path to the server config file")
	_ = fs.Parse(args)

	rest := fs.Args()
	if len(rest) < 1 {
		usage()
		os.Exit(2)
	}
	dir := rest[0]

	cfg, err := LoadServeConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))

	opts := []library.Option{library.WithLogger(logger)}
	if cfg.EnableCache {
		opts = append(opts, library.WithCache(strings.TrimSuffix(dir, "/")+".cache"))
	}

	var statsDB *sql.DB
	if cfg.EnableStats {
		db, err := library.OpenStatsDB(cfg.StatsDatabasePath)
		if err != nil {
			logger.Error("failed to open stats database", "error", err)
			os.Exit(1)
		}
		if err := library.SetupStatsSchema(db); err != nil {
			logger.Error("failed to set up stats schema", "error", err)
			os.Exit(1)
		}
		statsDB = db
		opts = append(opts, library.WithStats(library.NewStatsRecorder(db, logger)))
	}
	if statsDB != nil {
		defer func() { _ = statsDB.Close() }()
	}

	lib, err := library.New(dir, cfg.Recursive, cfg.IgnoreBadTemplates, opts...)
	if err != nil {
		logger.Error("failed to build library", "dir", dir, "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", handleRender(lib, logger))

	server := &http.Server{Addr: cfg.Addr, Handler: mux}

	logger.Info("Starting fae server", "version", Version, "address", cfg.Addr, "dir", dir)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func handleRender(lib *library.Library, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		name := strings.TrimPrefix(r.URL.Path, "/")
		if name == "" {
			http.NotFound(w, r)
			return
		}

		start := time.Now()
		bindings := queryToBindings(r.URL.Query())
		out, err := lib.Render(name, bindings)
		elapsed := time.Since(start)

		if err != nil {
			logger.Warn("render failed", "request_id", requestID, "template", name, "error", err, "elapsed", elapsed)
			http.Error(w, "template not found", http.StatusNotFound)
			return
		}

		logger.Info("rendered template",
			"request_id", requestID,
			"template", name,
			"size", humanize.Bytes(uint64(len(out))),
			"elapsed", elapsed)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(out))
	}
}

// queryToBindings turns request query parameters into string bindings.
// A repeated key becomes a value.List of strings, so "$(for x in tag)"
// works against "?tag=a&tag=b" the same way it would against a JSON list.
func queryToBindings(values url.Values) value.Bindings {
	out := make(value.Bindings, len(values))
	for k, vs := range values {
		if len(vs) == 0 {
			continue
		}
		if len(vs) == 1 {
			out[k] = value.String(vs[0])
			continue
		}
		list := make(value.List, len(vs))
		for i, s := range vs {
			list[i] = value.String(s)
		}
		out[k] = list
	}
	return out
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
