// Command inkd is the out-of-process accelerated backend daemon for
// the ink annotation engine. It serves the point-processing and
// compaction operations over the websocket RPC protocol; engines
// connect with backend.DialRPC("ws://127.0.0.1:7465/rpc", 0).
//
// inkd is optional: an engine without it runs every operation through
// the in-process software fallback with identical behavior.
package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/viewstage/ink"
	"github.com/viewstage/ink/backend"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7465", "listen address")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	ink.SetLogger(logger)

	mux := http.NewServeMux()
	mux.Handle("/rpc", backend.NewServer(ink.NewLocalProcessor()))

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("inkd listening", "addr", *addr)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("inkd stopped", "err", err)
		os.Exit(1)
	}
}
