// Package admin serves the admin endpoints (metrics and profiling) of mqctl.
package admin

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reddit/posixmq.go/log"
)

// DefaultAdminAddr is the address used when the admin server is enabled
// without an explicit address.
const DefaultAdminAddr = ":6060"

// shutdownTimeout bounds how long Serve waits for in-flight scrapes.
const shutdownTimeout = 5 * time.Second

// DefaultAdminServeMux configures the following routes:
//
//	/metrics      - prometheus metrics
//	/debug/pprof/ - profiling, ref: https://pkg.go.dev/net/http/pprof
//	/health       - always 200 while the process runs
var DefaultAdminServeMux = http.NewServeMux()

func init() {
	DefaultAdminServeMux.HandleFunc("/debug/pprof/", pprof.Index)
	DefaultAdminServeMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	DefaultAdminServeMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	DefaultAdminServeMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	DefaultAdminServeMux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	DefaultAdminServeMux.Handle("/metrics", promhttp.Handler())
	DefaultAdminServeMux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// Serve serves DefaultAdminServeMux on l until ctx is done.
//
// It always closes l.
func Serve(ctx context.Context, l net.Listener) error {
	server := &http.Server{
		Handler:           DefaultAdminServeMux,
		ReadHeaderTimeout: time.Second,
	}
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warnw("admin: shutdown failed", "err", err)
		}
	})
	defer stop()

	log.Infow("admin: serving", "addr", l.Addr().String())
	if err := server.Serve(l); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAdminAddr
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, l)
}
