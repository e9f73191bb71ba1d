package http

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/userdirectory/internal/logging"
	"github.com/gorilla/mux"
)

type requestInfoKey struct{}

// requestInfo collects details discovered deeper in the chain so the access
// log can report them on exit.
type requestInfo struct {
	client string
	route  string
}

func annotateClient(ctx context.Context, name string) {
	if info, ok := ctx.Value(requestInfoKey{}).(*requestInfo); ok {
		info.client = name
	}
}

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// AccessLog logs every request on entry and on exit, and records request
// metrics. Request bodies are never logged.
func AccessLog(l logging.Logger, m *Metrics) func(http.Handler) http.Handler {
	logger := l.With("module", "http")
	hostname, _ := os.Hostname()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			info := &requestInfo{}
			ctx := context.WithValue(r.Context(), requestInfoKey{}, info)

			logger.Info(ctx, "request started",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"host", hostname,
			)

			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(ctx))
			duration := time.Since(start)

			logger.Info(ctx, "request finished",
				"method", r.Method,
				"path", r.URL.Path,
				"client", info.client,
				"status", rw.status,
				"duration", duration,
			)

			m.observe(r.Method, routeLabel(r, info), strconv.Itoa(rw.status), duration)
		})
	}
}

// recordRoute stores the route template matched by a nested router so the
// enclosing AccessLog labels metrics with it.
func recordRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if info, ok := r.Context().Value(requestInfoKey{}).(*requestInfo); ok {
			info.route = routeTemplate(r)
		}
		next.ServeHTTP(w, r)
	})
}

// routeLabel prefers the route template to keep metric cardinality bounded.
func routeLabel(r *http.Request, info *requestInfo) string {
	if info.route != "" {
		return info.route
	}
	if tpl := routeTemplate(r); tpl != "" {
		return tpl
	}
	return "unmatched"
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return ""
}
