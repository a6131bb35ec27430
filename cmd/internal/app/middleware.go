package app

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tasker/cmd/identity/ids"
	"tasker/cmd/internal/httpx"
)

// HTTPObserver records per-request metrics. metrics.Registry implements it.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, d time.Duration)
}

const maxInboundRequestID = 128

// WithRequestID assigns each request an id, reusing a sane inbound X-Request-ID.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(httpx.RequestIDHeader))
		if id == "" || len(id) > maxInboundRequestID || strings.ContainsAny(id, " \t\r\n") {
			newID, err := ids.NewULID(time.Now().UTC())
			if err != nil {
				newID = ids.NewID()
			}
			id = newID
		}

		w.Header().Set(httpx.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(httpx.WithRequestID(r.Context(), id)))
	})
}

// WithRequestLogging wraps the mux, logging one line per request and feeding obs.
// It must sit directly around the ServeMux so r.Pattern is populated after dispatch.
func WithRequestLogging(next http.Handler, log *slog.Logger, obs HTTPObserver) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingResponseWriter{
			ResponseWriter: w,
			status:         http.StatusOK,
		}

		r = r.WithContext(httpx.WithLogFields(r.Context()))
		next.ServeHTTP(lrw, r)

		elapsed := time.Since(start)
		route := routeOf(r.Pattern)
		if obs != nil {
			obs.ObserveHTTP(r.Method, route, lrw.status, elapsed)
		}

		level, result := requestLogMeta(lrw.status)
		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", lrw.status,
			"status_class", statusClass(lrw.status),
			"result", result,
			"duration_ms", elapsed.Milliseconds(),
			"bytes", lrw.bytes,
			"request_id", httpx.RequestID(r.Context()),
		}
		attrs = append(attrs, httpx.LogFields(r.Context())...)
		log.Log(r.Context(), level, "http.request", attrs...)
	})
}

// routeOf drops the method from a ServeMux pattern ("GET /tasks/{taskId}" -> "/tasks/{taskId}").
func routeOf(pattern string) string {
	if _, path, ok := strings.Cut(pattern, " "); ok {
		return path
	}
	return pattern
}

func requestLogMeta(status int) (slog.Level, string) {
	switch {
	case status >= 500:
		return slog.LevelError, "server_error"
	case status >= 400:
		return slog.LevelWarn, "client_error"
	case status >= 300:
		return slog.LevelInfo, "redirect"
	default:
		return slog.LevelInfo, "success"
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func (w *loggingResponseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *loggingResponseWriter) Write(p []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(p)
	w.bytes += int64(n)
	return n, err
}

func (w *loggingResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *loggingResponseWriter) ReadFrom(r io.Reader) (int64, error) {
	w.wroteHeader = true
	if rf, ok := w.ResponseWriter.(io.ReaderFrom); ok {
		n, err := rf.ReadFrom(r)
		w.bytes += n
		return n, err
	}
	n, err := io.Copy(w.ResponseWriter, r)
	w.bytes += n
	return n, err
}

func (w *loggingResponseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
