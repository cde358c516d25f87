// Package httplogger implements a middleware that logs the incoming HTTP
// request & its duration using zap, and records request metrics.
package httplogger

import (
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/flashbots/devhttps/logutils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-Id"

// responseWriter is a minimal wrapper for http.ResponseWriter that allows the
// written HTTP status code and body size to be captured for logging.
type responseWriter struct {
	http.ResponseWriter
	status      int
	size        int64
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w}
}

func (rw *responseWriter) Status() int {
	if !rw.wroteHeader {
		return http.StatusOK
	}
	return rw.status
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}

	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
	rw.wroteHeader = true
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)
	return n, err
}

// ReadFrom keeps the underlying io.ReaderFrom reachable, so file bodies can
// still go out via sendfile.
func (rw *responseWriter) ReadFrom(src io.Reader) (int64, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	var (
		n   int64
		err error
	)
	if rf, ok := rw.ResponseWriter.(io.ReaderFrom); ok {
		n, err = rf.ReadFrom(src)
	} else {
		n, err = io.Copy(rw.ResponseWriter, src)
	}
	rw.size += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// LoggingMiddleware logs the incoming HTTP request & its duration.
//
// The logger is taken from the request context (see logutils.RequestWithZap).
// Every request gets an ID, taken from the X-Request-Id header when the client
// sent one, and echoed back on the response. The logger passed down to next
// is annotated with that ID.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set(RequestIDHeader, requestID)
			r = logutils.RequestWithZap(r, logutils.ZapFromRequest(r).With(zap.String("request_id", requestID)))

			inFlight.Inc()
			defer inFlight.Dec()

			start := time.Now()
			wrapped := wrapResponseWriter(w)

			defer func() {
				if err := recover(); err != nil {
					// net/http aborts the response silently on this one
					if err == http.ErrAbortHandler {
						panic(err)
					}
					wrapped.WriteHeader(http.StatusInternalServerError)
					incPanics()

					logutils.ZapFromRequest(r).Error(
						fmt.Sprintf("http request panic: %s %s", r.Method, r.URL.EscapedPath()),
						zap.Any("err", err),
						zap.String("trace", string(debug.Stack())),
					)
				}

				duration := time.Since(start)
				incRequestCount(wrapped.Status())
				incRequestDuration(duration.Milliseconds())
				addBytesServed(wrapped.size)

				logutils.ZapFromRequest(r).Info(
					fmt.Sprintf("http: %s %s %d", r.Method, r.URL.EscapedPath(), wrapped.Status()),
					zap.Int("status", wrapped.Status()),
					zap.String("method", r.Method),
					zap.String("path", r.URL.EscapedPath()),
					zap.Int64("bytes", wrapped.size),
					zap.String("remote", r.RemoteAddr),
					zap.Duration("duration", duration),
				)
			}()

			next.ServeHTTP(wrapped, r)
		},
	)
}
