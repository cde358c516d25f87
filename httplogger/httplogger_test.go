package httplogger

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/VictoriaMetrics/metrics"
	"github.com/flashbots/devhttps/logutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return zap.New(core), logs
}

func newRequest(logger *zap.Logger, method, target string) *http.Request {
	return logutils.RequestWithZap(httptest.NewRequest(method, target, nil), logger)
}

func TestLoggingMiddleware(t *testing.T) {
	logger, logs := observed()

	var sawLogger *zap.Logger
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = logutils.ZapFromRequest(r)
		assert.Equal(t, int64(1), InFlight())
		http.Error(w, "nope", http.StatusNotFound)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, newRequest(logger, http.MethodGet, "/missing.txt"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))
	assert.NotSame(t, logger, sawLogger)
	assert.Equal(t, int64(0), InFlight())

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "http: GET /missing.txt 404", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, int64(404), fields["status"])
	assert.Equal(t, "/missing.txt", fields["path"])
	assert.Equal(t, rr.Header().Get(RequestIDHeader), fields["request_id"])
}

func TestLoggingMiddleware_ReusesRequestID(t *testing.T) {
	logger, logs := observed()
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}))

	req := newRequest(logger, http.MethodGet, "/")
	req.Header.Set(RequestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "abc-123", rr.Header().Get(RequestIDHeader))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "abc-123", fields["request_id"])
	assert.Equal(t, int64(200), fields["status"])
	assert.Equal(t, int64(5), fields["bytes"])
}

func TestLoggingMiddleware_Panic(t *testing.T) {
	logger, logs := observed()
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("foo!")
	}))

	before := metrics.GetOrCreateCounter(panicCounter).Get()

	rr := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rr, newRequest(logger, http.MethodGet, "/boom"))
	})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, before+1, metrics.GetOrCreateCounter(panicCounter).Get())
	assert.Equal(t, 1, logs.FilterMessage("http request panic: GET /boom").Len())
	assert.Equal(t, 1, logs.FilterMessage("http: GET /boom 500").Len())
}

func TestLoggingMiddleware_CountsStatus(t *testing.T) {
	logger, _ := observed()
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	counter := metrics.GetOrCreateCounter(`devhttps_http_requests_total{status="418"}`)
	before := counter.Get()
	h.ServeHTTP(httptest.NewRecorder(), newRequest(logger, http.MethodGet, "/"))
	assert.Equal(t, before+1, counter.Get())
}

func TestLoggingMiddleware_AbortHandlerPropagates(t *testing.T) {
	logger, logs := observed()
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), newRequest(logger, http.MethodGet, "/aborted"))
	})
	assert.Equal(t, 0, logs.FilterMessage("http request panic: GET /aborted").Len())
	assert.Equal(t, int64(0), InFlight())
}

// readerFromRecorder is a recorder that, like net/http's HTTP/1.1 writer,
// implements io.ReaderFrom.
type readerFromRecorder struct {
	*httptest.ResponseRecorder
	readFrom bool
}

func (r *readerFromRecorder) ReadFrom(src io.Reader) (int64, error) {
	r.readFrom = true
	return io.Copy(r.ResponseRecorder, src)
}

func TestLoggingMiddleware_ReaderFrom(t *testing.T) {
	logger, logs := observed()
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// http.ServeContent copies through io.CopyN, i.e. a LimitedReader
		_, err := io.Copy(w, io.LimitReader(strings.NewReader("file body"), 1<<20))
		assert.NoError(t, err)
	}))

	t.Run("delegates to the underlying writer", func(t *testing.T) {
		rr := &readerFromRecorder{ResponseRecorder: httptest.NewRecorder()}
		h.ServeHTTP(rr, newRequest(logger, http.MethodGet, "/index.html"))
		assert.True(t, rr.readFrom)
		assert.Equal(t, "file body", rr.Body.String())
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("falls back to copying", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, newRequest(logger, http.MethodGet, "/index.html"))
		assert.Equal(t, "file body", rr.Body.String())
	})

	for _, entry := range logs.All() {
		assert.Equal(t, int64(9), entry.ContextMap()["bytes"])
	}
}

func TestLoggingMiddleware_FallsBackToGlobalLogger(t *testing.T) {
	logger, logs := observed()
	defer zap.ReplaceGlobals(logger)()

	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/plain", nil))

	assert.Equal(t, 1, logs.FilterMessage("http: GET /plain 200").Len())
}
