package httplogger

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
	"go.uber.org/atomic"
)

const (
	// incremented when a response is finished, by status code
	requestCountLabel = `devhttps_http_requests_total{status="%d"}`
	// incremented when a handler panics
	panicCounter = `devhttps_http_panics_total`
	// total duration of the request
	requestDurationLabel = `devhttps_http_request_duration_milliseconds`
	// body bytes written to clients
	bytesServedCounter = `devhttps_http_response_bytes_total`
	// requests currently being served
	inFlightGauge = `devhttps_http_requests_in_flight`
)

var inFlight atomic.Int64

func init() {
	metrics.GetOrCreateGauge(inFlightGauge, func() float64 {
		return float64(inFlight.Load())
	})
}

func incRequestCount(status int) {
	l := fmt.Sprintf(requestCountLabel, status)
	metrics.GetOrCreateCounter(l).Inc()
}

func incPanics() {
	metrics.GetOrCreateCounter(panicCounter).Inc()
}

func incRequestDuration(durationMs int64) {
	metrics.GetOrCreateSummary(requestDurationLabel).Update(float64(durationMs))
}

func addBytesServed(n int64) {
	metrics.GetOrCreateCounter(bytesServedCounter).Add(int(n))
}

// InFlight returns the number of requests currently being served.
func InFlight() int64 {
	return inFlight.Load()
}
