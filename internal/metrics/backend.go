package metrics

import (
	"strconv"
	"time"
)

// BackendCall records a completed backend round trip.
func BackendCall(endpoint string, status int, duration time.Duration) {
	BackendCallsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	BackendCallDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// BackendTransportFailure records a call that never got a response.
func BackendTransportFailure(endpoint string, duration time.Duration) {
	BackendCallsTotal.WithLabelValues(endpoint, "transport").Inc()
	BackendCallDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// StaleDiscarded records a list response dropped by the generation guard.
func StaleDiscarded(kind string) {
	StaleResponsesDiscarded.WithLabelValues(kind).Inc()
}

// ExportCompleted records a spreadsheet export outcome.
func ExportCompleted(kind string, ok bool) {
	status := "ok"
	if !ok {
		status = "failed"
	}
	ExportsGenerated.WithLabelValues(kind, status).Inc()
}

// SchemaLookup records a schema cache hit or miss.
func SchemaLookup(hit bool) {
	if hit {
		SchemaCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	SchemaCacheLookups.WithLabelValues("miss").Inc()
}
