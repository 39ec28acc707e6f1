package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	relayMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "midibridge",
			Subsystem: "relay",
			Name:      "messages_total",
			Help:      "Messages forwarded by the relay engine.",
		},
		[]string{"direction"},
	)
	relayDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "midibridge",
			Subsystem: "relay",
			Name:      "dropped_total",
			Help:      "Malformed chunks dropped instead of forwarded.",
		},
		[]string{"direction"},
	)
	relayTransportErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "midibridge",
			Subsystem: "relay",
			Name:      "transport_errors_total",
			Help:      "Transport failures that stopped a relay direction.",
		},
		[]string{"direction"},
	)
	dispatchCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "midibridge",
			Subsystem: "dispatch",
			Name:      "commands_total",
			Help:      "Commands handled by the device dispatcher.",
		},
		[]string{"kind", "outcome"},
	)
)

// RegisterMetrics registers the bridge collectors with the default registry.
// Safe to call from every recording site.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(relayMessages, relayDropped, relayTransportErrors, dispatchCommands)
	})
}

// RecordRelayMessage counts one forwarded message.
func RecordRelayMessage(direction string) {
	RegisterMetrics()
	relayMessages.WithLabelValues(direction).Inc()
}

// RecordRelayDrop counts one malformed chunk dropped by a relay direction.
func RecordRelayDrop(direction string) {
	RegisterMetrics()
	relayDropped.WithLabelValues(direction).Inc()
}

// RecordRelayTransportError counts one fatal transport failure on a direction.
func RecordRelayTransportError(direction string) {
	RegisterMetrics()
	relayTransportErrors.WithLabelValues(direction).Inc()
}

// RecordDispatch counts one dispatched command by kind and outcome
// ("responded" or "rejected").
func RecordDispatch(kind, outcome string) {
	RegisterMetrics()
	dispatchCommands.WithLabelValues(kind, outcome).Inc()
}
