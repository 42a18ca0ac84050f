// Package telemetry defines the Prometheus collectors shared across
// this module's tools, grounded on
// adred-codev-ws_poc/ws/internal/single/monitoring/metrics.go's
// package-level collector vars + init-time MustRegister pattern.
// itchyserv exposes these over HTTP via Handler; the batch tools
// (itchygen, itchyparse) gather the same registry once at exit and
// log a text dump instead of serving it, since they have no listener.
package telemetry

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// Registry is this module's private collector registry: never the
// global default, so test processes and concurrent tool invocations
// in the same binary don't collide on registration.
var Registry = prometheus.NewRegistry()

var (
	// Batch-tool metrics (itchygen, itchyparse).
	OrdersGenerated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "itchygen_orders_generated_total",
		Help: "Total number of ADD order chains generated.",
	})
	EventsGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "itchygen_events_generated_total",
		Help: "Total number of events generated, by type.",
	}, []string{"type"})
	RefHashOverflows = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "itchygen_ref_hash_overflows_total",
		Help: "Total number of reference allocation retries due to bucket overflow or collision.",
	})

	RecordsParsed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "itchyparse_records_parsed_total",
		Help: "Total number of PCAP records parsed.",
	})
	SequenceErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "itchyparse_sequence_errors_total",
		Help: "Total number of MoldUDP64 sequence number discontinuities observed.",
	})
	IllegalMessageTypes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "itchyparse_illegal_message_types_total",
		Help: "Total number of undecodable ITCH message types encountered.",
	})

	// itchyserv metrics.
	ReplayConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "itchyserv_connections_active",
		Help: "Number of distinct UDP source addresses itchyserv has received datagrams from.",
	})
	ReplayConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "itchyserv_connections_total",
		Help: "Total number of distinct UDP source addresses itchyserv has received datagrams from.",
	})
	ReplayMessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "itchyserv_messages_sent_total",
		Help: "Total number of ITCH messages fanned out to clients.",
	})
	ReplayDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "itchyserv_dropped_messages_total",
		Help: "Total number of messages dropped, by reason.",
	}, []string{"reason"})
	ReplayPublishErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "itchyserv_nats_publish_errors_total",
		Help: "Total number of NATS publish failures.",
	})
)

func init() {
	Registry.MustRegister(
		OrdersGenerated, EventsGenerated, RefHashOverflows,
		RecordsParsed, SequenceErrors, IllegalMessageTypes,
		ReplayConnectionsActive, ReplayConnectionsTotal, ReplayMessagesSent,
		ReplayDropped, ReplayPublishErrors,
	)
}

// Handler serves this registry's metrics for itchyserv's /metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// DumpText renders the registry's current values in the Prometheus
// text exposition format, for a batch tool to log once at exit.
func DumpText() (string, error) {
	families, err := Registry.Gather()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&sb, mf); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}
