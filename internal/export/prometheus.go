package export

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ticos-sdk/go-ticos/internal/protocol"
)

// PrometheusObserver implements protocol.Observer (re-exported as the
// root package's Observer) by registering the same counters
// Metrics.Snapshot exposes as Prometheus collectors, proving the
// Observer interface isn't a single-implementation abstraction: anything
// satisfying protocol.Observer (MetricsObserver, this, or a caller's own
// type) is interchangeable at every A-M
// component's call site.
//
// There is no original-firmware analogue for this file: the C SDK has no
// Prometheus client, since it targets resource-constrained devices, not a
// process with an HTTP metrics endpoint. It is grounded instead on the
// domain-dependency convention the wider example pack shows for exposing
// an Observer-shaped interface to a metrics backend.
type PrometheusObserver struct {
	msgTypeLabel func(protocol.MessageType) string

	eventsStored      prometheus.Counter
	eventsDropped     *prometheus.CounterVec
	chunksEmitted     *prometheus.CounterVec
	chunkBytesSent    *prometheus.CounterVec
	readFailures      *prometheus.CounterVec
	coredumpsSaved    prometheus.Counter
	coredumpsTruncated prometheus.Counter
	reboots           *prometheus.CounterVec
	crashCount        prometheus.Gauge
	logsDropped       prometheus.Counter
}

// NewPrometheusObserver creates and registers every collector against reg.
// Pass prometheus.NewRegistry() in tests to avoid polluting the global
// default registry; production callers typically pass
// prometheus.DefaultRegisterer.
func NewPrometheusObserver(reg prometheus.Registerer, namespace string) *PrometheusObserver {
	o := &PrometheusObserver{msgTypeLabel: messageTypeLabel}

	o.eventsStored = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "events_stored_total",
		Help: "Events successfully reserved and committed to the event ring.",
	})
	o.eventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "events_dropped_total",
		Help: "Events dropped, labeled by error taxonomy code.",
	}, []string{"code"})
	o.chunksEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "chunks_emitted_total",
		Help: "Chunks handed to a transport, labeled by message type.",
	}, []string{"message_type"})
	o.chunkBytesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "chunk_bytes_sent_total",
		Help: "Bytes handed to a transport, labeled by message type.",
	}, []string{"message_type"})
	o.readFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "read_failures_total",
		Help: "Mid-chunk data-source read failures, labeled by message type.",
	}, []string{"message_type"})
	o.coredumpsSaved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "coredumps_saved_total",
		Help: "Coredump save passes that committed a valid footer.",
	})
	o.coredumpsTruncated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "coredumps_truncated_total",
		Help: "Coredump saves that ran out of storage and were truncated.",
	})
	o.reboots = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "reboots_total",
		Help: "Classified reboots, labeled by expected/unexpected.",
	}, []string{"expected"})
	o.crashCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "crash_count",
		Help: "Current saturating consecutive-unexpected-reboot counter.",
	})
	o.logsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "logs_dropped_total",
		Help: "Log messages dropped because a snapshot held the ring.",
	})

	reg.MustRegister(o.eventsStored, o.eventsDropped, o.chunksEmitted, o.chunkBytesSent,
		o.readFailures, o.coredumpsSaved, o.coredumpsTruncated, o.reboots, o.crashCount, o.logsDropped)

	return o
}

func messageTypeLabel(t protocol.MessageType) string {
	switch t {
	case protocol.MessageTypeCoredump:
		return "coredump"
	case protocol.MessageTypeEvent:
		return "event"
	case protocol.MessageTypeLog:
		return "log"
	case protocol.MessageTypeCDR:
		return "cdr"
	default:
		return "none"
	}
}

func (o *PrometheusObserver) ObserveEventStored(size int) {
	o.eventsStored.Inc()
}

func (o *PrometheusObserver) ObserveEventDropped(reason protocol.Code) {
	o.eventsDropped.WithLabelValues(string(reason)).Inc()
}

func (o *PrometheusObserver) ObserveChunkEmitted(msgType protocol.MessageType, bytes int) {
	label := o.msgTypeLabel(msgType)
	o.chunksEmitted.WithLabelValues(label).Inc()
	o.chunkBytesSent.WithLabelValues(label).Add(float64(bytes))
}

func (o *PrometheusObserver) ObserveReadFailure(msgType protocol.MessageType) {
	o.readFailures.WithLabelValues(o.msgTypeLabel(msgType)).Inc()
}

func (o *PrometheusObserver) ObserveCoredumpSaved(totalSize int, truncated bool) {
	o.coredumpsSaved.Inc()
	if truncated {
		o.coredumpsTruncated.Inc()
	}
}

func (o *PrometheusObserver) ObserveReboot(unexpected bool, crashCount uint8) {
	if unexpected {
		o.reboots.WithLabelValues("true").Inc()
	} else {
		o.reboots.WithLabelValues("false").Inc()
	}
	o.crashCount.Set(float64(crashCount))
}

func (o *PrometheusObserver) ObserveLogsDropped(n int) {
	o.logsDropped.Add(float64(n))
}

var _ protocol.Observer = (*PrometheusObserver)(nil)
