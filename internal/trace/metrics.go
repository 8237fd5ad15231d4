package trace

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jroosing/dnstrace/internal/dns"
)

const metricsNamespace = "dnstrace"

// Metrics exports dispatcher activity as Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	frames   prometheus.Counter
	matched  prometheus.Counter
	errors   *prometheus.CounterVec
	messages *prometheus.CounterVec
	records  *prometheus.CounterVec
	rcodes   *prometheus.CounterVec
	payload  prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "frames_total",
			Help:      "Frames handed to the dispatcher.",
		}),
		matched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dns_frames_total",
			Help:      "Frames carrying a UDP payload from the DNS port.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "errors_total",
			Help:      "Frames that failed dissection or decoding, by stage and error kind.",
		}, []string{"stage", "kind"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "messages_total",
			Help:      "Published DNS messages by direction.",
		}, []string{"direction"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_total",
			Help:      "Decoded resource records by type.",
		}, []string{"type"}),
		rcodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "responses_total",
			Help:      "Published responses by rcode.",
		}, []string{"rcode"}),
		payload: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "payload_bytes",
			Help:      "Size of DNS payloads.",
			Buckets:   prometheus.ExponentialBuckets(32, 2, 8),
		}),
	}

	for _, c := range []prometheus.Collector{m.frames, m.matched, m.errors, m.messages, m.records, m.rcodes, m.payload} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeFrame() {
	if m == nil {
		return
	}
	m.frames.Inc()
}

func (m *Metrics) observeMatch(payloadLen int) {
	if m == nil {
		return
	}
	m.matched.Inc()
	m.payload.Observe(float64(payloadLen))
}

func (m *Metrics) observeError(stage, kind string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(stage, kind).Inc()
}

func (m *Metrics) observeMessage(msg dns.Message) {
	if m == nil {
		return
	}
	if msg.Header.IsResponse() {
		m.messages.WithLabelValues("response").Inc()
		m.rcodes.WithLabelValues(msg.Header.RCode().String()).Inc()
	} else {
		m.messages.WithLabelValues("query").Inc()
	}
	for _, rr := range msg.Records() {
		m.records.WithLabelValues(rr.Type.String()).Inc()
	}
}
