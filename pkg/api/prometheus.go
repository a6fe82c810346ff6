package api

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver exports form and turn metrics to a Prometheus
// registry. Combine it with other observers via NewCompositeObserver.
type PrometheusObserver struct {
	formsStarted   *prometheus.CounterVec
	formsCompleted *prometheus.CounterVec
	formsFailed    *prometheus.CounterVec
	turns          *prometheus.CounterVec
	turnDuration   *prometheus.HistogramVec
}

// NewPrometheusObserver creates a PrometheusObserver and registers its
// collectors with reg. If reg is nil, prometheus.DefaultRegisterer is used.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &PrometheusObserver{
		formsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "formic_forms_started_total",
			Help: "Number of form sessions started.",
		}, []string{"schema"}),
		formsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "formic_forms_completed_total",
			Help: "Number of form sessions submitted successfully.",
		}, []string{"schema"}),
		formsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "formic_forms_failed_total",
			Help: "Number of turns that ended with an error.",
		}, []string{"schema"}),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "formic_turns_total",
			Help: "Number of handled turns by outcome.",
		}, []string{"schema", "outcome"}),
		turnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "formic_turn_duration_seconds",
			Help:    "Wall time spent handling one turn.",
			Buckets: prometheus.DefBuckets,
		}, []string{"schema"}),
	}

	for _, c := range []prometheus.Collector{
		o.formsStarted, o.formsCompleted, o.formsFailed, o.turns, o.turnDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

var _ Observer = (*PrometheusObserver)(nil)

func (o *PrometheusObserver) OnFormStart(ctx context.Context, sess SessionInfo) {
	o.formsStarted.WithLabelValues(sess.Schema).Inc()
}

func (o *PrometheusObserver) OnFormCompleted(ctx context.Context, sess SessionInfo) {
	o.formsCompleted.WithLabelValues(sess.Schema).Inc()
}

func (o *PrometheusObserver) OnFormFailed(ctx context.Context, sess SessionInfo, err error) {
	o.formsFailed.WithLabelValues(sess.Schema).Inc()
}

func (o *PrometheusObserver) OnTurnStart(ctx context.Context, sess SessionInfo, fieldName string, fieldIndex int) {
}

func (o *PrometheusObserver) OnTurnCompleted(ctx context.Context, sess SessionInfo, fieldName string, fieldIndex int, outcome Outcome, err error, d time.Duration) {
	o.turns.WithLabelValues(sess.Schema, string(outcome)).Inc()
	o.turnDuration.WithLabelValues(sess.Schema).Observe(d.Seconds())
}
