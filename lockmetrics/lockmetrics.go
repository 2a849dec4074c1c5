// Package lockmetrics exports lock events as Prometheus metrics.
package lockmetrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gitlab.com/slon/asynclock/lockopt"
)

// Observer implements lockopt.Observer on top of Prometheus collectors.
// All metrics carry a "lock" label with the lock name.
type Observer struct {
	QueueLength *prometheus.GaugeVec
	Tasks       *prometheus.CounterVec
	WaitTime    *prometheus.HistogramVec
	HoldTime    *prometheus.HistogramVec
	BatchSize   *prometheus.HistogramVec
	BatchJoins  *prometheus.CounterVec
}

var _ lockopt.Observer = (*Observer)(nil)

// New registers the lock collectors in reg under namespace ns.
func New(ns string, reg prometheus.Registerer) *Observer {
	factory := promauto.With(reg)
	return &Observer{
		QueueLength: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: "lock",
			Name:      "queue_length",
			Help:      "Number of tasks waiting for the lock, excluding the running one",
		}, []string{"lock"}),
		Tasks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "lock",
			Name:      "tasks_total",
			Help:      "Number of tasks that held the lock",
		}, []string{"lock"}),
		WaitTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "lock",
			Name:      "wait_seconds",
			Help:      "Time a task spent queued before acquiring the lock",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"lock"}),
		HoldTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "lock",
			Name:      "hold_seconds",
			Help:      "Time a task held the lock",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"lock"}),
		BatchSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "lock",
			Name:      "batch_size",
			Help:      "Number of reads in a batch when it starts",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}, []string{"lock"}),
		BatchJoins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "lock",
			Name:      "batch_joins_total",
			Help:      "Number of reads that joined an existing batch",
		}, []string{"lock", "running"}),
	}
}

func (o *Observer) TaskQueued(lock string, queueLen int) {
	o.QueueLength.WithLabelValues(lock).Set(float64(queueLen))
}

func (o *Observer) TaskStarted(lock string, wait time.Duration) {
	o.QueueLength.WithLabelValues(lock).Dec()
	o.WaitTime.WithLabelValues(lock).Observe(wait.Seconds())
}

func (o *Observer) TaskFinished(lock string, hold time.Duration) {
	o.Tasks.WithLabelValues(lock).Inc()
	o.HoldTime.WithLabelValues(lock).Observe(hold.Seconds())
}

func (o *Observer) BatchStarted(lock string, size int) {
	o.BatchSize.WithLabelValues(lock).Observe(float64(size))
}

func (o *Observer) BatchJoined(lock string, running bool) {
	o.BatchJoins.WithLabelValues(lock, strconv.FormatBool(running)).Inc()
}
