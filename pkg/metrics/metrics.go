// Package metrics exposes pipeline progress as Prometheus metrics.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"sinkhole/pkg/progress"
)

const namespace = "sinkhole"

// Observer is a progress observer that counts events.  It is safe for
// concurrent use.
type Observer struct {
	registry *prometheus.Registry

	bytesRead       *prometheus.CounterVec
	adlistsFinished *prometheus.CounterVec
	adlistsFailed   *prometheus.CounterVec
	whitelisted     *prometheus.CounterVec
	allMatching     *prometheus.CounterVec
	domainsWritten  prometheus.Counter
}

// type check
var _ progress.Observer = (*Observer)(nil)

// NewObserver creates an Observer with its own registry.
func NewObserver() *Observer {
	o := &Observer{
		registry: prometheus.NewRegistry(),
		bytesRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adlist_read_bytes_total",
			Help:      "Bytes read from adlists",
		}, []string{"source"}),
		adlistsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adlist_finished_total",
			Help:      "Adlists read to the end",
		}, []string{"source"}),
		adlistsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adlist_failures_total",
			Help:      "Adlists that could not be read",
		}, []string{"source"}),
		whitelisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "whitelisted_domains_total",
			Help:      "Domains skipped because they are whitelisted",
		}, []string{"source"}),
		allMatching: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "all_matching_lines_total",
			Help:      "Lines skipped because they would match every domain",
		}, []string{"source"}),
		domainsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domains_written_total",
			Help:      "Domains passed to the outputs",
		}),
	}

	o.registry.MustRegister(
		o.bytesRead,
		o.adlistsFinished,
		o.adlistsFailed,
		o.whitelisted,
		o.allMatching,
		o.domainsWritten,
	)

	return o
}

// Registry returns the registry holding the metrics of o.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// Observe implements progress.Observer for *Observer.
func (o *Observer) Observe(e progress.Event) {
	switch e := e.(type) {
	case progress.ReadProgress:
		o.bytesRead.WithLabelValues(e.Source).Add(float64(e.Delta))
	case progress.FinishAdlistRead:
		o.adlistsFinished.WithLabelValues(e.Source).Inc()
	case progress.ReadingAdlistFailed:
		o.adlistsFailed.WithLabelValues(e.Source).Inc()
	case progress.WhitelistedDomainIgnored:
		o.whitelisted.WithLabelValues(e.Source).Inc()
	case progress.AllMatchingLineIgnored:
		o.allMatching.WithLabelValues(e.Source).Inc()
	case progress.DomainWritten:
		o.domainsWritten.Inc()
	}
}

// WriteTextfile writes the metrics to path in the text format read by the
// node exporter's textfile collector.  The file is replaced atomically.
func (o *Observer) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, o.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
