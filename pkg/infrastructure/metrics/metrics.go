package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vsinha/oilanalysis/pkg/application/dto"
	"github.com/vsinha/oilanalysis/pkg/domain/entities"
)

// Run statuses
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// RefreshReport labels refresh runs in runs_total
const RefreshReport = "refresh"

// Registry holds the pipeline metrics
type Registry struct {
	reg            *prometheus.Registry
	RowsRead       *prometheus.CounterVec
	Orders         *prometheus.CounterVec
	RecordsWritten *prometheus.CounterVec
	WriteFailures  *prometheus.CounterVec
	RunDuration    *prometheus.HistogramVec
	Runs           *prometheus.CounterVec
}

// New creates a registry with every metric registered
func New() *Registry {
	r := prometheus.NewRegistry()
	rowsRead := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "oilanalysis_rows_read_total"}, []string{"report"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "oilanalysis_orders_total"}, []string{"report", "outcome"})
	written := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "oilanalysis_records_written_total"}, []string{"report"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "oilanalysis_write_failures_total"}, []string{"report"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oilanalysis_run_duration_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"report"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "oilanalysis_runs_total"}, []string{"report", "status"})

	r.MustRegister(rowsRead, orders, written, failures, duration, runs)
	return &Registry{
		reg:            r,
		RowsRead:       rowsRead,
		Orders:         orders,
		RecordsWritten: written,
		WriteFailures:  failures,
		RunDuration:    duration,
		Runs:           runs,
	}
}

// Observe records one report run. A failed run may still carry a partial result.
func (r *Registry) Observe(report entities.ReportKey, result *dto.RunResult, err error) {
	key := string(report)
	status := StatusSuccess
	if err != nil {
		status = StatusFailed
	}
	r.Runs.WithLabelValues(key, status).Inc()
	if result == nil {
		return
	}

	r.RowsRead.WithLabelValues(key).Add(float64(result.RowsRead))
	r.Orders.WithLabelValues(key, entities.Included.String()).Add(float64(result.Included))
	r.Orders.WithLabelValues(key, entities.ExcludedMissingLookup.String()).Add(float64(result.ExcludedMissingLookup))
	r.Orders.WithLabelValues(key, entities.ExcludedByRule.String()).Add(float64(result.ExcludedByRule))
	r.RecordsWritten.WithLabelValues(key).Add(float64(result.Written))
	r.WriteFailures.WithLabelValues(key).Add(float64(len(result.WriteFailures)))
	r.RunDuration.WithLabelValues(key).Observe(result.Duration.Seconds())
}

// ObserveRefresh records one refresh run
func (r *Registry) ObserveRefresh(duration time.Duration, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailed
	}
	r.Runs.WithLabelValues(RefreshReport, status).Inc()
	r.RunDuration.WithLabelValues(RefreshReport).Observe(duration.Seconds())
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
