package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// Metrics provides observability for the inventory module.
// Tracks unit writes, validation rejections, expiry sweeps and summary cache efficiency.
type Metrics struct {
	UnitsRegistered     prometheus.Counter
	UnitsUsed           prometheus.Counter
	UnitsExpired        prometheus.Counter
	ValidationRejected  *prometheus.CounterVec
	SummaryCacheResults *prometheus.CounterVec
	RegisterDuration    prometheus.Histogram
	SummaryDuration     prometheus.Histogram
	SweepDuration       prometheus.Histogram
}

// New creates a Metrics instance registered with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the inventory metrics with reg. Tests pass a
// fresh prometheus.NewRegistry() to avoid duplicate registration panics.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		UnitsRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "bloodbank_units_registered_total",
			Help: "Total number of blood units registered",
		}),
		UnitsUsed: f.NewCounter(prometheus.CounterOpts{
			Name: "bloodbank_units_used_total",
			Help: "Total number of blood units marked used",
		}),
		UnitsExpired: f.NewCounter(prometheus.CounterOpts{
			Name: "bloodbank_units_expired_total",
			Help: "Total number of blood units retired by the expiry sweep",
		}),
		ValidationRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodbank_validation_rejected_total",
			Help: "Blood unit writes rejected by validation, by error code",
		}, []string{"code"}),
		SummaryCacheResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodbank_summary_cache_results_total",
			Help: "Stock summary cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
		RegisterDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bloodbank_register_unit_duration_seconds",
			Help:    "Duration of RegisterUnit operations",
			Buckets: durationBuckets,
		}),
		SummaryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bloodbank_stock_summary_duration_seconds",
			Help:    "Duration of StockSummary operations",
			Buckets: durationBuckets,
		}),
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bloodbank_expiry_sweep_duration_seconds",
			Help:    "Duration of expiry sweeps",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}),
	}
}

func (m *Metrics) IncrementUnitsRegistered() {
	m.UnitsRegistered.Inc()
}

func (m *Metrics) IncrementUnitsUsed() {
	m.UnitsUsed.Inc()
}

func (m *Metrics) AddUnitsExpired(n int) {
	m.UnitsExpired.Add(float64(n))
}

// IncrementValidationRejected records a write rejected with the given error code.
func (m *Metrics) IncrementValidationRejected(code string) {
	m.ValidationRejected.WithLabelValues(code).Inc()
}

func (m *Metrics) IncrementSummaryCacheHit() {
	m.SummaryCacheResults.WithLabelValues("hit").Inc()
}

func (m *Metrics) IncrementSummaryCacheMiss() {
	m.SummaryCacheResults.WithLabelValues("miss").Inc()
}

func (m *Metrics) IncrementSummaryCacheError() {
	m.SummaryCacheResults.WithLabelValues("error").Inc()
}

// ObserveRegisterUnit records the duration of a RegisterUnit operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRegisterUnit(start time.Time) {
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}

// ObserveStockSummary records the duration of a StockSummary operation.
func (m *Metrics) ObserveStockSummary(start time.Time) {
	m.SummaryDuration.Observe(time.Since(start).Seconds())
}

// ObserveSweep records the duration of one expiry sweep.
func (m *Metrics) ObserveSweep(start time.Time) {
	m.SweepDuration.Observe(time.Since(start).Seconds())
}
