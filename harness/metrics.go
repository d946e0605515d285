package harness

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	steps       *prometheus.CounterVec
	elapsed     *prometheus.HistogramVec
	improvement *prometheus.GaugeVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lpc",
			Subsystem: "harness",
			Name:      "steps_total",
			Help:      "Sweep steps completed, by oracle result.",
		}, []string{"result"}),
		elapsed: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lpc",
			Subsystem: "harness",
			Name:      "restore_elapsed",
			Help:      "Counter units (cycles or ns) spent in one Restore call.",
			Buckets:   prometheus.ExponentialBuckets(1000, 2, 16),
		}, []string{"implementation"}),
		improvement: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "lpc",
			Subsystem: "harness",
			Name:      "improvement_percent",
			Help:      "Optimized speedup over the reference for the last completed step.",
		}, []string{"order", "qlevel"}),
	}
	if reg == nil {
		return m, nil
	}
	var err error
	if m.steps, err = register(reg, m.steps); err != nil {
		return nil, err
	}
	if m.elapsed, err = register(reg, m.elapsed); err != nil {
		return nil, err
	}
	if m.improvement, err = register(reg, m.improvement); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, reusing an identical collector registered by an
// earlier Harness.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *metrics) observeStep(r StepResult, reference, optimized string) {
	m.steps.WithLabelValues("agree").Inc()
	m.elapsed.WithLabelValues(reference).Observe(float64(r.ReferenceCycles))
	m.elapsed.WithLabelValues(optimized).Observe(float64(r.OptimizedCycles))
	if r.ImprovementOK {
		m.improvement.WithLabelValues(strconv.Itoa(r.Order), strconv.Itoa(r.QLevel)).Set(r.Improvement)
	}
}

func (m *metrics) observeDivergence() {
	m.steps.WithLabelValues("diverge").Inc()
}
