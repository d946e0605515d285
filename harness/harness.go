// Package harness cross-checks two golpc.Predictor implementations over a
// sweep of predictor orders and quantization shifts, and measures how long
// each one takes with a cycle counter.
//
// Every step seeds two buffers identically, times the reference and then
// the optimized predictor on them, and compares the buffers sample by
// sample. The first mismatch ends the run with a *DivergenceError; a
// predictor that disagrees with the reference is never timed again.
package harness

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/thesyncim/golpc"
	"github.com/thesyncim/golpc/internal/cycles"
	"github.com/thesyncim/golpc/internal/testsignal"
)

const tracerName = "github.com/thesyncim/golpc/harness"

// Harness drives one reference and one optimized predictor through a sweep.
// It is not safe for concurrent use.
type Harness struct {
	cfg       Config
	reference golpc.Predictor
	optimized golpc.Predictor

	log        *logrus.Logger
	counter    cycles.Counter
	registerer prometheus.Registerer
	tracer     trace.Tracer

	metrics *metrics
	coeffs  []int32
}

// Option configures a Harness.
type Option func(*Harness)

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(h *Harness) { h.cfg = cfg }
}

// WithLogger sets the logger used for step and summary output.
func WithLogger(log *logrus.Logger) Option {
	return func(h *Harness) { h.log = log }
}

// WithCounter sets the counter read around each Restore call. The harness
// does not close it.
func WithCounter(c cycles.Counter) Option {
	return func(h *Harness) { h.counter = c }
}

// WithRegisterer registers the harness metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(h *Harness) { h.registerer = reg }
}

// WithTracerProvider sets the provider for sweep and step spans. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(h *Harness) { h.tracer = tp.Tracer(tracerName) }
}

// New returns a Harness comparing optimized against reference.
func New(reference, optimized golpc.Predictor, opts ...Option) (*Harness, error) {
	if reference == nil || optimized == nil {
		return nil, fmt.Errorf("%w: nil predictor", ErrInvalidConfig)
	}
	h := &Harness{
		cfg:       DefaultConfig(),
		reference: reference,
		optimized: optimized,
	}
	for _, opt := range opts {
		opt(h)
	}
	if err := h.cfg.Validate(); err != nil {
		return nil, err
	}
	if h.log == nil {
		h.log = logrus.StandardLogger()
	}
	if h.counter == nil {
		h.counter = cycles.NewMonotonic()
	}
	if h.tracer == nil {
		h.tracer = otel.GetTracerProvider().Tracer(tracerName)
	}
	m, err := newMetrics(h.registerer)
	if err != nil {
		return nil, fmt.Errorf("harness: register metrics: %w", err)
	}
	h.metrics = m
	h.coeffs = testsignal.RampCoefficients(golpc.MaxOrder)
	return h, nil
}

// Config returns the sweep configuration in use.
func (h *Harness) Config() Config { return h.cfg }

// Run executes the sweep. On divergence it returns the partial report
// together with a *DivergenceError; report.Divergence is set as well.
func (h *Harness) Run(ctx context.Context) (*Report, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	report := &Report{
		RunID:     uuid.NewString(),
		Reference: h.reference.Name(),
		Optimized: h.optimized.Name(),
		Unit:      h.counter.Unit(),
		Features:  cycles.Features(),
		Steps:     make([]StepResult, 0, h.cfg.Steps()),
	}
	log := h.log.WithFields(logrus.Fields{
		"run_id":    report.RunID,
		"reference": report.Reference,
		"optimized": report.Optimized,
		"unit":      report.Unit,
	})

	ctx, span := h.tracer.Start(ctx, "lpc.sweep", trace.WithAttributes(
		attribute.String("lpc.run_id", report.RunID),
		attribute.String("lpc.reference", report.Reference),
		attribute.String("lpc.optimized", report.Optimized),
		attribute.Int("lpc.steps", h.cfg.Steps()),
	))
	defer span.End()

	log.WithFields(logrus.Fields{
		"orders":      fmt.Sprintf("%d..%d", h.cfg.MinOrder, h.cfg.MaxOrder),
		"qlevels":     h.cfg.QLevels,
		"buffer_size": h.cfg.BufferSize,
		"rounds":      h.cfg.Rounds,
		"cpu":         report.Features,
	}).Info("Starting predictor sweep")

	started := time.Now()
	bufA := make([]int32, h.cfg.BufferSize)
	bufB := make([]int32, h.cfg.BufferSize)

	for order := h.cfg.MinOrder; order <= h.cfg.MaxOrder; order++ {
		for _, qlevel := range h.cfg.QLevels {
			if err := ctx.Err(); err != nil {
				report.Elapsed = time.Since(started)
				span.RecordError(err)
				span.SetStatus(codes.Error, "sweep cancelled")
				return report, err
			}
			res, err := h.step(ctx, order, qlevel, bufA, bufB)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "step failed")
				report.Elapsed = time.Since(started)

				var div *DivergenceError
				if errors.As(err, &div) {
					report.Divergence = div
					h.metrics.observeDivergence()
					log.WithFields(logrus.Fields{
						"order":        div.Order,
						"qlevel":       div.QLevel,
						"round":        div.Round,
						"index":        div.Mismatch.Index,
						"sample":       div.Mismatch.Sample,
						"ref_value":    div.Mismatch.Reference,
						"opt_value":    div.Mismatch.Optimized,
						"steps_passed": len(report.Steps),
					}).Error("Optimized predictor diverged from reference; stopping sweep")
				}
				return report, err
			}
			report.Steps = append(report.Steps, res)
			h.metrics.observeStep(res, report.Reference, report.Optimized)

			log.WithFields(logrus.Fields{
				"order":           res.Order,
				"qlevel":          res.QLevel,
				"blocksize":       res.BlockSize,
				"reference_count": res.ReferenceCycles,
				"optimized_count": res.OptimizedCycles,
				"savings":         res.Savings,
				"ratio":           FormatRatio(res.Ratio, res.ImprovementOK),
				"improvement":     FormatImprovement(res.Improvement, res.ImprovementOK),
			}).Debug("Step agrees")
		}
	}

	report.Elapsed = time.Since(started)
	refTotal, optTotal := report.Totals()
	pct, ok := Improvement(refTotal, optTotal)
	ratio, _ := Ratio(refTotal, optTotal)
	span.SetStatus(codes.Ok, "")
	log.WithFields(logrus.Fields{
		"steps":           len(report.Steps),
		"reference_total": refTotal,
		"optimized_total": optTotal,
		"savings":         Savings(refTotal, optTotal),
		"ratio":           FormatRatio(ratio, ok),
		"improvement":     FormatImprovement(pct, ok),
		"elapsed":         report.Elapsed.String(),
	}).Info("Sweep complete; all steps agree")
	return report, nil
}

// step runs one (order, qlevel) combination. bufA and bufB are fully
// re-seeded before every round, so nothing carries over between steps.
func (h *Harness) step(ctx context.Context, order, qlevel int, bufA, bufB []int32) (StepResult, error) {
	_, span := h.tracer.Start(ctx, "lpc.step", trace.WithAttributes(
		attribute.Int("lpc.order", order),
		attribute.Int("lpc.qlevel", qlevel),
	))
	defer span.End()

	blocksize := len(bufA) - order
	coeffs := h.coeffs[:order]
	params := golpc.Params{BlockSize: blocksize, QLevel: qlevel, Order: order}
	if err := params.Validate(bufA, coeffs); err != nil {
		return StepResult{}, err
	}
	if len(bufB) != len(bufA) {
		return StepResult{}, fmt.Errorf("%w: buffers differ in length (%d vs %d)", ErrInvalidConfig, len(bufA), len(bufB))
	}

	res := StepResult{Order: order, QLevel: qlevel, BlockSize: blocksize}
	for round := 0; round < h.cfg.Rounds; round++ {
		testsignal.FillRamp(bufA, h.cfg.SeedOffset)
		testsignal.FillRamp(bufB, h.cfg.SeedOffset)

		refCount := h.timeRestore(h.reference, bufA, blocksize, qlevel, order, coeffs)
		optCount := h.timeRestore(h.optimized, bufB, blocksize, qlevel, order, coeffs)

		if idx, equal := Compare(bufA, bufB); !equal {
			return StepResult{}, &DivergenceError{
				Reference: h.reference.Name(),
				Optimized: h.optimized.Name(),
				Order:     order,
				QLevel:    qlevel,
				BlockSize: blocksize,
				Round:     round,
				Mismatch:  newMismatch(bufA, bufB, idx, order),
			}
		}
		if round == 0 || refCount < res.ReferenceCycles {
			res.ReferenceCycles = refCount
		}
		if round == 0 || optCount < res.OptimizedCycles {
			res.OptimizedCycles = optCount
		}
	}
	res.Savings = Savings(res.ReferenceCycles, res.OptimizedCycles)
	res.Ratio, _ = Ratio(res.ReferenceCycles, res.OptimizedCycles)
	res.Improvement, res.ImprovementOK = Improvement(res.ReferenceCycles, res.OptimizedCycles)
	span.SetAttributes(
		attribute.Int64("lpc.reference_count", int64(res.ReferenceCycles)),
		attribute.Int64("lpc.optimized_count", int64(res.OptimizedCycles)),
		attribute.Int64("lpc.savings", res.Savings),
	)
	return res, nil
}

// timeRestore reads the counter directly around the call. A counter that
// steps backwards yields zero.
func (h *Harness) timeRestore(p golpc.Predictor, buf []int32, blocksize, qlevel, order int, coeffs []int32) uint64 {
	start := h.counter.Read()
	p.Restore(buf, blocksize, qlevel, order, coeffs)
	end := h.counter.Read()
	if end < start {
		return 0
	}
	return end - start
}
