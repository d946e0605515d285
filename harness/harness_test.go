package harness

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/thesyncim/golpc"
	"github.com/thesyncim/golpc/internal/cycles"
)

func newTestHarness(t *testing.T, optimized golpc.Predictor, opts ...Option) (*Harness, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	opts = append([]Option{WithLogger(logger)}, opts...)
	h, err := New(golpc.Reference{}, optimized, opts...)
	require.NoError(t, err)
	return h, hook
}

func TestRunDefaultSweepAgrees(t *testing.T) {
	h, hook := newTestHarness(t, golpc.Unrolled{})

	report, err := h.Run(context.Background())
	require.NoError(t, err)
	require.True(t, report.Passed())
	require.Len(t, report.Steps, 64)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "reference", report.Reference)
	assert.Equal(t, "unrolled", report.Optimized)
	assert.Equal(t, "ns", report.Unit)

	i := 0
	for order := 1; order <= golpc.MaxOrder; order++ {
		for _, q := range []int{-1, 1} {
			s := report.Steps[i]
			assert.Equal(t, order, s.Order)
			assert.Equal(t, q, s.QLevel)
			assert.Equal(t, DefaultBufferSize-order, s.BlockSize)
			i++
		}
	}

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, logrus.InfoLevel, last.Level)
	assert.Equal(t, 64, last.Data["steps"])
}

func TestRunDetectsFlippedCoefficient(t *testing.T) {
	tests := []struct {
		name      string
		index     int
		wantOrder int
	}{
		{"first coefficient", 0, 1},
		{"sixth coefficient", 5, 6},
		{"last coefficient", 31, 32},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, hook := newTestHarness(t, FlipCoefficient(golpc.Unrolled{}, tc.index))

			report, err := h.Run(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDivergence))

			var div *DivergenceError
			require.True(t, errors.As(err, &div))
			assert.Equal(t, tc.wantOrder, div.Order)
			assert.Equal(t, -1, div.QLevel)
			assert.Equal(t, tc.wantOrder, div.Mismatch.Index)
			assert.Equal(t, 0, div.Mismatch.Sample)
			assert.NotEqual(t, div.Mismatch.Reference, div.Mismatch.Optimized)

			require.NotNil(t, report)
			assert.False(t, report.Passed())
			assert.Same(t, div, report.Divergence)
			assert.Len(t, report.Steps, (tc.wantOrder-1)*2)

			last := hook.LastEntry()
			require.NotNil(t, last)
			assert.Equal(t, logrus.ErrorLevel, last.Level)
			assert.Equal(t, tc.wantOrder, last.Data["order"])
		})
	}
}

func TestRunHistoryExactlyOrder(t *testing.T) {
	seen := make(map[[2]int]bool)
	spy := &spyPredictor{
		inner: golpc.Unrolled{},
		check: func(samples []int32, blocksize, qlevel, order int, coeffs []int32) {
			if len(samples) != order+blocksize {
				t.Errorf("order %d: buffer %d, want history+block %d", order, len(samples), order+blocksize)
			}
			if len(coeffs) != order {
				t.Errorf("order %d: %d coefficients", order, len(coeffs))
			}
			for i := 0; i < order; i++ {
				if want := int32(i + DefaultSeedOffset); samples[i] != want {
					t.Errorf("order %d: history[%d] = %d, want %d", order, i, samples[i], want)
				}
			}
			seen[[2]int{order, qlevel}] = true
		},
	}
	h, _ := newTestHarness(t, spy)

	_, err := h.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, seen, 64)
}

func TestRunZeroOptimizedCount(t *testing.T) {
	var calls uint64
	// Per step: ref start, ref end (+100), opt start, opt end (no change).
	counter := cycles.Func(func() uint64 {
		k := calls
		calls++
		base := (k / 4) * 1000
		if k%4 == 0 {
			return base
		}
		return base + 100
	})
	h, _ := newTestHarness(t, golpc.Unrolled{}, WithCounter(counter))

	report, err := h.Run(context.Background())
	require.NoError(t, err)
	for _, s := range report.Steps {
		assert.Equal(t, uint64(100), s.ReferenceCycles)
		assert.Equal(t, uint64(0), s.OptimizedCycles)
		assert.Equal(t, int64(100), s.Savings)
		assert.False(t, s.ImprovementOK)
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteText(&buf))
	assert.Contains(t, buf.String(), "N/A")
	assert.Contains(t, buf.String(), "PASS: 64 steps agree")
}

func TestRunRoundsKeepMinimum(t *testing.T) {
	var calls uint64
	// Elapsed per call shrinks each round: 30, 20, 10 for both predictors.
	const rounds = 3
	counter := cycles.Func(func() uint64 {
		k := calls
		calls++
		round := (k / 4) % rounds
		base := k * 1000
		if k%2 == 0 {
			return base
		}
		return base - 1000 + 30 - 10*round
	})
	cfg := DefaultConfig()
	cfg.Rounds = rounds
	cfg.MaxOrder = 4
	h, _ := newTestHarness(t, golpc.Unrolled{}, WithConfig(cfg), WithCounter(counter))

	report, err := h.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(cfg.Steps()*rounds*4), calls)
	for _, s := range report.Steps {
		assert.Equal(t, uint64(10), s.ReferenceCycles)
		assert.Equal(t, uint64(10), s.OptimizedCycles)
		assert.True(t, s.ImprovementOK)
		assert.Zero(t, s.Improvement)
	}
}

func TestRunMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	h, _ := newTestHarness(t, golpc.Unrolled{}, WithRegisterer(reg))
	_, err := h.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 64.0, testutil.ToFloat64(h.metrics.steps.WithLabelValues("agree")))
	assert.Equal(t, 64, testutil.CollectAndCount(h.metrics.improvement))

	// A second harness on the same registry shares the collectors.
	bad, _ := newTestHarness(t, FlipCoefficient(golpc.Unrolled{}, 0), WithRegisterer(reg))
	_, err = bad.Run(context.Background())
	require.ErrorIs(t, err, ErrDivergence)
	assert.Equal(t, 1.0, testutil.ToFloat64(bad.metrics.steps.WithLabelValues("diverge")))
	assert.Equal(t, 64.0, testutil.ToFloat64(bad.metrics.steps.WithLabelValues("agree")))
}

func TestRunSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	cfg := DefaultConfig()
	cfg.MaxOrder = 3
	h, _ := newTestHarness(t, golpc.Unrolled{}, WithConfig(cfg), WithTracerProvider(tp))
	_, err := h.Run(context.Background())
	require.NoError(t, err)

	ended := sr.Ended()
	require.Len(t, ended, cfg.Steps()+1)
	sweep := ended[len(ended)-1]
	assert.Equal(t, "lpc.sweep", sweep.Name())
	assert.Equal(t, codes.Ok, sweep.Status().Code)
	for _, s := range ended[:len(ended)-1] {
		assert.Equal(t, "lpc.step", s.Name())
		assert.Equal(t, sweep.SpanContext().SpanID(), s.Parent().SpanID())
	}

	sr = tracetest.NewSpanRecorder()
	tp = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	bad, _ := newTestHarness(t, FlipCoefficient(golpc.Unrolled{}, 0), WithConfig(cfg), WithTracerProvider(tp))
	_, err = bad.Run(context.Background())
	require.Error(t, err)
	ended = sr.Ended()
	assert.Equal(t, codes.Error, ended[len(ended)-1].Status().Code)
}

func TestRunCancelled(t *testing.T) {
	h, _ := newTestHarness(t, golpc.Unrolled{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := h.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrDivergence))
	require.NotNil(t, report)
	assert.Empty(t, report.Steps)
	assert.Nil(t, report.Divergence)
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(nil, golpc.Unrolled{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg := DefaultConfig()
	cfg.MaxOrder = 33
	_, err = New(golpc.Reference{}, golpc.Unrolled{}, WithConfig(cfg))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

type spyPredictor struct {
	inner golpc.Predictor
	check func(samples []int32, blocksize, qlevel, order int, coeffs []int32)
}

func (p *spyPredictor) Name() string { return "spy" }

func (p *spyPredictor) Restore(samples []int32, blocksize, qlevel, order int, coeffs []int32) {
	p.check(samples, blocksize, qlevel, order, coeffs)
	p.inner.Restore(samples, blocksize, qlevel, order, coeffs)
}
