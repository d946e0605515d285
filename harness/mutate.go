package harness

import (
	"strconv"

	"github.com/thesyncim/golpc"
)

// FlipCoefficient wraps p so that coefficient index is negated before every
// call. It is a deliberately wrong predictor used to prove the oracle
// catches divergence. Calls with order <= index pass through unchanged.
func FlipCoefficient(p golpc.Predictor, index int) golpc.Predictor {
	return &flipped{inner: p, index: index}
}

type flipped struct {
	inner golpc.Predictor
	index int
	buf   [golpc.MaxOrder]int32
}

func (f *flipped) Name() string {
	return f.inner.Name() + "-flip" + strconv.Itoa(f.index)
}

func (f *flipped) Restore(samples []int32, blocksize, qlevel, order int, coeffs []int32) {
	if f.index < 0 || f.index >= order || order > golpc.MaxOrder {
		f.inner.Restore(samples, blocksize, qlevel, order, coeffs)
		return
	}
	c := f.buf[:order]
	copy(c, coeffs)
	c[f.index] = -c[f.index]
	f.inner.Restore(samples, blocksize, qlevel, order, c)
}
