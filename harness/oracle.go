package harness

import (
	"errors"
	"fmt"
)

// ErrDivergence matches every *DivergenceError.
var ErrDivergence = errors.New("harness: reference and optimized outputs diverge")

// Compare reports whether a and b hold identical samples. When they do not,
// index is the first position that differs (or the shorter length when one
// is a prefix of the other).
func Compare(a, b []int32) (index int, equal bool) {
	n := min(len(a), len(b))
	a, b = a[:n], b[:n]
	for i := range a {
		if a[i] != b[i] {
			return i, false
		}
	}
	if len(a) != len(b) {
		return n, false
	}
	return -1, true
}

// Mismatch is the first disagreeing sample of a step.
type Mismatch struct {
	// Index is the position in the sample buffer.
	Index int
	// Sample is Index relative to the first target; negative values are
	// history samples the kernel must not have written.
	Sample    int
	Reference int32
	Optimized int32
}

func newMismatch(ref, opt []int32, index, order int) Mismatch {
	m := Mismatch{Index: index, Sample: index - order}
	if index < len(ref) {
		m.Reference = ref[index]
	}
	if index < len(opt) {
		m.Optimized = opt[index]
	}
	return m
}

// DivergenceError is returned by Run when the optimized predictor disagrees
// with the reference. No performance figure is recorded for that step.
type DivergenceError struct {
	Reference string
	Optimized string
	Order     int
	QLevel    int
	BlockSize int
	Round     int
	Mismatch  Mismatch
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("harness: %s diverges from %s at order %d qlevel %d: sample %d (buffer index %d) reference=%d optimized=%d",
		e.Optimized, e.Reference, e.Order, e.QLevel,
		e.Mismatch.Sample, e.Mismatch.Index, e.Mismatch.Reference, e.Mismatch.Optimized)
}

// Is makes errors.Is(err, ErrDivergence) true.
func (e *DivergenceError) Is(target error) bool { return target == ErrDivergence }
