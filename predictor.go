package golpc

import (
	"fmt"
	"sort"
)

const (
	// MaxOrder is the largest predictor order FLAC allows.
	MaxOrder = 32

	// MinShift and MaxShift bound the quantization shift. FLAC stores it as
	// a 5-bit two's-complement field.
	MinShift = -16
	MaxShift = 15
)

// Predictor restores one block of samples in place.
//
// samples[0:order] holds history and samples[order:order+blocksize] holds
// residuals that are replaced by reconstructed samples. Implementations
// must not touch anything else, must not allocate and must produce the
// same output as Reference for every input.
type Predictor interface {
	Name() string
	Restore(samples []int32, blocksize, qlevel, order int, coeffs []int32)
}

// Params are the per-call decode parameters.
type Params struct {
	BlockSize int
	QLevel    int
	Order     int
}

// Validate reports whether a Restore call with p over samples and coeffs
// stays within the buffer. samples is laid out as for Predictor.Restore.
func (p Params) Validate(samples []int32, coeffs []int32) error {
	if p.Order < 0 || p.Order > MaxOrder {
		return fmt.Errorf("%w: got %d", ErrInvalidOrder, p.Order)
	}
	if p.BlockSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBlockSize, p.BlockSize)
	}
	if p.QLevel < MinShift || p.QLevel > MaxShift {
		return fmt.Errorf("%w: got %d", ErrInvalidShift, p.QLevel)
	}
	if len(coeffs) != p.Order {
		return fmt.Errorf("%w: have %d, order %d", ErrCoefficientCount, len(coeffs), p.Order)
	}
	if need := p.Order + p.BlockSize; len(samples) < need {
		return fmt.Errorf("%w: have %d samples, need %d", ErrBufferTooSmall, len(samples), need)
	}
	return nil
}

// Default is the predictor used by Restore and RestoreBlock.
var Default Predictor = Unrolled{}

// Restore reconstructs blocksize samples in place with the default predictor.
// Preconditions are not checked; see Params.Validate.
func Restore(samples []int32, blocksize, qlevel, order int, coeffs []int32) {
	Default.Restore(samples, blocksize, qlevel, order, coeffs)
}

var registry = map[string]Predictor{
	Reference{}.Name(): Reference{},
	Unrolled{}.Name():  Unrolled{},
}

// Predictors returns the registered predictors sorted by name.
func Predictors() []Predictor {
	out := make([]Predictor, 0, len(registry))
	for _, p := range registry {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// LookupPredictor returns the registered predictor with the given name.
func LookupPredictor(name string) (Predictor, error) {
	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPredictor, name)
	}
	return p, nil
}
