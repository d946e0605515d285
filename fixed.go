package golpc

import "fmt"

// MaxFixedOrder is the highest FLAC fixed predictor order.
const MaxFixedOrder = 4

// fixedCoeffs are the FLAC fixed predictors written as LPC coefficient
// vectors. They are used with qlevel 0.
var fixedCoeffs = [MaxFixedOrder + 1][]int32{
	{},
	{1},
	{2, -1},
	{3, -3, 1},
	{4, -6, 4, -1},
}

// FixedCoefficients returns a fresh copy of the fixed predictor of the
// given order. Restoring with these coefficients and qlevel 0 decodes a
// FLAC SUBFRAME_FIXED.
func FixedCoefficients(order int) ([]int32, error) {
	if order < 0 || order > MaxFixedOrder {
		return nil, fmt.Errorf("%w: fixed order %d (must be 0-%d)", ErrInvalidOrder, order, MaxFixedOrder)
	}
	out := make([]int32, len(fixedCoeffs[order]))
	copy(out, fixedCoeffs[order])
	return out, nil
}
