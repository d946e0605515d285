// Package testsignal builds deterministic sample buffers, coefficient
// vectors and synthetic signals for restore-kernel tests and sweeps.
package testsignal

// FillRamp seeds dst with dst[i] = i + offset.
func FillRamp(dst []int32, offset int32) {
	for i := range dst {
		dst[i] = int32(i) + offset
	}
}

// Ramp returns a new buffer of n ramp samples starting at offset.
func Ramp(n int, offset int32) []int32 {
	out := make([]int32, n)
	FillRamp(out, offset)
	return out
}

// RampCoefficients returns n coefficients where the k-th (1-indexed) is k.
func RampCoefficients(n int) []int32 {
	out := make([]int32, n)
	for k := range out {
		out[k] = int32(k + 1)
	}
	return out
}

// NoiseCoefficients returns n coefficients in [-(2^(precision-1)), 2^(precision-1))
// derived from DeterministicNoise. precision is clamped to 1..15, the FLAC
// coefficient precision range.
func NoiseCoefficients(n, precision, salt int) []int32 {
	if precision < 1 {
		precision = 1
	}
	if precision > 15 {
		precision = 15
	}
	scale := float64(int32(1) << (precision - 1))
	out := make([]int32, n)
	for k := range out {
		v := int32(DeterministicNoise(k, salt) * scale)
		if v >= int32(scale) {
			v = int32(scale) - 1
		}
		out[k] = v
	}
	return out
}
