package golpc

// Reference is the portable restore kernel. It is the literal form of the
// filter and the oracle every other Predictor is checked against.
type Reference struct{}

// Name implements Predictor.
func (Reference) Name() string { return "reference" }

// Restore implements Predictor.
func (Reference) Restore(samples []int32, blocksize, qlevel, order int, coeffs []int32) {
	restoreReference(samples, blocksize, qlevel, order, coeffs)
}

func restoreReference(samples []int32, blocksize, qlevel, order int, coeffs []int32) {
	data := samples[order:]
	for i := 0; i < blocksize; i++ {
		var sum int64
		for j := 0; j < order; j++ {
			sum += int64(coeffs[j]) * int64(samples[order+i-j-1])
		}
		// qlevel == 0 lands in the left-shift branch on purpose.
		if qlevel > 0 {
			data[i] += int32(sum >> uint(qlevel))
		} else {
			data[i] += int32(sum << uint(-qlevel))
		}
	}
}
