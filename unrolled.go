package golpc

// Unrolled is the tuned restore kernel. It produces exactly the output of
// Reference; with the purego build tag it is Reference.
type Unrolled struct{}

// Name implements Predictor.
func (Unrolled) Name() string { return "unrolled" }

// Restore implements Predictor.
func (Unrolled) Restore(samples []int32, blocksize, qlevel, order int, coeffs []int32) {
	restoreUnrolled(samples, blocksize, qlevel, order, coeffs)
}

// shiftAmounts splits qlevel into a left and a right shift so that
// (sum << ls) >> rs matches the two-branch form of the filter. qlevel == 0
// yields a left shift of zero.
func shiftAmounts(qlevel int) (ls, rs uint) {
	if qlevel > 0 {
		return 0, uint(qlevel)
	}
	return uint(-qlevel), 0
}
