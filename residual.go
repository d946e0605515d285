package golpc

// Residual is the forward filter: it writes the prediction error of
// samples[order:order+blocksize] into dst[:blocksize]. Restoring a buffer
// whose targets hold dst with the same history, coeffs and qlevel yields
// the original samples exactly, including when int32 arithmetic wraps.
//
// samples is not modified. Preconditions match Predictor.Restore, plus
// len(dst) >= blocksize.
func Residual(dst, samples []int32, blocksize, qlevel, order int, coeffs []int32) {
	if blocksize <= 0 {
		return
	}
	n := order + blocksize
	s := samples[:n:n]
	dst = dst[:blocksize]
	ls, rs := shiftAmounts(qlevel)
	for i := range dst {
		h := s[i : i+order]
		var sum int64
		for j, c := range coeffs[:order] {
			sum += int64(c) * int64(h[order-1-j])
		}
		dst[i] = s[order+i] - int32((sum<<ls)>>rs)
	}
}
