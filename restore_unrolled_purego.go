//go:build purego

package golpc

// restoreUnrolled is the portable kernel for purego builds.
func restoreUnrolled(samples []int32, blocksize, qlevel, order int, coeffs []int32) {
	restoreReference(samples, blocksize, qlevel, order, coeffs)
}
