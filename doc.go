// Package golpc implements the FLAC-style linear predictive restore kernel
// in pure Go.
//
// A FLAC LPC subframe stores a handful of warm-up samples, a vector of
// quantized predictor coefficients, a quantization shift and one residual
// per remaining sample. Decoding adds the shifted weighted sum of the
// preceding reconstructed samples back onto each residual:
//
//	sum := coeffs[0]*s[i-1] + coeffs[1]*s[i-2] + ... + coeffs[order-1]*s[i-order]
//	if qlevel > 0 {
//		s[i] += sum >> qlevel
//	} else {
//		s[i] += sum << -qlevel
//	}
//
// The sum is accumulated in 64 bits and the result is truncated to int32,
// so every conforming implementation wraps identically.
//
// # Buffer Layout
//
// A Predictor works on one flat []int32. The first order entries are
// history (read only); the next blocksize entries hold residuals on entry
// and reconstructed samples on return:
//
//	samples: [ h(-order) ... h(-1) | r(0) r(1) ... r(blocksize-1) ]
//
// Block wraps a buffer with an explicit history length and RestoreBlock
// validates the call before positioning it; Restore and the Predictor
// implementations assume the caller already did.
//
// # Implementations
//
// Reference is a direct rendition of the filter. Unrolled is the tuned
// kernel used by default: order-specialised loops for common FLAC orders,
// a reversed-coefficient dot product for the rest and a branch-free shift.
// Both must agree bit for bit; the harness package checks exactly that.
//
// # Quantization Shift Zero
//
// qlevel == 0 takes the left-shift path with a shift of zero. That matches
// the decoders this kernel is checked against and is kept for
// bit-compatibility, although it looks like an accident of the "> 0" test
// rather than a deliberate third case.
package golpc
