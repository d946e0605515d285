// errors.go defines public error types for the golpc package.

package golpc

import "errors"

// Precondition errors returned by Params.Validate and RestoreBlock.
// The kernels themselves never return errors; these describe inputs that
// would make a Restore call read or write outside its buffer.
var (
	// ErrInvalidOrder indicates a predictor order outside 0..MaxOrder.
	ErrInvalidOrder = errors.New("golpc: invalid predictor order (must be 0-32)")

	// ErrInvalidBlockSize indicates a non-positive block size.
	ErrInvalidBlockSize = errors.New("golpc: invalid block size (must be > 0)")

	// ErrInvalidShift indicates a quantization shift outside MinShift..MaxShift.
	ErrInvalidShift = errors.New("golpc: invalid quantization shift (must be -16 to 15)")

	// ErrCoefficientCount indicates the coefficient vector length does not
	// match the predictor order.
	ErrCoefficientCount = errors.New("golpc: coefficient count does not match order")

	// ErrShortHistory indicates fewer than order samples precede the block.
	ErrShortHistory = errors.New("golpc: insufficient history before block")

	// ErrBufferTooSmall indicates the sample buffer cannot hold history plus
	// blocksize targets.
	ErrBufferTooSmall = errors.New("golpc: sample buffer too small")

	// ErrUnknownPredictor indicates a predictor name not present in the registry.
	ErrUnknownPredictor = errors.New("golpc: unknown predictor")
)
