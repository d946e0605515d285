package golpc

import "fmt"

// Block is a bounds-checked view over a sample buffer: History() precedes
// the block and Targets() are the samples to reconstruct.
type Block struct {
	samples []int32
	history int
}

// NewBlock splits samples into history and targets at index history.
func NewBlock(samples []int32, history int) (Block, error) {
	if history < 0 || history > len(samples) {
		return Block{}, fmt.Errorf("%w: history %d, buffer %d", ErrShortHistory, history, len(samples))
	}
	if history == len(samples) {
		return Block{}, fmt.Errorf("%w: no targets after %d history samples", ErrInvalidBlockSize, history)
	}
	return Block{samples: samples, history: history}, nil
}

// History returns the samples preceding the block.
func (b Block) History() []int32 { return b.samples[:b.history:b.history] }

// Targets returns the samples to be reconstructed.
func (b Block) Targets() []int32 { return b.samples[b.history:] }

// Len returns the number of targets.
func (b Block) Len() int { return len(b.samples) - b.history }

// Samples returns the whole underlying buffer.
func (b Block) Samples() []int32 { return b.samples }

// RestoreBlock validates the call and runs p over the block. Only the last
// len(coeffs) history samples are read.
func RestoreBlock(p Predictor, b Block, qlevel int, coeffs []int32) error {
	order := len(coeffs)
	if order > b.history {
		return fmt.Errorf("%w: order %d, history %d", ErrShortHistory, order, b.history)
	}
	window := b.samples[b.history-order:]
	params := Params{BlockSize: b.Len(), QLevel: qlevel, Order: order}
	if err := params.Validate(window, coeffs); err != nil {
		return err
	}
	p.Restore(window, params.BlockSize, qlevel, order, coeffs)
	return nil
}
