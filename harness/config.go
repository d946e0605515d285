package harness

import (
	"errors"
	"fmt"

	"github.com/thesyncim/golpc"
)

// DefaultBufferSize and DefaultSeedOffset reproduce the classic sweep: a
// 4000-sample buffer seeded with buffer[i] = i + 10.
const (
	DefaultBufferSize = 4000
	DefaultSeedOffset = 10
)

// ErrInvalidConfig indicates a sweep configuration that cannot run.
var ErrInvalidConfig = errors.New("harness: invalid config")

// Config describes the sweep. Orders run from MinOrder to MaxOrder
// inclusive (outer loop) and QLevels in the given order (inner loop).
type Config struct {
	MinOrder int
	MaxOrder int
	QLevels  []int

	// BufferSize is the length of each sample buffer. Every step restores
	// BufferSize-order samples after exactly order history samples.
	BufferSize int

	// SeedOffset seeds both buffers with buffer[i] = i + SeedOffset.
	SeedOffset int32

	// Rounds repeats each measurement with freshly seeded buffers and keeps
	// the lowest count per implementation.
	Rounds int
}

// DefaultConfig sweeps orders 1..32 with qlevel -1 and +1 over
// DefaultBufferSize samples seeded with DefaultSeedOffset.
func DefaultConfig() Config {
	return Config{
		MinOrder:   1,
		MaxOrder:   golpc.MaxOrder,
		QLevels:    []int{-1, 1},
		BufferSize: DefaultBufferSize,
		SeedOffset: DefaultSeedOffset,
		Rounds:     1,
	}
}

// Validate checks that every step of the sweep is a well-formed Restore call.
func (c Config) Validate() error {
	if c.MinOrder < 1 || c.MaxOrder > golpc.MaxOrder || c.MinOrder > c.MaxOrder {
		return fmt.Errorf("%w: orders %d..%d (must be within 1..%d)", ErrInvalidConfig, c.MinOrder, c.MaxOrder, golpc.MaxOrder)
	}
	if len(c.QLevels) == 0 {
		return fmt.Errorf("%w: no qlevels", ErrInvalidConfig)
	}
	for _, q := range c.QLevels {
		if q < golpc.MinShift || q > golpc.MaxShift {
			return fmt.Errorf("%w: qlevel %d (must be %d..%d)", ErrInvalidConfig, q, golpc.MinShift, golpc.MaxShift)
		}
	}
	if c.BufferSize <= c.MaxOrder {
		return fmt.Errorf("%w: buffer size %d leaves no block after order %d", ErrInvalidConfig, c.BufferSize, c.MaxOrder)
	}
	if c.Rounds < 1 {
		return fmt.Errorf("%w: rounds %d (must be >= 1)", ErrInvalidConfig, c.Rounds)
	}
	return nil
}

// Steps returns the number of (order, qlevel) combinations in the sweep.
func (c Config) Steps() int {
	return (c.MaxOrder - c.MinOrder + 1) * len(c.QLevels)
}
