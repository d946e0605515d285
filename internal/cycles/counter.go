// Package cycles provides the elapsed-time counters the harness reads
// around each kernel call: the CPU cycle counter where the platform exposes
// one, and a monotonic nanosecond clock otherwise.
package cycles

import (
	"errors"
	"fmt"
	"time"
)

// Counter kinds accepted by Open.
const (
	KindAuto      = "auto"
	KindPerf      = "perf"
	KindMonotonic = "monotonic"
)

var (
	// ErrUnavailable indicates the requested counter cannot be opened here.
	ErrUnavailable = errors.New("cycles: counter unavailable")

	// ErrUnknownKind indicates an unrecognised counter kind.
	ErrUnknownKind = errors.New("cycles: unknown counter kind")
)

// Counter is a monotonically increasing counter cheap enough to read
// immediately before and after a kernel call.
type Counter interface {
	// Read returns the current count.
	Read() uint64
	// Unit names what one count measures, e.g. "cycles" or "ns".
	Unit() string
	Close() error
}

// Open returns a counter of the given kind. KindAuto prefers the hardware
// cycle counter and falls back to the monotonic clock.
//
// The perf counter measures the OS thread that opened it; callers should
// hold runtime.LockOSThread from Open until the last Read.
func Open(kind string) (Counter, error) {
	switch kind {
	case KindPerf:
		return openPerf()
	case KindMonotonic:
		return NewMonotonic(), nil
	case KindAuto, "":
		if c, err := openPerf(); err == nil {
			return c, nil
		}
		return NewMonotonic(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Monotonic counts nanoseconds on the runtime's monotonic clock.
type Monotonic struct {
	base time.Time
}

// NewMonotonic returns a Monotonic counter starting near zero.
func NewMonotonic() *Monotonic {
	return &Monotonic{base: time.Now()}
}

func (m *Monotonic) Read() uint64 { return uint64(time.Since(m.base)) }

func (m *Monotonic) Unit() string { return "ns" }

func (m *Monotonic) Close() error { return nil }

// Func adapts a function to Counter. Tests use it to script readings.
type Func func() uint64

func (f Func) Read() uint64 { return f() }

func (f Func) Unit() string { return "ticks" }

func (f Func) Close() error { return nil }
