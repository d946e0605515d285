//go:build linux

package cycles

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// perfCounter reads PERF_COUNT_HW_CPU_CYCLES for the calling thread,
// user space only.
type perfCounter struct {
	fd   int
	buf  [8]byte
	last uint64
}

func openPerf() (Counter, error) {
	attr := unix.PerfEventAttr{
		Type:   unix.PERF_TYPE_HARDWARE,
		Size:   uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
		Config: unix.PERF_COUNT_HW_CPU_CYCLES,
		Bits:   unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv,
	}
	fd, err := unix.PerfEventOpen(&attr, 0, -1, -1, unix.PERF_FLAG_FD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("%w: perf_event_open: %v", ErrUnavailable, err)
	}
	return &perfCounter{fd: fd}, nil
}

// Read returns the last good value if the counter cannot be read, so a
// failed read shows up as zero elapsed rather than a bogus interval.
func (c *perfCounter) Read() uint64 {
	n, err := unix.Read(c.fd, c.buf[:])
	if err != nil || n != len(c.buf) {
		return c.last
	}
	c.last = binary.NativeEndian.Uint64(c.buf[:])
	return c.last
}

func (c *perfCounter) Unit() string { return "cycles" }

func (c *perfCounter) Close() error {
	if c.fd < 0 {
		return nil
	}
	err := unix.Close(c.fd)
	c.fd = -1
	return err
}
