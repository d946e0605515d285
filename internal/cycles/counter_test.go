package cycles

import (
	"errors"
	"runtime"
	"testing"
)

func TestMonotonicNonDecreasing(t *testing.T) {
	m := NewMonotonic()
	prev := m.Read()
	for i := 0; i < 1000; i++ {
		v := m.Read()
		if v < prev {
			t.Fatalf("read %d: %d < previous %d", i, v, prev)
		}
		prev = v
	}
	if m.Unit() != "ns" {
		t.Fatalf("unit = %q", m.Unit())
	}
}

func TestOpenUnknownKind(t *testing.T) {
	if _, err := Open("sundial"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("Open(sundial) err = %v, want ErrUnknownKind", err)
	}
}

func TestOpenAutoAlwaysSucceeds(t *testing.T) {
	c, err := Open(KindAuto)
	if err != nil {
		t.Fatalf("Open(auto): %v", err)
	}
	defer c.Close()
	if u := c.Unit(); u != "cycles" && u != "ns" {
		t.Fatalf("unexpected unit %q", u)
	}
}

func TestPerfCounterAdvances(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	c, err := Open(KindPerf)
	if errors.Is(err, ErrUnavailable) {
		t.Skipf("perf counter unavailable: %v", err)
	}
	if err != nil {
		t.Fatalf("Open(perf): %v", err)
	}
	defer c.Close()

	start := c.Read()
	var acc uint64
	for i := uint64(0); i < 1_000_000; i++ {
		acc += i * i
	}
	end := c.Read()
	if acc == 0 {
		t.Fatal("loop optimised away")
	}
	if end == start {
		t.Skipf("perf counter opened but is not counting (start=end=%d)", start)
	}
	if end < start {
		t.Fatalf("counter went backwards: start=%d end=%d", start, end)
	}
}

func TestFuncCounter(t *testing.T) {
	var n uint64
	c := Func(func() uint64 { n += 10; return n })
	if a, b := c.Read(), c.Read(); b-a != 10 {
		t.Fatalf("Func readings %d, %d", a, b)
	}
}

func TestFeaturesStable(t *testing.T) {
	a, b := Features(), Features()
	if len(a) != len(b) {
		t.Fatalf("Features changed between calls: %v vs %v", a, b)
	}
}
