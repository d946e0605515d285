package golpc

import (
	"math"
	"math/rand"
	"slices"
	"testing"
)

var allPredictors = []Predictor{Reference{}, Unrolled{}}

func TestRestoreWorkedExample(t *testing.T) {
	for _, p := range allPredictors {
		buf := []int32{10, 5}
		p.Restore(buf, 1, 1, 1, []int32{2})
		// (2*10)>>1 = 10, plus residual 5.
		if buf[1] != 15 {
			t.Fatalf("%s: got %d, want 15", p.Name(), buf[1])
		}
		if buf[0] != 10 {
			t.Fatalf("%s: history changed to %d", p.Name(), buf[0])
		}
	}
}

func TestRestoreShiftDirections(t *testing.T) {
	tests := []struct {
		name   string
		coeffs []int32
		qlevel int
		want   int32
	}{
		// history s[-2]=3, s[-1]=7, residual 100.
		{"right shift", []int32{5, -2}, 1, 100 + (29 >> 1)},
		{"left shift", []int32{5, -2}, -1, 100 + (29 << 1)},
		{"zero shift is unshifted sum", []int32{5, -2}, 0, 100 + 29},
		{"right shift of negative sum rounds down", []int32{-5, 2}, 1, 100 - 15},
		{"right shift by two of negative sum", []int32{-5, 2}, 2, 100 - 8},
		{"left shift by three", []int32{-5, 2}, -3, 100 - 29*8},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, p := range allPredictors {
				buf := []int32{3, 7, 100}
				p.Restore(buf, 1, tc.qlevel, 2, tc.coeffs)
				if buf[2] != tc.want {
					t.Fatalf("%s: got %d, want %d", p.Name(), buf[2], tc.want)
				}
			}
		})
	}
}

func TestRestoreSequentialDependency(t *testing.T) {
	for _, p := range allPredictors {
		buf := []int32{1, 1, 10, 0}
		p.Restore(buf, 2, 0, 2, []int32{1, 1})
		// s[0] = 10 + 1 + 1 = 12; s[1] must use the reconstructed 12, not
		// the residual 10: 0 + 12 + 1 = 13.
		if buf[2] != 12 {
			t.Fatalf("%s: sample 0 = %d, want 12", p.Name(), buf[2])
		}
		if buf[3] != 13 {
			t.Fatalf("%s: sample 1 = %d, want 13 (residual-only prediction gives 11)", p.Name(), buf[3])
		}
	}
}

func TestRestoreDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, p := range allPredictors {
		for order := 1; order <= MaxOrder; order++ {
			coeffs := randomCoeffs(rng, order, 12)
			a := randomSamples(rng, order+257, 1<<20)
			b := slices.Clone(a)
			p.Restore(a, 257, 9, order, coeffs)
			p.Restore(b, 257, 9, order, coeffs)
			if !slices.Equal(a, b) {
				t.Fatalf("%s order %d: two runs differ", p.Name(), order)
			}
		}
	}
}

func TestRestoreTouchesOnlyBlock(t *testing.T) {
	const sentinel = int32(-0x5a5a5a5a)
	rng := rand.New(rand.NewSource(11))
	for _, p := range allPredictors {
		for order := 0; order <= MaxOrder; order++ {
			blocksize := 1 + rng.Intn(64)
			coeffs := randomCoeffs(rng, order, 10)
			buf := randomSamples(rng, order+blocksize+8, 1<<16)
			for i := order + blocksize; i < len(buf); i++ {
				buf[i] = sentinel
			}
			history := slices.Clone(buf[:order])

			p.Restore(buf, blocksize, -2, order, coeffs)

			if !slices.Equal(history, buf[:order]) {
				t.Fatalf("%s order %d: history modified", p.Name(), order)
			}
			for i := order + blocksize; i < len(buf); i++ {
				if buf[i] != sentinel {
					t.Fatalf("%s order %d: wrote past block at %d", p.Name(), order, i)
				}
			}
		}
	}
}

func TestRestoreExactHistoryEveryOrder(t *testing.T) {
	coeffs := make([]int32, MaxOrder)
	for k := range coeffs {
		coeffs[k] = int32(k + 1)
	}
	for _, p := range allPredictors {
		for order := 1; order <= MaxOrder; order++ {
			for _, q := range []int{-1, 1} {
				buf := make([]int32, 512)
				for i := range buf {
					buf[i] = int32(i) + 1
				}
				// len(buf) == order + blocksize: any out-of-range access panics.
				p.Restore(buf, len(buf)-order, q, order, coeffs[:order])
			}
		}
	}
}

func TestUnrolledMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 2000; trial++ {
		order := rng.Intn(MaxOrder + 1)
		blocksize := 1 + rng.Intn(600)
		qlevel := MinShift + rng.Intn(MaxShift-MinShift+1)
		coeffs := randomCoeffs(rng, order, 1+rng.Intn(15))
		want := randomSamples(rng, order+blocksize, 1<<24)
		got := slices.Clone(want)

		Reference{}.Restore(want, blocksize, qlevel, order, coeffs)
		Unrolled{}.Restore(got, blocksize, qlevel, order, coeffs)
		if i, ok := firstDiff(want, got); !ok {
			t.Fatalf("trial %d order=%d qlevel=%d blocksize=%d: index %d got %d want %d",
				trial, order, qlevel, blocksize, i, got[i], want[i])
		}
	}
}

func TestUnrolledMatchesReferenceExtremes(t *testing.T) {
	for order := 1; order <= MaxOrder; order++ {
		for _, qlevel := range []int{MinShift, -1, 0, 1, MaxShift} {
			for _, sign := range []int32{1, -1} {
				coeffs := make([]int32, order)
				for k := range coeffs {
					coeffs[k] = sign * math.MaxInt16
				}
				want := make([]int32, order+64)
				for i := range want {
					want[i] = sign * math.MaxInt32
				}
				got := slices.Clone(want)

				Reference{}.Restore(want, 64, qlevel, order, coeffs)
				Unrolled{}.Restore(got, 64, qlevel, order, coeffs)
				if i, ok := firstDiff(want, got); !ok {
					t.Fatalf("order=%d qlevel=%d sign=%d: index %d got %d want %d",
						order, qlevel, sign, i, got[i], want[i])
				}
			}
		}
	}
}

func TestUnrolledOrderAboveMax(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	const order = MaxOrder + 8
	coeffs := randomCoeffs(rng, order, 8)
	want := randomSamples(rng, order+100, 1<<12)
	got := slices.Clone(want)
	Reference{}.Restore(want, 100, 3, order, coeffs)
	Unrolled{}.Restore(got, 100, 3, order, coeffs)
	if !slices.Equal(want, got) {
		t.Fatal("order above MaxOrder diverges from reference")
	}
}

func TestRestoreZeroAllocs(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, order := range []int{1, 4, 8, 12, 20, 32} {
		coeffs := randomCoeffs(rng, order, 14)
		buf := randomSamples(rng, order+4096, 1<<16)
		allocs := testing.AllocsPerRun(100, func() {
			Restore(buf, 4096, 12, order, coeffs)
		})
		if allocs != 0 {
			t.Fatalf("order %d: Restore allocs/op = %.2f, want 0", order, allocs)
		}
	}
}

func TestRegistry(t *testing.T) {
	ps := Predictors()
	if len(ps) != 2 || ps[0].Name() != "reference" || ps[1].Name() != "unrolled" {
		t.Fatalf("Predictors() = %v", ps)
	}
	p, err := LookupPredictor("unrolled")
	if err != nil || p.Name() != "unrolled" {
		t.Fatalf("LookupPredictor(unrolled) = %v, %v", p, err)
	}
	if _, err := LookupPredictor("simd"); err == nil {
		t.Fatal("expected error for unknown predictor")
	}
}

func randomCoeffs(rng *rand.Rand, order, precision int) []int32 {
	limit := int32(1) << (precision - 1)
	out := make([]int32, order)
	for k := range out {
		out[k] = rng.Int31n(2*limit) - limit
	}
	return out
}

// randomSamples returns n values in [-limit, limit). limit may be as large
// as math.MaxInt32.
func randomSamples(rng *rand.Rand, n int, limit int32) []int32 {
	span := 2 * int64(limit)
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(rng.Int63n(span) - int64(limit))
	}
	return out
}

func firstDiff(a, b []int32) (int, bool) {
	for i := range a {
		if a[i] != b[i] {
			return i, false
		}
	}
	return -1, true
}

func TestRandomSamplesFullRange(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	for _, limit := range []int32{1, 1 << 16, 1 << 30, math.MaxInt32} {
		var neg, pos bool
		for _, v := range randomSamples(rng, 1000, limit) {
			if int64(v) < -int64(limit) || int64(v) >= int64(limit) {
				t.Fatalf("limit %d: value %d out of range", limit, v)
			}
			neg = neg || v < 0
			pos = pos || v > 0
		}
		if limit > 1 && !(neg && pos) {
			t.Fatalf("limit %d: values not spread over both signs", limit)
		}
	}
}
