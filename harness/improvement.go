package harness

import "fmt"

// Improvement returns how much faster the optimized run was, as a
// percentage of the optimized count: (reference-optimized)*100/optimized.
// A 2x speedup is +100%. It equals Ratio minus 100. ok is false when
// optimized is zero, since there is nothing meaningful to divide by.
func Improvement(reference, optimized uint64) (pct float64, ok bool) {
	if optimized == 0 {
		return 0, false
	}
	return (float64(reference) - float64(optimized)) * 100 / float64(optimized), true
}

// Ratio returns reference*100/optimized, the reference count as a
// percentage of the optimized one. A 2x speedup is 200%, equal speed 100%.
// ok is false when optimized is zero.
func Ratio(reference, optimized uint64) (pct float64, ok bool) {
	if optimized == 0 {
		return 0, false
	}
	return float64(reference) * 100 / float64(optimized), true
}

// Savings returns reference-optimized in counter units. It is negative when
// the optimized run was slower.
func Savings(reference, optimized uint64) int64 {
	return int64(reference) - int64(optimized)
}

// FormatImprovement renders an Improvement result, "N/A" when not ok.
func FormatImprovement(pct float64, ok bool) string {
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%+.1f%%", pct)
}

// FormatRatio renders a Ratio result, "N/A" when not ok.
func FormatRatio(pct float64, ok bool) string {
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", pct)
}
