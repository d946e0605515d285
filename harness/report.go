package harness

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

// StepResult is the outcome of one agreeing (order, qlevel) step.
// Counts are in Report.Unit.
type StepResult struct {
	Order     int
	QLevel    int
	BlockSize int

	ReferenceCycles uint64
	OptimizedCycles uint64

	// Savings is ReferenceCycles-OptimizedCycles; negative when the
	// optimized run was slower.
	Savings int64

	// Ratio is ReferenceCycles*100/OptimizedCycles and Improvement is
	// Ratio-100. Both are valid only when ImprovementOK is set.
	Ratio         float64
	Improvement   float64
	ImprovementOK bool
}

// Report summarises a sweep. Steps holds only steps where both predictors
// agreed; a divergent step appears in Divergence instead.
type Report struct {
	RunID     string
	Reference string
	Optimized string
	Unit      string
	Features  []string

	Steps      []StepResult
	Divergence *DivergenceError
	Elapsed    time.Duration
}

// Passed reports whether every step agreed.
func (r *Report) Passed() bool { return r.Divergence == nil }

// Totals sums the counts of all agreeing steps.
func (r *Report) Totals() (reference, optimized uint64) {
	for _, s := range r.Steps {
		reference += s.ReferenceCycles
		optimized += s.OptimizedCycles
	}
	return reference, optimized
}

// WriteText writes a human-readable table of the sweep.
func (r *Report) WriteText(w io.Writer) error {
	features := "-"
	if len(r.Features) > 0 {
		features = strings.Join(r.Features, ",")
	}
	if _, err := fmt.Fprintf(w, "run %s: %s vs %s, unit=%s, cpu=%s\n",
		r.RunID, r.Optimized, r.Reference, r.Unit, features); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tw, "order\tqlevel\tblocksize\t%s\t%s\tsavings\tratio\timprovement\t\n", r.Reference, r.Optimized); err != nil {
		return err
	}
	for _, s := range r.Steps {
		if _, err := fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\t\n",
			s.Order, s.QLevel, s.BlockSize, s.ReferenceCycles, s.OptimizedCycles, s.Savings,
			FormatRatio(s.Ratio, s.ImprovementOK),
			FormatImprovement(s.Improvement, s.ImprovementOK)); err != nil {
			return err
		}
	}
	ref, opt := r.Totals()
	pct, ok := Improvement(ref, opt)
	ratio, _ := Ratio(ref, opt)
	if _, err := fmt.Fprintf(tw, "total\t\t\t%d\t%d\t%d\t%s\t%s\t\n",
		ref, opt, Savings(ref, opt), FormatRatio(ratio, ok), FormatImprovement(pct, ok)); err != nil {
		return err
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if d := r.Divergence; d != nil {
		_, err := fmt.Fprintf(w, "FAIL: order %d qlevel %d round %d: sample %d (buffer index %d) %s=%d %s=%d; %d steps agreed before it\n",
			d.Order, d.QLevel, d.Round, d.Mismatch.Sample, d.Mismatch.Index,
			r.Reference, d.Mismatch.Reference, r.Optimized, d.Mismatch.Optimized, len(r.Steps))
		return err
	}
	_, err := fmt.Fprintf(w, "PASS: %d steps agree (%s)\n", len(r.Steps), r.Elapsed.Round(time.Microsecond))
	return err
}
