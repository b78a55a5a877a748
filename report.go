package overlap

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// String returns a human-readable report in English.
func (r *BenchmarkResult) String() string {
	return r.Format(language.English)
}

// Format returns a human-readable report with numbers formatted for tag.
func (r *BenchmarkResult) Format(tag language.Tag) string {
	if r == nil {
		return "benchmark: no accelerator available"
	}
	p := message.NewPrinter(tag)

	var sb strings.Builder
	p.Fprintf(&sb, "benchmark %s\n", r.ID)
	p.Fprintf(&sb, "  items:       %d in %d batches of %d\n", r.Items, r.Batches, r.BatchSize)
	p.Fprintf(&sb, "  runs:        %d\n", len(r.Runs))
	p.Fprintf(&sb, "  sequential:  %.2f ms (sd %.2f, min %.2f, max %.2f)\n",
		r.Sequential.MeanMs, r.Sequential.StdDevMs, r.Sequential.MinMs, r.Sequential.MaxMs)
	p.Fprintf(&sb, "  overlapped:  %.2f ms (sd %.2f, min %.2f, max %.2f)\n",
		r.Overlapped.MeanMs, r.Overlapped.StdDevMs, r.Overlapped.MinMs, r.Overlapped.MaxMs)
	p.Fprintf(&sb, "  speedup:     %.2fx\n", r.Speedup)
	p.Fprintf(&sb, "  overhead:    %.2f ms\n", r.OverheadMs)
	if r.Verified {
		p.Fprintf(&sb, "  verified:    outputs match\n")
	}
	return sb.String()
}
