/*
Package progress restores whatprot's main/cmd-line-out.cc as a minimal
line-by-line progress printer for cmd/fluoroseq's classify and fit
commands (SPEC_FULL.md §3); the HMM engine itself never imports this
package, matching cmd-line-out.cc's role as a main-only collaborator.
*/
package progress

import (
	"fmt"
	"io"
	"time"
)

// Printer writes timed progress lines to an output stream (normally
// os.Stdout), mirroring cmd-line-out.cc's print_read_dye_seqs /
// print_built_classifier / print_finished_classification family of
// functions, generalized into one timed-step reporter instead of one
// function per step name.
type Printer struct {
	w     io.Writer
	start time.Time
}

// New returns a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w, start: time.Now()}
}

// StartStep records the start of a named unit of work and returns a
// function to call when it finishes; the returned function prints
// "<label> (<seconds> seconds)." in cmd-line-out.cc's style.
func (p *Printer) StartStep(label string) func() {
	start := time.Now()
	return func() {
		fmt.Fprintf(p.w, "%s (%.3f seconds).\n", label, time.Since(start).Seconds())
	}
}

// Countf prints one line formatted from format and args, for lines like
// "Read 42 dye seqs." that carry a count rather than a timing.
func (p *Printer) Countf(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Epoch prints one fit epoch's convergence summary, matching
// print_final_step_size / print_parameter_results.
func (p *Printer) Epoch(epoch int, distance float64) {
	fmt.Fprintf(p.w, "epoch %d: distance = %v\n", epoch, distance)
}

// Total prints the run's total elapsed time since p was created, matching
// print_total_time.
func (p *Printer) Total() {
	fmt.Fprintf(p.w, "Total run time: %.3f seconds.\n", time.Since(p.start).Seconds())
}

// Start resets the Printer's total-time clock; New already does this, Start
// exists for callers that construct a Printer before the timed work begins.
func (p *Printer) Start() {
	p.start = time.Now()
}
