/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reporter.go
Description: Terminal reporting for showmap. Prints recorded tuples as
"NNNNN/v" lines (or a JSON document), plus the banner, program output framing
and signal notices, honouring quiet and sink-output modes.
*/

package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/kleascm/showmap/pkg/coverage"
	"github.com/kleascm/showmap/pkg/interfaces"
)

const (
	colorCyan   = "\033[36m"
	colorBright = "\033[1;97m"
	colorReset  = "\033[0m"
)

// Tuple is one covered edge and its hit bucket
type Tuple struct {
	Index int  `json:"index"`
	Value byte `json:"value"`
}

// Report is the JSON form of a run
type Report struct {
	RunID      string           `json:"run_id"`
	Target     string           `json:"target"`
	ChildPID   int32            `json:"child_pid"`
	Signal     int              `json:"signal,omitempty"`
	TupleCount int              `json:"tuple_count"`
	Summary    coverage.Summary `json:"summary"`
	Tuples     []Tuple          `json:"tuples"`
}

// Reporter writes everything showmap shows the user
type Reporter struct {
	out     io.Writer
	notices io.Writer
	quiet   bool
	sink    bool
	format  interfaces.OutputFormat
	colors  bool
}

// NewReporter builds a reporter from the run configuration. In JSON mode
// notices move to the diagnostic stream so stdout stays parseable.
func NewReporter(config *interfaces.Config) *Reporter {
	out := config.Stdout
	if out == nil {
		out = os.Stdout
	}
	errOut := config.Stderr
	if errOut == nil {
		errOut = os.Stderr
	}
	format := config.Format
	if format == "" {
		format = interfaces.FormatText
	}

	r := &Reporter{
		out:     out,
		notices: out,
		quiet:   config.Quiet,
		sink:    config.SinkOutput,
		format:  format,
	}
	if format == interfaces.FormatJSON {
		r.notices = errOut
	}
	if f, ok := r.notices.(*os.File); ok {
		r.colors = isTerminal(f)
	}
	return r
}

// Banner prints the tool name and version unless quiet
func (r *Reporter) Banner(version string) {
	if r.quiet {
		return
	}
	if r.colors {
		fmt.Fprintf(r.notices, "%sshowmap %s%s%s\n", colorCyan, colorBright, version, colorReset)
		return
	}
	fmt.Fprintf(r.notices, "showmap %s\n", version)
}

// OutputBegins marks where the target's own output starts
func (r *Reporter) OutputBegins() {
	if r.quiet || r.sink {
		return
	}
	fmt.Fprint(r.notices, "\n-- Program output begins --\n")
}

// OutputEnds marks where the target's own output stops
func (r *Reporter) OutputEnds() {
	if r.quiet || r.sink {
		return
	}
	fmt.Fprint(r.notices, "-- Program output ends --\n")
}

// SignalNotice reports that the traced child was killed by sig.
// It is printed even in quiet mode.
func (r *Reporter) SignalNotice(sig syscall.Signal) {
	fmt.Fprintf(r.notices, "+++ Killed by signal %d +++\n", int(sig))
}

// Tuples lists every non-zero entry of bitmap in index order
func Tuples(bitmap []byte) []Tuple {
	tuples := make([]Tuple, 0, coverage.CountBits(bitmap))
	for i, v := range bitmap {
		if v != 0 {
			tuples = append(tuples, Tuple{Index: i, Value: v})
		}
	}
	return tuples
}

// Render writes one "NNNNN/v" line per non-zero entry of an already
// classified bitmap, in index order.
func (r *Reporter) Render(bitmap []byte) error {
	if !r.quiet {
		if r.colors {
			fmt.Fprintf(r.notices, "%s\nTuples recorded:\n\n%s", colorBright, colorReset)
		} else {
			fmt.Fprint(r.notices, "\nTuples recorded:\n\n")
		}
	}
	for i, v := range bitmap {
		if v == 0 {
			continue
		}
		if _, err := fmt.Fprintf(r.out, "%05d/%d\n", i, v); err != nil {
			return fmt.Errorf("failed to write tuple: %w", err)
		}
	}
	return nil
}

// RenderJSON writes the run and its tuples as a single JSON document
func (r *Reporter) RenderJSON(config *interfaces.Config, result interfaces.RunResult, bitmap []byte) error {
	tuples := Tuples(bitmap)
	report := Report{
		RunID:      result.RunID,
		Target:     config.TargetPath,
		ChildPID:   result.ChildPID,
		TupleCount: len(tuples),
		Summary:    coverage.Summarize(bitmap),
		Tuples:     tuples,
	}
	if result.Signaled {
		report.Signal = int(result.Signal)
	}
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// Report dispatches to the configured output format
func (r *Reporter) Report(config *interfaces.Config, result interfaces.RunResult, bitmap []byte) error {
	if r.format == interfaces.FormatJSON {
		return r.RenderJSON(config, result, bitmap)
	}
	return r.Render(bitmap)
}
