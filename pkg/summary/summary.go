// Package summary renders the operator report printed after a run.
package summary

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ajitpratap0/reshape/pkg/reshape"
)

// PreviewMissing marks absent positional values in the preview, where an
// empty cell would be indistinguishable from a present empty token.
const PreviewMissing = "NA"

// Summary describes one run.
type Summary struct {
	Input        string
	InputRows    int
	InputColumns int

	OutputRows    int
	OutputColumns int
	Positions     []string

	// Location is empty for a dry run
	Location    string
	Format      string
	Compression string
	Bytes       int64
	DryRun      bool

	Elapsed time.Duration

	Header  []string
	Preview [][]string
}

// New builds a summary from a result, keeping the first previewRows rows.
func New(input string, res *reshape.Result, previewRows int) *Summary {
	s := &Summary{
		Input:         input,
		InputRows:     res.InputRows,
		InputColumns:  res.InputColumns,
		OutputRows:    res.Len(),
		OutputColumns: len(res.Columns),
		Positions:     res.PositionColumns,
		Header:        res.Columns,
	}
	if previewRows > res.Len() {
		previewRows = res.Len()
	}
	for i := 0; i < previewRows; i++ {
		s.Preview = append(s.Preview, res.Record(i, PreviewMissing))
	}
	return s
}

// Saved records where the output went.
func (s *Summary) Saved(location, format, compression string, bytes int64) {
	s.Location = location
	s.Format = format
	s.Compression = compression
	s.Bytes = bytes
}

// Write prints the report to w.
func (s *Summary) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Input:\t%s (%d rows, %d columns)\n", s.Input, s.InputRows, s.InputColumns)
	fmt.Fprintf(tw, "Rows after melt:\t%d\n", s.OutputRows)
	fmt.Fprintf(tw, "Time columns:\t%s\n", positions(s.Positions))
	fmt.Fprintf(tw, "Output columns:\t%d\n", s.OutputColumns)
	switch {
	case s.DryRun:
		fmt.Fprintf(tw, "Saved to:\t(dry run, nothing written)\n")
	case s.Location != "":
		fmt.Fprintf(tw, "Saved to:\t%s (%s)\n", s.Location, s.describeOutput())
	}
	if s.Elapsed > 0 {
		fmt.Fprintf(tw, "Elapsed:\t%s\n", s.Elapsed.Round(time.Millisecond))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.Preview) == 0 {
		return nil
	}

	if _, err := fmt.Fprintf(w, "\nFirst %d rows:\n", len(s.Preview)); err != nil {
		return err
	}
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(s.Header, "\t"))
	for _, rec := range s.Preview {
		fmt.Fprintln(tw, strings.Join(rec, "\t"))
	}
	return tw.Flush()
}

func (s *Summary) describeOutput() string {
	parts := []string{s.Format}
	if s.Compression != "" && s.Compression != "none" {
		parts = append(parts, s.Compression)
	}
	if s.Bytes > 0 {
		parts = append(parts, fmt.Sprintf("%d bytes", s.Bytes))
	}
	return strings.Join(parts, ", ")
}

func positions(cols []string) string {
	switch len(cols) {
	case 0:
		return "0"
	case 1:
		return "1 (" + cols[0] + ")"
	default:
		return fmt.Sprintf("%d (%s..%s)", len(cols), cols[0], cols[len(cols)-1])
	}
}
