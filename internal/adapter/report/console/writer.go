// Package console renders lint reports as file:line:message lines with a
// summary, colored when the destination is a terminal.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/bkyoung/lintbot/internal/domain"
)

// Writer renders reports for human consumption on a terminal.
type Writer struct {
	out      io.Writer
	location *color.Color
	ok       *color.Color
	problem  *color.Color
	warn     *color.Color
}

// NewWriter renders to out, coloring when out is a terminal.
func NewWriter(out io.Writer) *Writer {
	w := &Writer{
		out:      out,
		location: color.New(color.FgCyan, color.Bold),
		ok:       color.New(color.FgGreen, color.Bold),
		problem:  color.New(color.FgRed, color.Bold),
		warn:     color.New(color.FgYellow),
	}
	w.SetColor(isTerminal(out))
	return w
}

// SetColor overrides terminal detection.
func (w *Writer) SetColor(enabled bool) {
	for _, c := range []*color.Color{w.location, w.ok, w.problem, w.warn} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

// Write renders one report.
func (w *Writer) Write(report domain.Report) error {
	for _, finding := range report.Findings {
		for _, message := range finding.Messages {
			location := w.location.Sprintf("%s:%d:", finding.File, finding.Line)
			if _, err := fmt.Fprintf(w.out, "%s %s\n", location, message); err != nil {
				return err
			}
		}
	}

	summary := w.summary(report)
	if len(report.Findings) > 0 {
		summary = "\n" + summary
	}
	if _, err := fmt.Fprintln(w.out, summary); err != nil {
		return err
	}

	if report.Errored {
		if _, err := fmt.Fprintln(w.out, w.warn.Sprint("a linter failed; results may be incomplete")); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) summary(report domain.Report) string {
	if report.Issues == 0 {
		return w.ok.Sprint("no issues found")
	}
	return w.problem.Sprintf("found %s in %s",
		plural(report.Issues, "issue"), plural(report.Files, "changed file"))
}

func plural(count int, word string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, word)
	}
	return fmt.Sprintf("%d %ss", count, word)
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
