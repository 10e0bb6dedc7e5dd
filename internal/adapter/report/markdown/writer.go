// Package markdown persists lint reports as Markdown artifacts.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bkyoung/lintbot/internal/domain"
)

type clock func() string

// Writer renders lint reports into Markdown files.
type Writer struct {
	now clock
}

// NewWriter constructs a Markdown writer with a timestamp supplier.
func NewWriter(now clock) *Writer {
	return &Writer{now: now}
}

// Artifact describes one report to persist.
type Artifact struct {
	OutputDir  string
	Repository string
	Report     domain.Report
}

// Write persists a Markdown artifact to disk.
func (w *Writer) Write(ctx context.Context, artifact Artifact) (string, error) {
	if err := os.MkdirAll(artifact.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s_%s.md",
		sanitise(artifact.Repository),
		sanitise(artifact.Report.BaseRef),
		w.now(),
	)
	path := filepath.Join(artifact.OutputDir, filename)

	if err := os.WriteFile(path, []byte(buildContent(artifact)), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}

	return path, nil
}

func buildContent(artifact Artifact) string {
	var builder strings.Builder
	builder.WriteString("# Lint Report\n\n")
	builder.WriteString(fmt.Sprintf("- Repository: %s\n", artifact.Repository))
	builder.WriteString(fmt.Sprintf("- Base: %s\n", artifact.Report.BaseRef))
	if artifact.Report.Uncommitted {
		builder.WriteString("- Scope: working tree\n")
	}
	builder.WriteString(fmt.Sprintf("- Changed files: %d\n", artifact.Report.Files))
	builder.WriteString(fmt.Sprintf("- Issues: %d\n\n", artifact.Report.Issues))

	if len(artifact.Report.Findings) == 0 {
		builder.WriteString("No issues found.\n")
	} else {
		builder.WriteString("## Findings\n\n")
		current := ""
		for _, finding := range artifact.Report.Findings {
			if finding.File != current {
				if current != "" {
					builder.WriteString("\n")
				}
				current = finding.File
				builder.WriteString(fmt.Sprintf("### %s\n\n", finding.File))
			}
			for _, message := range finding.Messages {
				builder.WriteString(fmt.Sprintf("- Line %d: %s\n", finding.Line, message))
			}
		}
	}

	if artifact.Report.Errored {
		builder.WriteString("\n> A linter failed while producing this report; results may be incomplete.\n")
	}

	return builder.String()
}

func sanitise(value string) string {
	if value == "" {
		return "unknown"
	}
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, string(filepath.Separator), "-")
	value = strings.ReplaceAll(value, " ", "-")
	return value
}
