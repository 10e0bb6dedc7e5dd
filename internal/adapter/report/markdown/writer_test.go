package markdown_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bkyoung/lintbot/internal/adapter/report/markdown"
	"github.com/bkyoung/lintbot/internal/domain"
)

func TestWriterProducesDeterministicMarkdown(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	writer := markdown.NewWriter(func() string {
		return "2026-01-01T00-00-00Z"
	})

	report := domain.Report{
		BaseRef: "master",
		Files:   2,
		Issues:  3,
		Findings: []domain.Finding{
			{File: "app.py", Line: 3, Messages: []string{"D100 missing docstring"}},
			{File: "dummy.py", Line: 16, Messages: []string{"E501 line too long <sub>2x spanning 2 lines</sub>"}},
		},
	}

	path, err := writer.Write(ctx, markdown.Artifact{
		OutputDir:  dir,
		Repository: "bkyoung/dummy",
		Report:     report,
	})
	if err != nil {
		t.Fatalf("writer returned error: %v", err)
	}

	if filepath.Base(path) != "bkyoung-dummy_master_2026-01-01T00-00-00Z.md" {
		t.Fatalf("unexpected filename: %s", filepath.Base(path))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}

	text := string(content)
	for _, want := range []string{
		"# Lint Report",
		"- Repository: bkyoung/dummy",
		"- Base: master",
		"- Changed files: 2",
		"- Issues: 3",
		"### app.py",
		"- Line 3: D100 missing docstring",
		"### dummy.py",
		"- Line 16: E501 line too long <sub>2x spanning 2 lines</sub>",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("markdown missing %q:\n%s", want, text)
		}
	}
}

func TestWriterRendersCleanReport(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	writer := markdown.NewWriter(func() string {
		return "2026-01-01T00-00-00Z"
	})

	path, err := writer.Write(ctx, markdown.Artifact{
		OutputDir:  dir,
		Repository: "bkyoung/dummy",
		Report:     domain.Report{BaseRef: "master", Uncommitted: true},
	})
	if err != nil {
		t.Fatalf("writer returned error: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}

	text := string(content)
	if !strings.Contains(text, "No issues found.") {
		t.Errorf("markdown missing clean marker:\n%s", text)
	}
	if !strings.Contains(text, "- Scope: working tree") {
		t.Errorf("markdown missing working tree scope:\n%s", text)
	}
	if strings.Contains(text, "## Findings") {
		t.Errorf("clean report should not have a findings section:\n%s", text)
	}
}

func TestWriterNotesLinterFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	writer := markdown.NewWriter(func() string {
		return "2026-01-01T00-00-00Z"
	})

	path, err := writer.Write(ctx, markdown.Artifact{
		OutputDir:  dir,
		Repository: "bkyoung/dummy",
		Report:     domain.Report{BaseRef: "master", Errored: true},
	})
	if err != nil {
		t.Fatalf("writer returned error: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if !strings.Contains(string(content), "results may be incomplete") {
		t.Errorf("markdown missing failure note:\n%s", string(content))
	}
}

func TestWriterCreatesOutputDir(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "reports")

	writer := markdown.NewWriter(func() string {
		return "2026-01-01T00-00-00Z"
	})

	path, err := writer.Write(ctx, markdown.Artifact{
		OutputDir:  dir,
		Repository: "bkyoung/dummy",
		Report:     domain.Report{BaseRef: "master"},
	})
	if err != nil {
		t.Fatalf("writer returned error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
}
