// Package sarif persists lint reports in SARIF 2.1.0 form so code-scanning
// tooling can ingest them.
package sarif

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bkyoung/lintbot/internal/domain"
	"github.com/bkyoung/lintbot/internal/version"
)

// Writer renders lint reports into SARIF files.
type Writer struct {
	now func() string
}

// NewWriter creates a new SARIF writer.
func NewWriter(now func() string) *Writer {
	return &Writer{now: now}
}

// Artifact describes one report to persist.
type Artifact struct {
	OutputDir  string
	Repository string
	Report     domain.Report
}

// Write persists a report to disk as a SARIF file.
func (w *Writer) Write(ctx context.Context, artifact Artifact) (string, error) {
	if err := os.MkdirAll(artifact.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s_%s.sarif",
		sanitise(artifact.Repository),
		sanitise(artifact.Report.BaseRef),
		w.now(),
	)
	path := filepath.Join(artifact.OutputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create sarif file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(convertToSARIF(artifact)); err != nil {
		return "", fmt.Errorf("failed to encode report to sarif: %w", err)
	}

	return path, nil
}

// convertToSARIF maps a domain.Report onto a SARIF document, one result per
// reported message.
func convertToSARIF(artifact Artifact) map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(artifact.Report.Findings))

	for _, finding := range artifact.Report.Findings {
		for _, message := range finding.Messages {
			result := map[string]interface{}{
				"ruleId": ruleID(message),
				"level":  "warning",
				"message": map[string]interface{}{
					"text": message,
				},
				"locations": []map[string]interface{}{
					{
						"physicalLocation": map[string]interface{}{
							"artifactLocation": map[string]interface{}{
								"uri": finding.File,
							},
							"region": map[string]interface{}{
								"startLine": finding.Line,
								"endLine":   finding.Line,
							},
						},
					},
				},
			}
			results = append(results, result)
		}
	}

	return map[string]interface{}{
		"version": "2.1.0",
		"$schema": "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		"runs": []map[string]interface{}{
			{
				"tool": map[string]interface{}{
					"driver": map[string]interface{}{
						"name":            "lintbot",
						"informationUri":  "https://github.com/bkyoung/lintbot",
						"version":         version.Value(),
						"semanticVersion": version.Value(),
						"rules": []map[string]interface{}{
							{
								"id":               "lint",
								"name":             "Lint",
								"shortDescription": map[string]interface{}{"text": "Style and lint findings"},
								"fullDescription":  map[string]interface{}{"text": "Findings reported by the configured lint handlers on changed lines"},
							},
						},
					},
				},
				"results": results,
				"properties": map[string]interface{}{
					"baseRef": artifact.Report.BaseRef,
					"files":   artifact.Report.Files,
					"issues":  artifact.Report.Issues,
					"errored": artifact.Report.Errored,
				},
			},
		},
	}
}

var codePattern = regexp.MustCompile(`^[A-Z]{1,3}[0-9]{1,4}$`)

// ruleID extracts a lint code from the front of a message, falling back to
// the generic rule. "E501 line too long" maps to E501, rubocop cop names
// keep their slash form, free-text messages map to "lint".
func ruleID(message string) string {
	fields := strings.Fields(message)
	if len(fields) == 0 {
		return "lint"
	}
	token := strings.TrimSuffix(fields[0], ":")
	if codePattern.MatchString(token) || strings.Contains(token, "/") {
		return token
	}
	return "lint"
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
