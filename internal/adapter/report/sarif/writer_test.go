package sarif_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/lintbot/internal/adapter/report/sarif"
	"github.com/bkyoung/lintbot/internal/domain"
)

func testReport() domain.Report {
	return domain.Report{
		BaseRef: "master",
		Files:   1,
		Issues:  3,
		Findings: []domain.Finding{
			{File: "dummy.py", Line: 16, Messages: []string{"E501 line too long"}},
			{File: "dummy.rb", Line: 2, Messages: []string{"Style/FrozenStringLiteralComment: missing magic comment", "expected an indented block"}},
		},
	}
}

func decode(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(content, &doc))
	return doc
}

func firstRun(t *testing.T, doc map[string]interface{}) map[string]interface{} {
	t.Helper()
	runs, ok := doc["runs"].([]interface{})
	require.True(t, ok)
	require.Len(t, runs, 1)
	run, ok := runs[0].(map[string]interface{})
	require.True(t, ok)
	return run
}

func TestWriter_Write(t *testing.T) {
	now := func() string { return "2026-01-01T00-00-00Z" }

	t.Run("writes a SARIF 2.1.0 document", func(t *testing.T) {
		dir := t.TempDir()
		writer := sarif.NewWriter(now)

		path, err := writer.Write(context.Background(), sarif.Artifact{
			OutputDir:  dir,
			Repository: "bkyoung/dummy",
			Report:     testReport(),
		})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "bkyoung-dummy_master_2026-01-01T00-00-00Z.sarif"), path)

		doc := decode(t, path)
		assert.Equal(t, "2.1.0", doc["version"])
		assert.NotNil(t, doc["runs"])
	})

	t.Run("converts messages to results with locations", func(t *testing.T) {
		dir := t.TempDir()
		writer := sarif.NewWriter(now)

		path, err := writer.Write(context.Background(), sarif.Artifact{
			OutputDir:  dir,
			Repository: "bkyoung/dummy",
			Report:     testReport(),
		})
		require.NoError(t, err)

		run := firstRun(t, decode(t, path))
		results, ok := run["results"].([]interface{})
		require.True(t, ok)
		require.Len(t, results, 3)

		first, ok := results[0].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "E501", first["ruleId"])
		assert.Equal(t, "warning", first["level"])

		message, ok := first["message"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "E501 line too long", message["text"])

		locations, ok := first["locations"].([]interface{})
		require.True(t, ok)
		require.Len(t, locations, 1)
		physical := locations[0].(map[string]interface{})["physicalLocation"].(map[string]interface{})
		assert.Equal(t, "dummy.py", physical["artifactLocation"].(map[string]interface{})["uri"])
		assert.Equal(t, float64(16), physical["region"].(map[string]interface{})["startLine"])
	})

	t.Run("derives rule ids from message codes", func(t *testing.T) {
		dir := t.TempDir()
		writer := sarif.NewWriter(now)

		path, err := writer.Write(context.Background(), sarif.Artifact{
			OutputDir:  dir,
			Repository: "bkyoung/dummy",
			Report:     testReport(),
		})
		require.NoError(t, err)

		run := firstRun(t, decode(t, path))
		results := run["results"].([]interface{})

		var ruleIDs []string
		for _, result := range results {
			ruleIDs = append(ruleIDs, result.(map[string]interface{})["ruleId"].(string))
		}
		assert.Equal(t, []string{"E501", "Style/FrozenStringLiteralComment", "lint"}, ruleIDs)
	})

	t.Run("carries report counters as run properties", func(t *testing.T) {
		dir := t.TempDir()
		writer := sarif.NewWriter(now)

		path, err := writer.Write(context.Background(), sarif.Artifact{
			OutputDir:  dir,
			Repository: "bkyoung/dummy",
			Report:     testReport(),
		})
		require.NoError(t, err)

		run := firstRun(t, decode(t, path))
		properties, ok := run["properties"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "master", properties["baseRef"])
		assert.Equal(t, float64(3), properties["issues"])
		assert.Equal(t, false, properties["errored"])
	})

	t.Run("creates output directory if it doesn't exist", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "path")
		writer := sarif.NewWriter(now)

		path, err := writer.Write(context.Background(), sarif.Artifact{
			OutputDir:  dir,
			Repository: "bkyoung/dummy",
			Report:     domain.Report{BaseRef: "master"},
		})
		require.NoError(t, err)

		_, err = os.Stat(path)
		require.NoError(t, err)
	})
}
