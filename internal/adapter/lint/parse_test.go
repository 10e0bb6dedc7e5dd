package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlake8(t *testing.T) {
	output := `dummy.py:1:1: F401 'os' imported but unused
dummy.py:16:80: E501 line too long (98 > 79 characters)
dummy.py:16:1: E302 expected 2 blank lines, got 1
not a finding line
`

	issues, err := parseFlake8([]byte(output))
	require.NoError(t, err)

	assert.Equal(t, map[int][]string{
		1:  {"F401 'os' imported but unused"},
		16: {"E501 line too long (98 > 79 characters)", "E302 expected 2 blank lines, got 1"},
	}, issues)
}

func TestParseFlake8_EmptyOutput(t *testing.T) {
	issues, err := parseFlake8(nil)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestParsePydocstyle(t *testing.T) {
	output := `dummy.py:1 at module level:
        D100: Missing docstring in public module
dummy.py:16 in public function ` + "`dummy`" + `:
        D103: Missing docstring in public function
`

	issues, err := parsePydocstyle([]byte(output))
	require.NoError(t, err)

	assert.Equal(t, map[int][]string{
		1:  {"D100: Missing docstring in public module"},
		16: {"D103: Missing docstring in public function"},
	}, issues)
}

func TestParsePydocstyle_SkipsDanglingLocation(t *testing.T) {
	// A location line followed by nothing produces no issue.
	issues, err := parsePydocstyle([]byte("dummy.py:3 at module level:\n"))
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestParseRubocop(t *testing.T) {
	output := `{
		"files": [
			{
				"path": "dummy.rb",
				"offenses": [
					{
						"severity": "convention",
						"cop_name": "Style/FrozenStringLiteralComment",
						"message": "Missing frozen string literal comment.",
						"location": {"line": 1, "column": 1}
					},
					{
						"severity": "convention",
						"cop_name": "Metrics/LineLength",
						"message": "Line is too long.",
						"location": {"line": 4, "column": 81}
					}
				]
			}
		],
		"summary": {"offense_count": 2}
	}`

	issues, err := parseRubocop([]byte(output))
	require.NoError(t, err)

	assert.Equal(t, map[int][]string{
		1: {"Style/FrozenStringLiteralComment: Missing frozen string literal comment."},
		4: {"Metrics/LineLength: Line is too long."},
	}, issues)
}

func TestParseRubocop_MalformedJSON(t *testing.T) {
	_, err := parseRubocop([]byte("rubocop exploded"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse rubocop output")
}

func TestParseESLint(t *testing.T) {
	output := `[
		{
			"filePath": "/tmp/dummy.js",
			"messages": [
				{"ruleId": "no-unused-vars", "severity": 2, "message": "'x' is assigned a value but never used.", "line": 1, "column": 7},
				{"ruleId": null, "fatal": true, "message": "Parsing error: Unexpected token", "line": 3, "column": 1}
			],
			"errorCount": 2
		}
	]`

	issues, err := parseESLint([]byte(output))
	require.NoError(t, err)

	assert.Equal(t, map[int][]string{
		1: {"'x' is assigned a value but never used. (no-unused-vars)"},
		3: {"Parsing error: Unexpected token"},
	}, issues)
}

func TestParseESLint_MalformedJSON(t *testing.T) {
	_, err := parseESLint([]byte("<html>not json</html>"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse eslint output")
}
