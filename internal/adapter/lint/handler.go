// Package lint runs external lint tools against files on disk and parses
// their reports into line-keyed issue maps.
//
// Each handler wraps one binary. Binaries are located once, when the
// handler is constructed; a tool that is not installed simply never joins
// the registry and its file types go unreviewed.
package lint

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Handler runs one lint tool against a file and reports issues keyed by
// 1-based line number.
type Handler interface {
	Name() string
	Extensions() []string
	Process(ctx context.Context, path string) (map[int][]string, error)
}

// parseFunc turns a tool's raw report into line-keyed issues.
type parseFunc func(output []byte) (map[int][]string, error)

// binaryHandler is a Handler backed by an executable on PATH.
type binaryHandler struct {
	name       string
	binary     string
	extensions []string
	args       []string
	parse      parseFunc
}

func newBinaryHandler(name string, extensions, args []string, parse parseFunc) (Handler, error) {
	binary, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%s not found in PATH: %w", name, err)
	}
	return &binaryHandler{
		name:       name,
		binary:     binary,
		extensions: extensions,
		args:       args,
		parse:      parse,
	}, nil
}

func (h *binaryHandler) Name() string { return h.name }

func (h *binaryHandler) Extensions() []string { return h.extensions }

func (h *binaryHandler) Process(ctx context.Context, path string) (map[int][]string, error) {
	args := make([]string, 0, len(h.args)+1)
	args = append(args, h.args...)
	args = append(args, path)

	output, err := runLinter(ctx, h.binary, args...)
	if err != nil {
		return nil, err
	}
	return h.parse(output)
}

// runLinter executes the tool and captures its stdout. Lint tools exit
// non-zero when they find issues, so an ExitError still carries a valid
// report.
func runLinter(ctx context.Context, binary string, args ...string) ([]byte, error) {
	output, err := exec.CommandContext(ctx, binary, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to run %s: %w", binary, err)
		}
	}
	return output, nil
}

// NewFlake8 probes for flake8, the style and error checker for Python.
func NewFlake8() (Handler, error) {
	return newBinaryHandler("flake8", []string{".py"}, nil, parseFlake8)
}

// NewPydocstyle probes for pydocstyle, the PEP 257 docstring checker.
func NewPydocstyle() (Handler, error) {
	return newBinaryHandler("pydocstyle", []string{".py"}, nil, parsePydocstyle)
}

// NewRubocop probes for rubocop.
func NewRubocop() (Handler, error) {
	return newBinaryHandler("rubocop", []string{".rb"}, []string{"--format=json"}, parseRubocop)
}

// NewESLint probes for eslint.
func NewESLint() (Handler, error) {
	return newBinaryHandler("eslint", []string{".js", ".jsx"}, []string{"--format", "json"}, parseESLint)
}
