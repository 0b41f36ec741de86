package extract

import (
	"context"
	"fmt"
	"os/exec"
)

// CommandRunner abstracts external command execution so PDF extraction can be
// tested without a pdftotext binary installed.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%s not found in PATH (install poppler-utils): %w", name, err)
	}
	return exec.CommandContext(ctx, name, args...).Output()
}

// pdfExtractor shells out to poppler's pdftotext. The "-" argument writes the
// extracted text to stdout; -layout preserves column reading order.
type pdfExtractor struct {
	runner CommandRunner
}

func (e *pdfExtractor) Extract(ctx context.Context, path string) (string, error) {
	out, err := e.runner.Run(ctx, "pdftotext", "-layout", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext failed for %s: %w", path, err)
	}
	return string(out), nil
}
