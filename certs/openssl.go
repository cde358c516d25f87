package certs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrToolNotFound is returned when the certificate tool is not installed.
var ErrToolNotFound = errors.New("certificate tool not found")

// ToolError is returned when the certificate tool exits non-zero.
type ToolError struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *ToolError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Tool, e.ExitCode, e.Stderr)
}

// OpenSSL generates a self-signed pair by running `openssl req`.
type OpenSSL struct {
	// Path is the tool name or path, "openssl" when empty.
	Path string
}

// Args returns the fixed command-line arguments for the pair: 4096-bit RSA,
// valid for 365 days, unencrypted key, CN=localhost.
func (o *OpenSSL) Args(pair Pair) []string {
	return []string{
		"req", "-x509", "-newkey", "rsa:4096",
		"-keyout", pair.KeyFile, "-out", pair.CertFile,
		"-days", "365", "-nodes", "-subj", "/CN=localhost",
	}
}

func (o *OpenSSL) Generate(ctx context.Context, pair Pair) error {
	tool := o.Path
	if tool == "" {
		tool = GeneratorOpenSSL
	}

	bin, err := exec.LookPath(tool)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrToolNotFound, tool, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, o.Args(pair)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		return &ToolError{
			Tool:     tool,
			ExitCode: exitErr.ExitCode(),
			Stderr:   strings.TrimSpace(stderr.String()),
		}
	case err != nil:
		return fmt.Errorf("run %s: %w", tool, err)
	}
	return nil
}
