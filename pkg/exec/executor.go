// Package exec provides an abstraction over external command execution so
// the key-generation pipeline can be exercised in tests without invoking
// opendkim-genkey.
package exec

import (
	"bytes"
	"context"
	"os/exec"
)

// CommandExecutor runs an external command in a working directory.
type CommandExecutor interface {
	// Execute runs name with args inside dir and returns stdout, stderr,
	// and any execution error. A non-zero exit status is returned as an
	// *exec.ExitError by the production implementation.
	Execute(ctx context.Context, dir, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// RealCommandExecutor executes actual commands using os/exec.
type RealCommandExecutor struct{}

// Execute runs the command.
func (r *RealCommandExecutor) Execute(ctx context.Context, dir, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// DefaultExecutor returns the production executor.
func DefaultExecutor() CommandExecutor {
	return &RealCommandExecutor{}
}
