package flasher

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// ExitOutcome is what a finished flashing process reports back
type ExitOutcome struct {
	ExitCode int
	Output   string // combined stdout and stderr
}

// Success reports whether the process exited with status zero
func (o ExitOutcome) Success() bool {
	return o.ExitCode == 0
}

// Err returns an *ExitError for a non-zero exit and nil otherwise
func (o ExitOutcome) Err() error {
	if o.Success() {
		return nil
	}
	return &ExitError{Code: o.ExitCode, Output: o.Output}
}

// ExitError indicates that the flashing utility ran but exited with a non-zero status.
type ExitError struct {
	Code   int
	Output string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("flasher exited with status %d", e.Code)
}

// Executor runs the flashing utility with the given arguments and waits for it to exit.
// A non-zero exit is reported through ExitOutcome with a nil error; the error is
// reserved for failures to launch or wait on the process.
type Executor interface {
	Run(ctx context.Context, args []string) (ExitOutcome, error)
}

// CommandExecutor runs a local binary as a child process
type CommandExecutor struct {
	path   string
	logger *zap.Logger
}

// NewCommandExecutor creates an executor for the binary at path (resolved via PATH if bare)
func NewCommandExecutor(path string, logger *zap.Logger) *CommandExecutor {
	return &CommandExecutor{
		path:   path,
		logger: logger,
	}
}

// Run starts the binary and blocks until it exits. The context never kills the process;
// a launched flash always runs to completion.
func (e *CommandExecutor) Run(_ context.Context, args []string) (ExitOutcome, error) {
	var output bytes.Buffer

	cmd := exec.Command(e.path, args...)
	cmd.Stdout = &output
	cmd.Stderr = &output

	e.logger.Info("Launching flasher",
		zap.String("path", e.path),
		zap.Strings("args", args))

	err := cmd.Run()
	e.logOutput(output.String())

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return ExitOutcome{ExitCode: exitErr.ExitCode(), Output: output.String()}, nil
		}
		return ExitOutcome{ExitCode: -1, Output: output.String()}, fmt.Errorf("failed to run %s: %w", e.path, err)
	}

	return ExitOutcome{ExitCode: 0, Output: output.String()}, nil
}

func (e *CommandExecutor) logOutput(output string) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			e.logger.Debug("flasher output", zap.String("line", line))
		}
	}
}
