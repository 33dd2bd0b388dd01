package system

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"xray-setup/internal/domain"

	"go.uber.org/zap"
)

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ExitError is returned when a command ran but exited with a non-zero code.
// Output holds everything the command printed, stdout first.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
	Output  string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with code %d: %s", e.Command, e.Code, e.Stderr)
	}
	return fmt.Sprintf("%s exited with code %d", e.Command, e.Code)
}

// CommandRunner runs external programs to completion.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

type execRunner struct {
	logger  *zap.Logger
	metrics domain.MetricsCollector
}

func NewRunner(logger *zap.Logger, metrics domain.MetricsCollector) CommandRunner {
	return &execRunner{
		logger:  logger.With(zap.String("component", "runner")),
		metrics: metrics,
	}
}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	result, err := r.run(ctx, name, args...)
	r.metrics.RecordCommand(name, err)
	return result, err
}

func (r *execRunner) run(ctx context.Context, name string, args ...string) (Result, error) {
	commandLine := strings.Join(append([]string{name}, args...), " ")

	cmd := exec.CommandContext(ctx, name, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("failed to start %s: %w", name, err)
	}

	r.logger.Debug("started command",
		zap.Int("pid", cmd.Process.Pid),
		zap.String("command", commandLine))

	var outBuf, errBuf strings.Builder
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.monitorOutput(stdout, "stdout", name, &outBuf)
	}()
	go func() {
		defer wg.Done()
		r.monitorOutput(stderr, "stderr", name, &errBuf)
	}()

	// Pipes must be drained before Wait closes them
	wg.Wait()
	waitErr := cmd.Wait()

	result := Result{
		Stdout: outBuf.String(),
		Stderr: errBuf.String(),
	}

	if waitErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("%s interrupted: %w", name, ctxErr)
		}

		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			r.logger.Debug("command exited with error",
				zap.String("command", commandLine),
				zap.Int("exit_code", result.ExitCode))
			return result, &ExitError{
				Command: commandLine,
				Code:    result.ExitCode,
				Stderr:  strings.TrimSpace(result.Stderr),
				Output:  result.Stdout + result.Stderr,
			}
		}
		return result, fmt.Errorf("failed to wait for %s: %w", name, waitErr)
	}

	r.logger.Debug("command finished", zap.String("command", commandLine))

	return result, nil
}

func (r *execRunner) monitorOutput(pipe io.Reader, pipeName, command string, sink *strings.Builder) {
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		sink.WriteString(line)
		sink.WriteByte('\n')

		if trimmed := strings.TrimSpace(line); trimmed != "" {
			r.logger.Debug("command output",
				zap.String("command", command),
				zap.String("pipe", pipeName),
				zap.String("message", trimmed))
		}
	}

	if err := scanner.Err(); err != nil {
		r.logger.Error("error reading command output",
			zap.String("command", command),
			zap.String("pipe", pipeName),
			zap.Error(err))
		// Keep draining so the child never blocks on a full pipe
		_, _ = io.Copy(io.Discard, pipe)
	}
}

// CommandOutput returns what a failed command printed, or an empty string
// when err is not an ExitError.
func CommandOutput(err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Output
	}
	return ""
}

// IsExitError reports whether err means the command ran and returned a
// non-zero exit code.
func IsExitError(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}
