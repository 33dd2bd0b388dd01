// Package systemtest provides a scripted CommandRunner for tests.
package systemtest

import (
	"context"
	"strings"
	"sync"
	"xray-setup/internal/system"
)

type response struct {
	result system.Result
	err    error
}

// Runner records every command and answers with canned responses keyed by the
// full command line ("systemctl is-active xray"). Unknown commands succeed
// with empty output.
type Runner struct {
	mu        sync.Mutex
	calls     []string
	responses map[string]response
}

func NewRunner() *Runner {
	return &Runner{
		responses: make(map[string]response),
	}
}

// On registers a successful response.
func (r *Runner) On(commandLine, stdout string) *Runner {
	return r.respond(commandLine, system.Result{Stdout: stdout}, nil)
}

// OnExit registers a response with a non-zero exit code.
func (r *Runner) OnExit(commandLine string, code int, stdout string) *Runner {
	return r.respond(commandLine, system.Result{Stdout: stdout, ExitCode: code}, &system.ExitError{
		Command: commandLine,
		Code:    code,
		Output:  stdout,
	})
}

// OnError registers a failure to start the command.
func (r *Runner) OnError(commandLine string, err error) *Runner {
	return r.respond(commandLine, system.Result{}, err)
}

func (r *Runner) respond(commandLine string, result system.Result, err error) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[commandLine] = response{result: result, err: err}
	return r
}

func (r *Runner) Run(_ context.Context, name string, args ...string) (system.Result, error) {
	commandLine := strings.Join(append([]string{name}, args...), " ")

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, commandLine)

	if resp, ok := r.responses[commandLine]; ok {
		return resp.result, resp.err
	}
	return system.Result{}, nil
}

// Calls returns the command lines run so far, in order.
func (r *Runner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

var _ system.CommandRunner = (*Runner)(nil)
