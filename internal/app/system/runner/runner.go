// internal/app/system/runner/runner.go
// Package runner executes workspace code. Each language maps to a
// Strategy: either Executable, backed by an in-process Engine, or
// Placeholder, which explains that the language needs a backend runtime.
package runner

import (
	"context"
	"fmt"
)

// Sink receives console output one line at a time, in emission order.
type Sink func(line string)

// Engine runs source code, sending each console line to sink.
// Failures of the user program are returned as *ExecutionError.
type Engine interface {
	Execute(ctx context.Context, source string, sink Sink) error
}

// ExecutionError is an error raised by the user's program rather than by
// the engine itself.
type ExecutionError struct {
	Message string
}

func (e *ExecutionError) Error() string { return e.Message }

// Strategy is the closed set of per-language behaviors.
type Strategy interface {
	isStrategy()
}

// Executable runs code with Engine.
type Executable struct {
	Engine Engine
}

// Placeholder does not run code.
type Placeholder struct{}

func (Executable) isStrategy()  {}
func (Placeholder) isStrategy() {}

// Scope tells the adapter where the code lives; it only changes the
// placeholder wording.
type Scope int

const (
	ScopePersonal Scope = iota
	ScopeGroup
)

func (s Scope) String() string {
	if s == ScopeGroup {
		return "group"
	}
	return "personal"
}

// Result is the outcome of one run. Failed marks an error result; the
// error text is already in Output.
type Result struct {
	Output string `json:"output"`
	Failed bool   `json:"failed"`
}

func errorResult(msg string) Result {
	return Result{Output: fmt.Sprintf("Error: %s", msg), Failed: true}
}
