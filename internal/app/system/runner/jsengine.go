// internal/app/system/runner/jsengine.go
package runner

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/dop251/goja"
)

const (
	msgTimedOut  = "Execution timed out"
	msgCancelled = "Execution cancelled"
	msgPending   = "Program never finished: it is still waiting on a promise"
)

// JSEngine runs JavaScript in a fresh goja runtime per call.
//
// Source is wrapped in an immediately invoked async function so top-level
// await works. console.log/info/warn/error/debug write to the sink;
// setTimeout/clearTimeout are served by a small timer loop that runs after
// the main body until no timers remain.
type JSEngine struct {
	timeout time.Duration
}

// NewJSEngine returns an engine whose runs are cut off after timeout.
// A zero timeout leaves only the caller's context as a limit.
func NewJSEngine(timeout time.Duration) *JSEngine {
	return &JSEngine{timeout: timeout}
}

func (e *JSEngine) Execute(ctx context.Context, source string, sink Sink) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return stopped(err)
	}

	rt := goja.New()
	timers := &timerQueue{}
	if err := installConsole(rt, sink); err != nil {
		return err
	}
	if err := installTimers(rt, timers); err != nil {
		return err
	}

	// Interrupt is the one goja call that is safe from another goroutine.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			rt.Interrupt(stopped(ctx.Err()))
		case <-done:
		}
	}()

	v, err := rt.RunString("(async function () {\n" + source + "\n})()")
	if err != nil {
		return toExecutionError(err)
	}
	if err := timers.drain(ctx); err != nil {
		return toExecutionError(err)
	}

	p, ok := v.Export().(*goja.Promise)
	if !ok {
		return nil
	}
	switch p.State() {
	case goja.PromiseStateRejected:
		return &ExecutionError{Message: valueMessage(p.Result())}
	case goja.PromiseStatePending:
		return &ExecutionError{Message: msgPending}
	}
	return nil
}

// stopped describes why ctx ended the run.
func stopped(err error) *ExecutionError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ExecutionError{Message: msgTimedOut}
	}
	return &ExecutionError{Message: msgCancelled}
}

// toExecutionError maps a goja failure to the message the user sees.
func toExecutionError(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if reason, ok := interrupted.Value().(*ExecutionError); ok {
			return reason
		}
		return &ExecutionError{Message: msgTimedOut}
	}
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return &ExecutionError{Message: valueMessage(ex.Value())}
	}
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr
	}
	return &ExecutionError{Message: err.Error()}
}

// valueMessage is the thrown value's message property, or its string form.
func valueMessage(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if obj, ok := v.(*goja.Object); ok {
		if m := obj.Get("message"); m != nil && !goja.IsUndefined(m) && !goja.IsNull(m) {
			return m.String()
		}
	}
	return v.String()
}

/* -------------------------------------------------------------------------- */
/* console                                                                     */
/* -------------------------------------------------------------------------- */

func installConsole(rt *goja.Runtime, sink Sink) error {
	stringify, ok := goja.AssertFunction(rt.Get("JSON").ToObject(rt).Get("stringify"))
	if !ok {
		return errors.New("JSON.stringify is not callable")
	}
	toString, ok := goja.AssertFunction(rt.Get("String"))
	if !ok {
		return errors.New("String is not callable")
	}
	indent := rt.ToValue(2)

	// throw rethrows err inside the running script, so a failing
	// JSON.stringify surfaces as the program's own TypeError.
	throw := func(err error) {
		var ex *goja.Exception
		if errors.As(err, &ex) {
			panic(ex)
		}
		panic(rt.NewGoError(err))
	}

	format := func(v goja.Value) string {
		if _, isSym := v.(*goja.Symbol); isSym {
			out, err := toString(goja.Undefined(), v)
			if err != nil {
				throw(err)
			}
			return out.String()
		}
		_, isFunc := goja.AssertFunction(v)
		_, isObj := v.(*goja.Object)
		if goja.IsNull(v) || (isObj && !isFunc) {
			out, err := stringify(goja.Undefined(), v, goja.Null(), indent)
			if err != nil {
				throw(err)
			}
			if out != nil && !goja.IsUndefined(out) {
				return out.String()
			}
		}
		return v.String()
	}

	logFn := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = format(arg)
		}
		sink(strings.Join(parts, " "))
		return goja.Undefined()
	}

	console := rt.NewObject()
	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(name, logFn); err != nil {
			return err
		}
	}
	return rt.Set("console", console)
}

/* -------------------------------------------------------------------------- */
/* timers                                                                      */
/* -------------------------------------------------------------------------- */

type timer struct {
	id   int64
	due  time.Time
	fn   goja.Callable
	args []goja.Value
}

// timerQueue holds pending setTimeout callbacks. It is only touched from
// the goroutine running the script.
type timerQueue struct {
	next    int64
	pending []*timer
}

func (q *timerQueue) add(fn goja.Callable, delay time.Duration, args []goja.Value) int64 {
	q.next++
	q.pending = append(q.pending, &timer{id: q.next, due: time.Now().Add(delay), fn: fn, args: args})
	return q.next
}

func (q *timerQueue) cancel(id int64) {
	for i, t := range q.pending {
		if t.id == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

// pop removes the timer that fires first; ties fire in creation order.
func (q *timerQueue) pop() *timer {
	if len(q.pending) == 0 {
		return nil
	}
	sort.SliceStable(q.pending, func(i, j int) bool { return q.pending[i].due.Before(q.pending[j].due) })
	t := q.pending[0]
	q.pending = q.pending[1:]
	return t
}

// drain fires timers in due order, sleeping until each is due. Callbacks may
// schedule more timers. Calling into goja from Go also runs the promise jobs
// each callback queues.
func (q *timerQueue) drain(ctx context.Context) error {
	for t := q.pop(); t != nil; t = q.pop() {
		if wait := time.Until(t.due); wait > 0 {
			sleep := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				sleep.Stop()
				return stopped(ctx.Err())
			case <-sleep.C:
			}
		}
		if _, err := t.fn(goja.Undefined(), t.args...); err != nil {
			return err
		}
	}
	return nil
}

func installTimers(rt *goja.Runtime, q *timerQueue) error {
	setTimeout := func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(rt.NewTypeError("setTimeout callback must be a function"))
		}
		delay := time.Duration(call.Argument(1).ToInteger()) * time.Millisecond
		if delay < 0 {
			delay = 0
		}
		var args []goja.Value
		if len(call.Arguments) > 2 {
			args = append(args, call.Arguments[2:]...)
		}
		return rt.ToValue(q.add(fn, delay, args))
	}
	clearTimeout := func(call goja.FunctionCall) goja.Value {
		q.cancel(call.Argument(0).ToInteger())
		return goja.Undefined()
	}
	if err := rt.Set("setTimeout", setTimeout); err != nil {
		return err
	}
	return rt.Set("clearTimeout", clearTimeout)
}
