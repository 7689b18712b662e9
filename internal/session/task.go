package session

import "context"

// Outcome tags a finished operation.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// Result is the settled value of a Task. Message is always safe to show;
// Err is nil on success and otherwise an *errors.AppError carrying the
// diagnostic cause.
type Result struct {
	Outcome Outcome
	Message string
	Err     error
}

// Succeeded reports whether the operation succeeded.
func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeSucceeded
}

func succeeded(msg string) Result {
	return Result{Outcome: OutcomeSucceeded, Message: msg}
}

func failed(msg string, err error) Result {
	return Result{Outcome: OutcomeFailed, Message: msg, Err: err}
}

// Task is a running coordinator operation.
type Task struct {
	kind   Kind
	done   chan struct{}
	result Result
}

func newTask(kind Kind) *Task {
	return &Task{kind: kind, done: make(chan struct{})}
}

// Kind returns the operation this task runs.
func (t *Task) Kind() Kind { return t.kind }

// Done is closed once the result is available.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task settles or ctx is done. Giving up on the wait
// does not cancel the operation.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Result returns the settled result without blocking. ok is false while the
// task is still running.
func (t *Task) Result() (Result, bool) {
	select {
	case <-t.done:
		return t.result, true
	default:
		return Result{}, false
	}
}

func (t *Task) settle(r Result) {
	t.result = r
	close(t.done)
}
