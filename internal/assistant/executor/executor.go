// Package executor runs side-effecting operations against a response budget.
// It races the response, not the work: when the budget elapses the caller
// gets a timeout outcome and moves on, while the operation keeps running to
// completion so no half-applied state is left behind.
package executor

import (
	"context"
	"log"
	"sync"
	"time"
)

// Op is one side-effecting operation.
type Op func(ctx context.Context) error

// Status is the synchronous result of racing an operation against the budget.
type Status int

const (
	// StatusCompleted means the operation finished within the budget without error.
	StatusCompleted Status = iota
	// StatusError means the operation finished within the budget with an error.
	StatusError
	// StatusTimedOut means the budget elapsed first. The operation keeps
	// running; its eventual result goes to the late callback, never to the caller.
	StatusTimedOut
)

// Outcome is the result of Run. Err is set only for StatusError.
type Outcome struct {
	Status Status
	Err    error
}

// TimedOut reports whether the budget elapsed before the operation finished.
func (o Outcome) TimedOut() bool { return o.Status == StatusTimedOut }

// Completed reports whether the operation finished cleanly within the budget.
func (o Outcome) Completed() bool { return o.Status == StatusCompleted }

// Executor serializes operations per user and bounds how long callers wait
// for them. Operations for the same user run in submission order; operations
// for different users run independently.
type Executor struct {
	budget time.Duration

	mu      sync.Mutex
	pending map[string][]*task
}

type task struct {
	name string
	ctx  context.Context
	op   Op
	done chan error // buffered; nil for fire-and-forget submissions
}

// New returns an Executor with the given response budget.
func New(budget time.Duration) *Executor {
	if budget <= 0 {
		budget = time.Second
	}
	return &Executor{
		budget:  budget,
		pending: make(map[string][]*task),
	}
}

// Budget returns the configured response budget.
func (e *Executor) Budget() time.Duration { return e.budget }

// Run enqueues op on the user's queue and waits for it to finish or for the
// budget to elapse, whichever comes first. The operation runs on a context
// that survives both the budget and cancellation of ctx; a timed-out
// operation is never cancelled, its late error is logged.
func (e *Executor) Run(ctx context.Context, userID, name string, op Op) Outcome {
	return e.RunWithLate(ctx, userID, name, op, nil)
}

// RunWithLate is Run with a callback invoked if the operation finishes after
// the budget elapsed. onLate receives the operation's final error (nil on
// success) and runs on the queue goroutine's successor, so it must not block
// for long.
func (e *Executor) RunWithLate(ctx context.Context, userID, name string, op Op, onLate func(error)) Outcome {
	t := &task{
		name: name,
		ctx:  context.WithoutCancel(ctx),
		op:   op,
		done: make(chan error, 1),
	}
	e.enqueue(userID, t)

	timer := time.NewTimer(e.budget)
	defer timer.Stop()
	select {
	case err := <-t.done:
		if err != nil {
			return Outcome{Status: StatusError, Err: err}
		}
		return Outcome{Status: StatusCompleted}
	case <-timer.C:
		// Hand the done channel to a late waiter; exactly one receiver at a time.
		go func() {
			err := <-t.done
			if err != nil {
				log.Printf("executor: %s for user %s finished late: %v", name, userID, err)
			}
			if onLate != nil {
				onLate(err)
			}
		}()
		return Outcome{Status: StatusTimedOut}
	}
}

// Submit enqueues op without waiting. Failures are logged and swallowed;
// use for best-effort side effects like notifications and status updates.
func (e *Executor) Submit(ctx context.Context, userID, name string, op Op) {
	e.enqueue(userID, &task{
		name: name,
		ctx:  context.WithoutCancel(ctx),
		op:   op,
	})
}

// enqueue appends t to the user's queue. Presence of the queue key doubles
// as the marker that a drain goroutine owns it, so exactly one runs per user.
func (e *Executor) enqueue(userID string, t *task) {
	e.mu.Lock()
	queue, draining := e.pending[userID]
	e.pending[userID] = append(queue, t)
	e.mu.Unlock()
	if !draining {
		go e.drain(userID)
	}
}

// drain runs the user's queue in FIFO order and exits when it is empty.
func (e *Executor) drain(userID string) {
	for {
		e.mu.Lock()
		queue := e.pending[userID]
		if len(queue) == 0 {
			delete(e.pending, userID)
			e.mu.Unlock()
			return
		}
		t := queue[0]
		e.pending[userID] = queue[1:]
		e.mu.Unlock()

		err := t.op(t.ctx)
		if t.done != nil {
			t.done <- err
		} else if err != nil {
			log.Printf("executor: %s for user %s failed: %v", t.name, userID, err)
		}
	}
}
