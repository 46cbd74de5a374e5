package notify

import (
	"context"
	"log"
	"sync"
	"time"
)

// Outcome is the result of delivering one message
type Outcome struct {
	Message Message
	Err     error
	At      time.Time
}

// Task tracks a batch of messages dispatched together
type Task struct {
	done     chan struct{}
	outcomes []Outcome
}

// Done is closed once every message of the task has been attempted
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task completes or ctx ends
func (t *Task) Wait(ctx context.Context) ([]Outcome, error) {
	select {
	case <-t.done:
		return t.outcomes, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Failures returns the failed outcomes of a completed task
func (t *Task) Failures() []Outcome {
	select {
	case <-t.done:
	default:
		return nil
	}
	var failed []Outcome
	for _, o := range t.outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Dispatcher sends notifications in the background. Delivery never blocks or
// fails the caller; every failure is logged and published on Failures().
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	failures chan Outcome
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Failures beyond failureBuffer unread
// outcomes are logged and dropped from the channel.
func NewDispatcher(notifier Notifier, timeout time.Duration, failureBuffer int) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{
		notifier: notifier,
		timeout:  timeout,
		failures: make(chan Outcome, failureBuffer),
	}
}

// Failures publishes every failed delivery
func (d *Dispatcher) Failures() <-chan Outcome {
	return d.failures
}

// Dispatch starts delivering msgs concurrently and returns immediately. The
// sends outlive ctx cancellation but keep its values.
func (d *Dispatcher) Dispatch(ctx context.Context, msgs ...Message) *Task {
	task := &Task{
		done:     make(chan struct{}),
		outcomes: make([]Outcome, len(msgs)),
	}
	if len(msgs) == 0 {
		close(task.done)
		return task
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)

	var batch sync.WaitGroup
	d.wg.Add(1)
	for i, msg := range msgs {
		batch.Add(1)
		go func(i int, msg Message) {
			defer batch.Done()
			err := d.notifier.Notify(sendCtx, msg.Channel, msg.Recipient, msg.Template, msg.Data)
			task.outcomes[i] = Outcome{Message: msg, Err: err, At: time.Now().UTC()}
			if err != nil {
				log.Printf("[NOTIFY] Warning: %s %s to %s failed: %v", msg.Channel, msg.Template, msg.Recipient, err)
				d.publish(task.outcomes[i])
			}
		}(i, msg)
	}

	go func() {
		batch.Wait()
		cancel()
		close(task.done)
		d.wg.Done()
	}()

	return task
}

func (d *Dispatcher) publish(o Outcome) {
	select {
	case d.failures <- o:
	default:
		log.Printf("[NOTIFY] Failure channel full, dropping outcome for %s", o.Message.Recipient)
	}
}

// Drain waits for every in-flight task, or until ctx ends
func (d *Dispatcher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
