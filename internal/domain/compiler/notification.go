package compiler

import "fmt"

// Timing controls when a notification is delivered.
type Timing string

const (
	// TimingDelayed queues the notification until the end of the run.
	TimingDelayed Timing = "delayed"
	// TimingImmediate delivers the notification right after the notifying step applies.
	TimingImmediate Timing = "immediate"
)

// Notification asks another step to perform an action, e.g. restart a service.
type Notification struct {
	Action   string
	Resource string
	Timing   Timing
}

// Delayed creates a notification delivered after all steps have run.
func Delayed(action, resource string) Notification {
	return Notification{Action: action, Resource: resource, Timing: TimingDelayed}
}

// Immediately creates a notification delivered as soon as the step applies.
func Immediately(action, resource string) Notification {
	return Notification{Action: action, Resource: resource, Timing: TimingImmediate}
}

// Key identifies the notification for deduplication.
func (n Notification) Key() string {
	return n.Action + "@" + n.Resource
}

// IsImmediate reports whether the notification skips the queue.
func (n Notification) IsImmediate() bool {
	return n.Timing == TimingImmediate
}

// String returns a readable form such as "restart service:stash (delayed)".
func (n Notification) String() string {
	timing := n.Timing
	if timing == "" {
		timing = TimingDelayed
	}
	return fmt.Sprintf("%s %s (%s)", n.Action, n.Resource, timing)
}
