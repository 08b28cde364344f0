package execution

import (
	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
)

// QueuedNotification is a delayed notification and the step that raised it first.
type QueuedNotification struct {
	Notification compiler.Notification
	Source       compiler.StepID
	// Count is how many times the notification was raised during the run.
	Count int
}

// notificationQueue holds delayed notifications in first-queued order,
// coalescing repeats of the same (action, resource).
type notificationQueue struct {
	order []string
	items map[string]*QueuedNotification
}

func newNotificationQueue() *notificationQueue {
	return &notificationQueue{items: make(map[string]*QueuedNotification)}
}

// Add queues n. A repeat only bumps the count of the existing entry.
func (q *notificationQueue) Add(n compiler.Notification, source compiler.StepID) {
	key := n.Key()
	if item, ok := q.items[key]; ok {
		item.Count++
		return
	}
	q.items[key] = &QueuedNotification{Notification: n, Source: source, Count: 1}
	q.order = append(q.order, key)
}

// Len returns the number of distinct notifications.
func (q *notificationQueue) Len() int {
	return len(q.order)
}

// Drain returns the queued notifications in order and empties the queue.
func (q *notificationQueue) Drain() []QueuedNotification {
	out := make([]QueuedNotification, 0, len(q.order))
	for _, key := range q.order {
		out = append(out, *q.items[key])
	}
	q.order = nil
	q.items = make(map[string]*QueuedNotification)
	return out
}

// NotificationResult records what happened to a notification at the end of a run.
type NotificationResult struct {
	QueuedNotification
	Handler    compiler.StepID
	Dispatched bool
	Err        error
}
