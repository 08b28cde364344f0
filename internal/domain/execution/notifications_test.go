package execution

import (
	"testing"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
)

func TestNotificationQueue_CoalescesAndKeepsOrder(t *testing.T) {
	q := newNotificationQueue()
	setenv := compiler.MustNewStepID("template:render:setenv")
	server := compiler.MustNewStepID("template:render:server-xml")

	q.Add(compiler.Delayed("restart", "service:stash"), setenv)
	q.Add(compiler.Delayed("reload", "service:apache2"), setenv)
	q.Add(compiler.Delayed("restart", "service:stash"), server)

	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}

	drained := q.Drain()
	if drained[0].Notification.Action != "restart" || drained[1].Notification.Action != "reload" {
		t.Errorf("order = %v", drained)
	}
	if drained[0].Count != 2 || !drained[0].Source.Equals(setenv) {
		t.Errorf("first entry = %+v", drained[0])
	}
	if q.Len() != 0 {
		t.Error("Drain() should empty the queue")
	}
}
