package compiler

import "testing"

func TestNotification_Key(t *testing.T) {
	a := Delayed("restart", "service:stash")
	b := Immediately("restart", "service:stash")
	c := Delayed("reload", "service:stash")

	if a.Key() != b.Key() {
		t.Error("timing must not affect the deduplication key")
	}
	if a.Key() == c.Key() {
		t.Error("different actions must have different keys")
	}
}

func TestNotification_String(t *testing.T) {
	if got := Delayed("restart", "service:stash").String(); got != "restart service:stash (delayed)" {
		t.Errorf("String() = %q", got)
	}
	if got := (Notification{Action: "restart", Resource: "service:stash"}).String(); got != "restart service:stash (delayed)" {
		t.Errorf("zero timing should read as delayed, got %q", got)
	}
	if !Immediately("restart", "service:stash").IsImmediate() {
		t.Error("Immediately should be immediate")
	}
}
