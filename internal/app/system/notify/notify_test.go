package notify_test

import (
	"testing"

	"github.com/dalemusser/codeprephub/internal/app/system/notify"
)

func TestCollector(t *testing.T) {
	var c notify.Collector
	if got := c.Notices(); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}

	c.Notify(notify.Success, "Program saved")
	c.Notify(notify.Error, "Failed to save: boom")

	got := c.Notices()
	if len(got) != 2 {
		t.Fatalf("expected 2 notices, got %d", len(got))
	}
	if got[0] != (notify.Notice{Level: notify.Success, Message: "Program saved"}) {
		t.Errorf("unexpected first notice: %+v", got[0])
	}
	if got[1].Level != notify.Error {
		t.Errorf("expected error level, got %q", got[1].Level)
	}
}
