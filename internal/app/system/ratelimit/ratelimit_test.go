package ratelimit_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/codeprephub/internal/app/system/ratelimit"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLimiter_AllowAndRemaining(t *testing.T) {
	l := ratelimit.New(3, time.Minute)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("4th request should be blocked")
	}
	if got := l.Remaining("k"); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
	if got := l.Remaining("other"); got != 3 {
		t.Errorf("Remaining(other) = %d, want 3", got)
	}

	l.Reset("k")
	if !l.Allow("k") {
		t.Error("expected Allow after Reset")
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := ratelimit.New(1, 20*time.Millisecond)
	defer l.Stop()

	if !l.Allow("k") || l.Allow("k") {
		t.Fatal("expected one allowed then blocked")
	}
	time.Sleep(30 * time.Millisecond)
	if !l.Allow("k") {
		t.Error("expected a fresh window after expiry")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded first hop", "1.2.3.4, 10.0.0.1", "", "9.9.9.9:1234", "1.2.3.4"},
		{"real ip", "", "5.6.7.8", "9.9.9.9:1234", "5.6.7.8"},
		{"remote addr", "", "", "9.9.9.9:1234", "9.9.9.9"},
		{"remote without port", "", "", "9.9.9.9", "9.9.9.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/login", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ratelimit.ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter(t *testing.T) {
	ll := ratelimit.NewLoginLimiter(4, time.Minute)
	defer ll.Stop()

	r := httptest.NewRequest("POST", "/login", nil)

	// per-email budget is 2
	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "Ada@Example.com"); !ok {
			t.Fatalf("attempt %d should pass", i+1)
		}
	}
	if ok, reason := ll.Check(r, "ada@example.com"); ok || reason == "" {
		t.Errorf("expected email limit to trip with a reason, got %v %q", ok, reason)
	}

	ll.ResetEmail("ADA@example.com")
	if ok, _ := ll.Check(r, "ada@example.com"); !ok {
		t.Error("expected attempt after ResetEmail to pass")
	}

	// IP budget (4) is now spent
	if ok, _ := ll.Check(r, "someone@example.com"); ok {
		t.Error("expected IP limit to trip")
	}
}

func TestLoginLimiter_Remaining(t *testing.T) {
	ll := ratelimit.NewLoginLimiter(4, time.Minute)
	defer ll.Stop()

	r := httptest.NewRequest("POST", "/login", nil)

	if got := ll.Remaining(r, "ada@example.com"); got != 2 {
		t.Errorf("fresh: Remaining = %d, want 2 (email budget)", got)
	}
	ll.Check(r, "ada@example.com")
	if got := ll.Remaining(r, "ADA@example.com"); got != 1 {
		t.Errorf("after one attempt: Remaining = %d, want 1", got)
	}
	// A different account is bounded by what is left of the IP budget.
	if got := ll.Remaining(r, "bob@example.com"); got != 2 {
		t.Errorf("other account: Remaining = %d, want 2", got)
	}
	ll.Check(r, "bob@example.com")
	ll.Check(r, "carol@example.com")
	if got := ll.Remaining(r, ""); got != 1 {
		t.Errorf("no email: Remaining = %d, want 1 (IP budget)", got)
	}
}
