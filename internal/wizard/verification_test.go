package wizard

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeSender struct {
	calls int
	err   error
}

func (f *fakeSender) SendOTP(ctx context.Context, mobile string) error {
	f.calls++
	return f.err
}

// fakeClock drives the flow's notion of time without sleeping.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newFlowWithClock(sender OTPSender, cooldown time.Duration) (*VerificationFlow, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)}
	f := NewVerificationFlow(sender, "9876543210", cooldown)
	f.now = clock.now
	f.nextResendAt = clock.t.Add(cooldown)
	return f, clock
}

func TestResendBlockedDuringCooldown(t *testing.T) {
	sender := &fakeSender{}
	f, clock := newFlowWithClock(sender, 60*time.Second)

	if f.CanResend() {
		t.Fatal("cooldown should be running right after creation")
	}
	if err := f.Resend(context.Background()); !errors.Is(err, ErrCooldownActive) {
		t.Fatalf("err = %v, want ErrCooldownActive", err)
	}
	if sender.calls != 0 {
		t.Fatal("SendOTP must not be called during cooldown")
	}

	clock.advance(59 * time.Second)
	if f.CanResend() {
		t.Fatal("cooldown must not elapse at 59s")
	}
	clock.advance(time.Second)
	if !f.CanResend() {
		t.Fatal("cooldown must elapse at 60s")
	}
}

func TestResendRestartsCooldownOnSuccess(t *testing.T) {
	sender := &fakeSender{}
	f, clock := newFlowWithClock(sender, 60*time.Second)

	clock.advance(61 * time.Second)
	if err := f.Resend(context.Background()); err != nil {
		t.Fatalf("Resend: %v", err)
	}
	if sender.calls != 1 {
		t.Fatalf("SendOTP calls = %d", sender.calls)
	}
	if f.CanResend() {
		t.Fatal("cooldown must restart after a successful resend")
	}
	if got := f.Remaining(); got != 60*time.Second {
		t.Fatalf("remaining = %v, want 60s", got)
	}
}

func TestResendKeepsCooldownElapsedOnFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("network down")}
	f, clock := newFlowWithClock(sender, 60*time.Second)

	clock.advance(61 * time.Second)
	if err := f.Resend(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	// The deadline only resets on success, so a retry is allowed right away.
	if !f.CanResend() {
		t.Fatal("failed resend must not restart the cooldown")
	}
	sender.err = nil
	if err := f.Resend(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if sender.calls != 2 {
		t.Fatalf("SendOTP calls = %d", sender.calls)
	}
}

func TestCountdownEndsWithZero(t *testing.T) {
	sender := &fakeSender{}
	f, clock := newFlowWithClock(sender, 2*time.Second)
	clock.advance(2 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var last int = -1
	for remaining := range f.Countdown(ctx) {
		last = remaining
	}
	if last != 0 {
		t.Fatalf("countdown ended with %d, want 0", last)
	}
}

func TestCountdownStopsOnCancel(t *testing.T) {
	sender := &fakeSender{}
	f, _ := newFlowWithClock(sender, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	ch := f.Countdown(ctx)
	<-ch
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("countdown channel did not close after cancel")
		}
	}
}
