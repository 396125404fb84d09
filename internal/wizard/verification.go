package wizard

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrCooldownActive rejects a resend before the countdown reaches zero.
	ErrCooldownActive = errors.New("resend cooldown active")
	// ErrResendInFlight rejects overlapping resend requests.
	ErrResendInFlight = errors.New("resend already in flight")
)

// OTPSender re-issues the verification code.
type OTPSender interface {
	SendOTP(ctx context.Context, mobile string) error
}

// VerificationFlow owns the resend countdown for the verification step.
// The cooldown starts when the flow is created (an OTP has just been sent)
// and restarts after each successful resend. The countdown is deadline
// based; Countdown ties its ticker to a context so tearing the screen down
// cancels the timer.
type VerificationFlow struct {
	sender      OTPSender
	phoneNumber string
	cooldown    time.Duration
	now         func() time.Time

	mu           sync.Mutex
	nextResendAt time.Time
	inFlight     bool
}

// NewVerificationFlow creates a flow with the cooldown already running.
func NewVerificationFlow(sender OTPSender, phoneNumber string, cooldown time.Duration) *VerificationFlow {
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	f := &VerificationFlow{
		sender:      sender,
		phoneNumber: phoneNumber,
		cooldown:    cooldown,
		now:         time.Now,
	}
	f.nextResendAt = f.now().Add(cooldown)
	return f
}

// Remaining returns the time left on the cooldown, zero when a resend is
// available.
func (f *VerificationFlow) Remaining() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	remaining := f.nextResendAt.Sub(f.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanResend reports whether the cooldown has elapsed.
func (f *VerificationFlow) CanResend() bool {
	return f.Remaining() == 0
}

// Resend re-issues the OTP and restarts the cooldown. A resend during the
// cooldown or while another resend is pending is rejected, so a rapid
// double-tap cannot produce two send requests.
func (f *VerificationFlow) Resend(ctx context.Context) error {
	f.mu.Lock()
	if f.nextResendAt.After(f.now()) {
		f.mu.Unlock()
		return ErrCooldownActive
	}
	if f.inFlight {
		f.mu.Unlock()
		return ErrResendInFlight
	}
	f.inFlight = true
	f.mu.Unlock()

	err := f.sender.SendOTP(ctx, f.phoneNumber)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	if err != nil {
		// Cooldown stays elapsed so the user can retry.
		return err
	}
	f.nextResendAt = f.now().Add(f.cooldown)
	return nil
}

// Countdown emits the remaining whole seconds once per second, ending with
// a zero, then closes. Cancelling ctx stops the ticker immediately.
func (f *VerificationFlow) Countdown(ctx context.Context) <-chan int {
	out := make(chan int, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			remaining := int(f.Remaining().Round(time.Second) / time.Second)
			select {
			case out <- remaining:
			case <-ctx.Done():
				return
			}
			if remaining == 0 {
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
