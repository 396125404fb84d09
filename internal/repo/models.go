package repo

import "time"

// LoginEvent records a successful OTP verification on this device.
type LoginEvent struct {
	ID            string
	PhoneNumber   string
	ProfileStatus int
	Verified      bool
	CreatedAt     time.Time
}
