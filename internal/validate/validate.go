// Package validate holds the pure form-field validators used by the
// onboarding wizard and profile screens. All validators are total over
// strings; an empty input means "not yet validated" rather than invalid,
// and callers surface an error only once the field is non-empty.
package validate

import (
	"regexp"
	"strings"
)

var (
	// Indian mobile numbers: exactly 10 digits, leading digit 6-9.
	phoneRegex = regexp.MustCompile(`^[6-9]\d{9}$`)

	// PAN format: ABCDE1234F (5 letters, 4 digits, 1 letter).
	panRegex = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)

	// UPI handle: local part of word chars, dot, underscore, hyphen,
	// followed by @ and a bank identifier of word chars only.
	upiRegex = regexp.MustCompile(`^[\w.-]+@\w+$`)
)

// PhoneNumber reports whether input is a valid Indian mobile number.
func PhoneNumber(input string) bool {
	return phoneRegex.MatchString(input)
}

// PAN reports whether input is a valid PAN number. Input is normalised to
// upper case before the check, matching the entry field behaviour.
func PAN(input string) bool {
	return panRegex.MatchString(strings.ToUpper(input))
}

// UPI reports whether input is a valid UPI payment handle.
func UPI(input string) bool {
	return upiRegex.MatchString(input)
}

// FieldErrors maps field names to user-facing validation messages. It is
// the typed replacement for per-field alert popups: presentation stays
// with the calling layer.
type FieldErrors map[string]string

// Error implements the error interface.
func (f FieldErrors) Error() string {
	if len(f) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(f))
	for field, msg := range f {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Set records a message for a field.
func (f FieldErrors) Set(field, message string) {
	f[field] = message
}

// Has reports whether the field currently carries an error.
func (f FieldErrors) Has(field string) bool {
	_, ok := f[field]
	return ok
}

// OrNil returns the receiver as an error, or nil when no field failed.
func (f FieldErrors) OrNil() error {
	if len(f) == 0 {
		return nil
	}
	return f
}

// CheckPAN applies the non-empty-then-validate rule used by the PAN entry
// field: empty input clears the error, invalid non-empty input sets it.
func CheckPAN(input string, errs FieldErrors) {
	if input != "" && !PAN(input) {
		errs.Set("panNumber", "Invalid PAN format. Format should be: ABCDE1234F")
		return
	}
	delete(errs, "panNumber")
}

// CheckUPI applies the non-empty-then-validate rule to a UPI handle.
func CheckUPI(input string, errs FieldErrors) {
	if input != "" && !UPI(input) {
		errs.Set("upiId", "Invalid UPI id. Format should be: name@bank")
		return
	}
	delete(errs, "upiId")
}
