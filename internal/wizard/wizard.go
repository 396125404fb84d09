// Package wizard implements the multi-step onboarding workflow: phone
// entry, OTP verification, profession basics and profession documents,
// ending in a pending-verification state or directly on the dashboard for
// existing profiles. One wizard owns the accumulating draft; screens feed
// it instead of threading state through navigation params.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"astro-partner/internal/astro"
	"astro-partner/internal/metrics"
	"astro-partner/internal/validate"
)

// State identifies a wizard step.
type State string

const (
	StatePhoneEntry           State = "phone_entry"
	StateVerification         State = "verification"
	StateProfessionBasics     State = "profession_basics"
	StateProfessionDocs       State = "profession_docs"
	StateAwaitingVerification State = "awaiting_verification"
	StateDashboard            State = "dashboard"
)

var (
	// ErrConsentRequired indicates the terms checkbox was not ticked.
	ErrConsentRequired = errors.New("terms consent required")
	// ErrInvalidState indicates an operation that does not belong to the
	// wizard's current step.
	ErrInvalidState = errors.New("operation not valid in current wizard state")
	// ErrRequestInFlight rejects a submit while a previous one is pending.
	ErrRequestInFlight = errors.New("request already in flight")
)

// Backend is the slice of the API client the wizard needs.
type Backend interface {
	SendOTP(ctx context.Context, mobile string) error
	VerifyOTP(ctx context.Context, mobile, otp string) (*astro.VerifyResult, error)
	SaveProfile(ctx context.Context, req astro.SaveProfileRequest) error
}

// SessionRecorder persists the logged-in phone number on successful
// verification.
type SessionRecorder interface {
	SetPhoneNumber(ctx context.Context, phoneNumber string) error
	RecordLogin(ctx context.Context, phoneNumber string, profileStatus int, verified bool)
}

// Draft is the in-progress onboarding record accumulated across steps.
// Partial drafts are valid transient states; the full required set is
// enforced before final submission.
type Draft struct {
	PhoneNumber     string
	FullName        string
	Description     string
	Languages       []string
	ProfileImageURL string
	PANNumber       string
	SessionCharge   int
	ExperienceYears int
	PracticeAreas   string
	UPIID           string
	CertificateURL  string
}

// Config holds wizard tunables.
type Config struct {
	// OTPCodeLength is the expected verification code length (4 or 6
	// depending on backend version).
	OTPCodeLength int
}

// Wizard is the onboarding state machine. All methods are safe for
// concurrent use; a single in-flight flag serialises network submits so a
// double-tap cannot issue duplicate requests.
type Wizard struct {
	backend  Backend
	sessions SessionRecorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
	codeLen  int

	mu       sync.Mutex
	state    State
	draft    Draft
	inFlight bool
}

// New creates a wizard in the PhoneEntry state.
func New(backend Backend, sessions SessionRecorder, logger *slog.Logger, metricRegistry *metrics.Metrics, cfg Config) *Wizard {
	codeLen := cfg.OTPCodeLength
	if codeLen != 4 && codeLen != 6 {
		codeLen = 6
	}
	return &Wizard{
		backend:  backend,
		sessions: sessions,
		logger:   logger.With("component", "wizard"),
		metrics:  metricRegistry,
		codeLen:  codeLen,
		state:    StatePhoneEntry,
	}
}

// State returns the current step.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Draft returns a copy of the accumulated draft.
func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	draft := w.draft
	draft.Languages = append([]string(nil), w.draft.Languages...)
	return draft
}

// Reset discards the draft and returns to PhoneEntry. Drafts are never
// persisted across restarts.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft = Draft{}
	w.transitionLocked(StatePhoneEntry)
}

// SubmitPhone handles the PhoneEntry step: consent plus a valid phone
// number, then an OTP send. On acknowledgement the wizard moves to
// Verification; any failure keeps it on PhoneEntry.
func (w *Wizard) SubmitPhone(ctx context.Context, phoneNumber string, consent bool) error {
	if err := w.requireState(StatePhoneEntry); err != nil {
		return err
	}
	if !consent {
		return ErrConsentRequired
	}
	if !validate.PhoneNumber(phoneNumber) {
		errs := validate.FieldErrors{}
		errs.Set("phoneNumber", "Please enter a valid phone number")
		return errs
	}

	if err := w.beginRequest(); err != nil {
		return err
	}
	defer w.endRequest()

	if err := w.backend.SendOTP(ctx, phoneNumber); err != nil {
		w.countError()
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.PhoneNumber = phoneNumber
	w.transitionLocked(StateVerification)
	return nil
}

// SubmitCode handles the Verification step. On verify success the session
// is persisted and the wizard branches on the server-reported profile
// status: 0 routes to ProfessionBasics (new user), nonzero routes to
// Dashboard. Both verified and unverified existing profiles land on the
// dashboard; the is_verified flag is carried through VerifyResult but the
// routing does not branch on it (pending product clarification).
func (w *Wizard) SubmitCode(ctx context.Context, code string) (State, error) {
	if err := w.requireState(StateVerification); err != nil {
		return w.State(), err
	}
	if len(code) != w.codeLen {
		errs := validate.FieldErrors{}
		errs.Set("otp", fmt.Sprintf("Please enter the %d-digit verification code", w.codeLen))
		return StateVerification, errs
	}

	if err := w.beginRequest(); err != nil {
		return StateVerification, err
	}
	defer w.endRequest()

	w.mu.Lock()
	phoneNumber := w.draft.PhoneNumber
	w.mu.Unlock()

	result, err := w.backend.VerifyOTP(ctx, phoneNumber, code)
	if err != nil {
		w.countError()
		return StateVerification, err
	}

	if w.sessions != nil {
		if err := w.sessions.SetPhoneNumber(ctx, phoneNumber); err != nil {
			w.logger.Warn("failed persisting session phone number", "error", err)
		}
		w.sessions.RecordLogin(ctx, phoneNumber, result.ProfileStatus, result.Verified)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if result.ProfileStatus == 0 {
		w.transitionLocked(StateProfessionBasics)
	} else {
		w.transitionLocked(StateDashboard)
	}
	return w.state, nil
}

// Basics carries the ProfessionBasics step fields.
type Basics struct {
	FullName        string
	Description     string
	Languages       []string
	ProfileImageURL string
}

// SubmitBasics handles the ProfessionBasics step: non-empty full name, an
// uploaded profile image URL and at least one language. No network call is
// involved; the draft simply advances.
func (w *Wizard) SubmitBasics(basics Basics) error {
	if err := w.requireState(StateProfessionBasics); err != nil {
		return err
	}

	errs := validate.FieldErrors{}
	if strings.TrimSpace(basics.FullName) == "" {
		errs.Set("fullName", "Full name is required")
	}
	if basics.ProfileImageURL == "" {
		errs.Set("profileImage", "Please upload a profile photo")
	}
	languages := dedupeLanguages(basics.Languages)
	if len(languages) == 0 {
		errs.Set("languages", "Select at least one language")
	}
	if err := errs.OrNil(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.FullName = strings.TrimSpace(basics.FullName)
	w.draft.Description = strings.TrimSpace(basics.Description)
	w.draft.Languages = languages
	w.draft.ProfileImageURL = basics.ProfileImageURL
	w.transitionLocked(StateProfessionDocs)
	return nil
}

// Docs carries the ProfessionDocs step fields.
type Docs struct {
	PANNumber       string
	SessionCharge   int
	ExperienceYears int
	PracticeAreas   string
	UPIID           string
	CertificateURL  string
}

// SubmitDocs handles the final step: validates the document fields, then
// submits the full draft as a save-profile request. A validation failure
// never issues the network call; a network or server failure keeps the
// wizard on ProfessionDocs.
func (w *Wizard) SubmitDocs(ctx context.Context, docs Docs) error {
	if err := w.requireState(StateProfessionDocs); err != nil {
		return err
	}

	errs := validate.FieldErrors{}
	pan := strings.ToUpper(strings.TrimSpace(docs.PANNumber))
	if !validate.PAN(pan) {
		errs.Set("panNumber", "Invalid PAN format. Format should be: ABCDE1234F")
	}
	if docs.SessionCharge <= 0 {
		errs.Set("sessionCharge", "Session charge is required")
	}
	if docs.ExperienceYears <= 0 {
		errs.Set("experience", "Years of experience is required")
	}
	if strings.TrimSpace(docs.PracticeAreas) == "" {
		errs.Set("practiceAreas", "Practice areas are required")
	}
	if !validate.UPI(docs.UPIID) {
		errs.Set("upiId", "Invalid UPI id. Format should be: name@bank")
	}
	if docs.CertificateURL == "" {
		errs.Set("certificate", "Please upload a certificate")
	}
	if err := errs.OrNil(); err != nil {
		return err
	}

	if err := w.beginRequest(); err != nil {
		return err
	}
	defer w.endRequest()

	w.mu.Lock()
	w.draft.PANNumber = pan
	w.draft.SessionCharge = docs.SessionCharge
	w.draft.ExperienceYears = docs.ExperienceYears
	w.draft.PracticeAreas = strings.TrimSpace(docs.PracticeAreas)
	w.draft.UPIID = docs.UPIID
	w.draft.CertificateURL = docs.CertificateURL
	req := astro.SaveProfileRequest{
		PhoneNumber:    w.draft.PhoneNumber,
		FullName:       w.draft.FullName,
		Description:    w.draft.Description,
		Languages:      append([]string(nil), w.draft.Languages...),
		ProfileImage:   w.draft.ProfileImageURL,
		CertificateURL: w.draft.CertificateURL,
		PANNumber:      w.draft.PANNumber,
		SessionCharge:  w.draft.SessionCharge,
		Experience:     w.draft.ExperienceYears,
		PracticeAreas:  w.draft.PracticeAreas,
		UPIID:          w.draft.UPIID,
	}
	w.mu.Unlock()

	if err := w.backend.SaveProfile(ctx, req); err != nil {
		w.countError()
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.transitionLocked(StateAwaitingVerification)
	return nil
}

func (w *Wizard) requireState(want State) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != want {
		return fmt.Errorf("%w: have %s, want %s", ErrInvalidState, w.state, want)
	}
	return nil
}

func (w *Wizard) beginRequest() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inFlight {
		return ErrRequestInFlight
	}
	w.inFlight = true
	return nil
}

func (w *Wizard) endRequest() {
	w.mu.Lock()
	w.inFlight = false
	w.mu.Unlock()
}

func (w *Wizard) transitionLocked(to State) {
	from := w.state
	w.state = to
	if from == to {
		return
	}
	w.logger.Info("wizard transition", "from", string(from), "to", string(to))
	if w.metrics != nil {
		w.metrics.WizardTransitions.WithLabelValues(string(from), string(to)).Inc()
	}
}

func (w *Wizard) countError() {
	if w.metrics != nil {
		w.metrics.Errors.WithLabelValues("wizard").Inc()
	}
}

func dedupeLanguages(languages []string) []string {
	seen := make(map[string]struct{}, len(languages))
	out := make([]string, 0, len(languages))
	for _, lang := range languages {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			continue
		}
		if _, ok := seen[lang]; ok {
			continue
		}
		seen[lang] = struct{}{}
		out = append(out, lang)
	}
	return out
}
