// Package astro provides typed access to the astrologer backend REST API.
package astro

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"astro-partner/internal/cache"
	"astro-partner/internal/metrics"

	"github.com/google/uuid"
)

const (
	defaultProfileCacheTTL = 5 * time.Minute
	jsonContentType        = "application/json"
)

// APIError is a server-reported business failure (success_code != 1 or an
// HTTP error status). The message is the server's own when present so the
// calling layer can surface it verbatim.
type APIError struct {
	Endpoint string
	Code     int
	Message  string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("astro %s error: %s (code=%d)", e.Endpoint, e.Message, e.Code)
	}
	return fmt.Sprintf("astro %s error: %s", e.Endpoint, e.Message)
}

// IsAPIError reports whether err is a server-side business failure and
// returns it when so.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// profileCache is the slice of the redis wrapper the client uses for the
// profile read-through cache.
type profileCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Client provides typed access to the astrologer backend.
type Client struct {
	logger     *slog.Logger
	baseURL    string
	timeout    time.Duration
	http       *http.Client
	metrics    *metrics.Metrics
	cache      profileCache
	profileTTL time.Duration
}

// Config holds astrologer backend client configuration.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	ProfileCacheTTL time.Duration
}

// New creates a new backend client.
func New(cfg Config, logger *slog.Logger, metrics *metrics.Metrics, redis *cache.Redis) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "http://localhost:5000/api/astrologer"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ttl := cfg.ProfileCacheTTL
	if ttl <= 0 {
		ttl = defaultProfileCacheTTL
	}
	client := &Client{
		logger:     logger.With("component", "astro_api"),
		baseURL:    base,
		timeout:    timeout,
		http:       &http.Client{Timeout: timeout},
		metrics:    metrics,
		profileTTL: ttl,
	}
	if redis != nil {
		client.cache = redis
	}
	return client
}

// flexInt decodes JSON numbers that may arrive as numbers or strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var intVal int
	if err := json.Unmarshal(data, &intVal); err == nil {
		*f = flexInt(intVal)
		return nil
	}
	str := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if str == "" || str == "null" {
		*f = 0
		return nil
	}
	parsed, err := strconv.Atoi(str)
	if err != nil {
		return fmt.Errorf("parse int %q: %w", str, err)
	}
	*f = flexInt(parsed)
	return nil
}

// flexBool decodes booleans that may arrive as bools, 0/1 numbers or strings.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var boolVal bool
	if err := json.Unmarshal(data, &boolVal); err == nil {
		*f = flexBool(boolVal)
		return nil
	}
	str := strings.Trim(strings.TrimSpace(string(data)), `"`)
	*f = flexBool(str == "1" || strings.EqualFold(str, "true"))
	return nil
}

// envelope mirrors the backend's standard response shape.
type envelope struct {
	SuccessCode flexInt         `json:"success_code"`
	Message     string          `json:"message"`
	Data        json.RawMessage `json:"data"`

	// verify-otp extras
	ProfileStatus flexInt  `json:"profile_status"`
	IsVerified    flexBool `json:"is_verified"`

	// upload extra
	ImageURL string `json:"image_url"`
}

// SendOTP requests an OTP for the given mobile number. A business failure
// (success_code != 1) is returned as *APIError carrying the server message.
func (c *Client) SendOTP(ctx context.Context, mobile string) error {
	body := map[string]string{"mobile": mobile}
	env, err := c.postJSON(ctx, "/send-otp", body)
	if err != nil {
		if c.metrics != nil {
			c.metrics.OTPSends.WithLabelValues("error").Inc()
		}
		return err
	}
	if int(env.SuccessCode) != 1 {
		if c.metrics != nil {
			c.metrics.OTPSends.WithLabelValues("rejected").Inc()
		}
		return &APIError{Endpoint: "/send-otp", Code: int(env.SuccessCode), Message: messageOrDefault(env.Message, "Failed to send verification code")}
	}
	if c.metrics != nil {
		c.metrics.OTPSends.WithLabelValues("ok").Inc()
	}
	return nil
}

// VerifyResult reports the outcome of an OTP verification.
type VerifyResult struct {
	// ProfileStatus is 0 for a new user, nonzero for an existing profile.
	ProfileStatus int
	// Verified carries the server's is_verified flag. Routing currently
	// does not branch on it for existing profiles; kept so callers can.
	Verified bool
	Message  string
}

// VerifyOTP submits the entered code for verification.
func (c *Client) VerifyOTP(ctx context.Context, mobile, otp string) (*VerifyResult, error) {
	body := map[string]string{"mobile": mobile, "otp": otp}
	env, err := c.postJSON(ctx, "/verify-otp", body)
	if err != nil {
		return nil, err
	}
	if int(env.SuccessCode) != 1 {
		return nil, &APIError{Endpoint: "/verify-otp", Code: int(env.SuccessCode), Message: messageOrDefault(env.Message, "Verification failed")}
	}
	return &VerifyResult{
		ProfileStatus: int(env.ProfileStatus),
		Verified:      bool(env.IsVerified),
		Message:       env.Message,
	}, nil
}

// Profile is the server-owned astrologer record. The client holds a
// read-through cached copy and never treats it as authoritative beyond
// immediate optimistic feedback.
type Profile struct {
	PhoneNumber   string   `json:"phoneNumber"`
	FullName      string   `json:"fullName"`
	Description   string   `json:"description"`
	Languages     []string `json:"languages"`
	ProfileImage  string   `json:"profileImage"`
	PracticeAreas string   `json:"practiceAreas"`
	Experience    flexInt  `json:"experience"`
	ChatStatus    flexBool `json:"chat_status"`
	CallStatus    flexBool `json:"call_status"`
	SessionCharge flexInt  `json:"sessionCharge"`
}

// ExperienceYears returns the experience field as a plain int.
func (p *Profile) ExperienceYears() int { return int(p.Experience) }

// ChatOnline reports the server-side chat availability flag.
func (p *Profile) ChatOnline() bool { return bool(p.ChatStatus) }

// CallOnline reports the server-side call availability flag.
func (p *Profile) CallOnline() bool { return bool(p.CallStatus) }

func profileCacheKey(phoneNumber string) string {
	return "astro:profile:" + phoneNumber
}

// GetProfile fetches the profile for a phone number. Results are cached in
// redis when configured; forceRefresh bypasses the cache, which callers use
// to reconcile after any mutation.
func (c *Client) GetProfile(ctx context.Context, phoneNumber string, forceRefresh bool) (*Profile, error) {
	key := profileCacheKey(phoneNumber)
	if c.cache != nil && !forceRefresh {
		var cached Profile
		ok, err := c.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			c.logger.Warn("read profile cache failed", "error", err)
		} else if ok {
			return &cached, nil
		}
	}

	body := map[string]string{"phoneNumber": phoneNumber}
	env, err := c.postJSON(ctx, "/get-profile", body)
	if err != nil {
		return nil, err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, &APIError{Endpoint: "/get-profile", Message: messageOrDefault(env.Message, "Profile not found")}
	}

	var profile Profile
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if profile.PhoneNumber == "" {
		profile.PhoneNumber = phoneNumber
	}

	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, key, &profile, c.profileTTL); err != nil {
			c.logger.Warn("set profile cache failed", "error", err)
		}
	}
	return &profile, nil
}

// SaveProfileRequest carries the full onboarding draft for submission.
type SaveProfileRequest struct {
	PhoneNumber    string   `json:"phoneNumber"`
	FullName       string   `json:"fullName"`
	Description    string   `json:"description"`
	Languages      []string `json:"languages"`
	ProfileImage   string   `json:"profileImage"`
	CertificateURL string   `json:"certificate_url"`
	PANNumber      string   `json:"panNumber"`
	SessionCharge  int      `json:"sessionCharge"`
	Experience     int      `json:"experience"`
	PracticeAreas  string   `json:"practiceAreas"`
	UPIID          string   `json:"upi_id"`
}

// SaveProfile submits the completed onboarding draft.
func (c *Client) SaveProfile(ctx context.Context, req SaveProfileRequest) error {
	env, err := c.postJSON(ctx, "/save-profile", req)
	if err != nil {
		return err
	}
	if int(env.SuccessCode) != 1 {
		return &APIError{Endpoint: "/save-profile", Code: int(env.SuccessCode), Message: messageOrDefault(env.Message, "Something went wrong while submitting your details. Please try again.")}
	}
	c.bustProfileCache(ctx, req.PhoneNumber)
	return nil
}

// UpdateProfileRequest carries the editable profile fields.
type UpdateProfileRequest struct {
	PhoneNumber   string `json:"phoneNumber"`
	FullName      string `json:"fullName"`
	Description   string `json:"description"`
	SessionCharge int    `json:"sessionCharge"`
	ProfileImage  string `json:"profileImage"`
}

// UpdateProfile saves edits to an existing profile.
func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) error {
	env, err := c.postJSON(ctx, "/update-profile", req)
	if err != nil {
		return err
	}
	if int(env.SuccessCode) != 1 {
		return &APIError{Endpoint: "/update-profile", Code: int(env.SuccessCode), Message: messageOrDefault(env.Message, "Failed to update profile")}
	}
	c.bustProfileCache(ctx, req.PhoneNumber)
	return nil
}

// UpdateCallStatus persists both availability flags. The backend expects
// the full pair on every call, not just the changed one.
func (c *Client) UpdateCallStatus(ctx context.Context, phoneNumber string, chatOnline, callOnline bool) error {
	body := map[string]any{
		"phoneNumber": phoneNumber,
		"chat_status": boolToInt(chatOnline),
		"call_status": boolToInt(callOnline),
	}
	env, err := c.postJSON(ctx, "/update-call-status", body)
	if err != nil {
		return err
	}
	if int(env.SuccessCode) != 1 {
		return &APIError{Endpoint: "/update-call-status", Code: int(env.SuccessCode), Message: messageOrDefault(env.Message, "Failed to update status")}
	}
	c.bustProfileCache(ctx, phoneNumber)
	return nil
}

func (c *Client) bustProfileCache(ctx context.Context, phoneNumber string) {
	if c.cache == nil || phoneNumber == "" {
		return
	}
	if err := c.cache.Delete(ctx, profileCacheKey(phoneNumber)); err != nil {
		c.logger.Warn("bust profile cache failed", "error", err)
	}
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body any) (*envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	var env envelope
	if err := c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(payload), jsonContentType, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string, dest any) error {
	reqURL := c.baseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "astro-partner/api-client")
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		if c.metrics != nil {
			c.metrics.APIRequests.WithLabelValues(endpoint, "error").Inc()
		}
		return fmt.Errorf("astro request: %w", err)
	}
	defer res.Body.Close()

	duration := time.Since(start).Seconds()
	statusLabel := strconv.Itoa(res.StatusCode)
	if c.metrics != nil {
		c.metrics.APIRequests.WithLabelValues(endpoint, statusLabel).Inc()
		c.metrics.APILatency.WithLabelValues(endpoint, statusLabel).Observe(duration)
	}

	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode >= 400 {
		message := serverMessage(bodyBytes)
		if message == "" {
			message = fmt.Sprintf("unexpected status %d", res.StatusCode)
		}
		return &APIError{Endpoint: endpoint, Code: res.StatusCode, Message: message}
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// serverMessage pulls the message field out of an error body when present.
func serverMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	return strings.TrimSpace(parsed.Message)
}

func messageOrDefault(message, fallback string) string {
	if trimmed := strings.TrimSpace(message); trimmed != "" {
		return trimmed
	}
	return fallback
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
