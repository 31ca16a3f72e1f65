// ABOUTME: Password reset state machine: email, one-time code, new password, success
// ABOUTME: Validates locally before each call and guards against duplicate in-flight requests

package reset

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/kestreladvisory/site-console/internal/client"
	"github.com/kestreladvisory/site-console/internal/session"
	"github.com/kestreladvisory/site-console/internal/validate"
	"golang.org/x/sync/singleflight"
)

// CodeLength is the number of digits in an emailed reset code
const CodeLength = 5

// Step is a position in the reset flow
type Step int

const (
	StepEmail Step = iota
	StepOTP
	StepPassword
	StepSuccess
)

func (s Step) String() string {
	switch s {
	case StepEmail:
		return "email"
	case StepOTP:
		return "otp"
	case StepPassword:
		return "password"
	case StepSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Field names a form input that can carry an error
type Field string

const (
	FieldEmail           Field = "email"
	FieldOTP             Field = "otp"
	FieldNewPassword     Field = "newPassword"
	FieldConfirmPassword Field = "confirmPassword"
)

var fieldOrder = []Field{FieldEmail, FieldOTP, FieldNewPassword, FieldConfirmPassword}

// API is the subset of the backend the flow calls
type API interface {
	RequestReset(ctx context.Context, email string) (*client.StatusResponse, error)
	VerifyOTP(ctx context.Context, email, otp string) (*client.VerifyResponse, error)
	ResetPassword(ctx context.Context, email, resetToken, newPassword string) (*client.ResetResponse, error)
}

const (
	actionRequest  = "request"
	actionVerify   = "verify"
	actionFinalize = "finalize"
)

type emailForm struct {
	Email string `json:"email" validate:"required,looseemail"`
}

type codeForm struct {
	OTP string `json:"otp" validate:"len=5,digits"`
}

type passwordForm struct {
	NewPassword     string `json:"newPassword" validate:"min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=NewPassword"`
}

var messages = validate.Messages{
	"otp":                     "Please enter the 5-digit code",
	"newPassword":             "Password must be at least 6 characters",
	"confirmPassword.eqfield": "Passwords do not match",
}

// Flow holds one reset attempt. Nothing here is persisted; a new Flow
// always starts at StepEmail.
type Flow struct {
	api   API
	store session.Store

	mu              sync.Mutex
	step            Step
	email           string
	code            [CodeLength]string
	newPassword     string
	confirmPassword string
	resetToken      string
	errs            map[Field]string

	// busy is the key of the call in flight and busyGen the step generation
	// it started under; gen changes whenever the step does
	busy    string
	busyGen int
	gen     int
	group   singleflight.Group
}

// New creates a flow. store may be nil; when set, a reset response that
// carries a session signs the user in.
func New(api API, store session.Store) *Flow {
	return &Flow{
		api:   api,
		store: store,
		errs:  make(map[Field]string),
	}
}

// Step returns the current step
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Email returns the address being reset
func (f *Flow) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// Digits returns the code positions as entered
func (f *Flow) Digits() [CodeLength]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.code
}

// ResetToken returns the credential issued by code verification
func (f *Flow) ResetToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resetToken
}

// Errors returns a copy of the current field errors
func (f *Flow) Errors() map[Field]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[Field]string, len(f.errs))
	for k, v := range f.errs {
		out[k] = v
	}
	return out
}

// Loading reports whether a request is in flight
func (f *Flow) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy != "" && f.busyGen == f.gen
}

// SetEmail updates the email field and clears its error
func (f *Flow) SetEmail(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step == StepSuccess {
		return
	}
	f.email = email
	delete(f.errs, FieldEmail)
}

// SetNewPassword updates the new password and clears its error
func (f *Flow) SetNewPassword(pw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step == StepSuccess {
		return
	}
	f.newPassword = pw
	delete(f.errs, FieldNewPassword)
}

// SetConfirmPassword updates the confirmation and clears its error
func (f *Flow) SetConfirmPassword(pw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step == StepSuccess {
		return
	}
	f.confirmPassword = pw
	delete(f.errs, FieldConfirmPassword)
}

// EnterDigit sets position i to a single digit, or clears it when d is empty.
// It returns true when the last position was just filled and every other
// position is filled too; the caller should then verify once.
func (f *Flow) EnterDigit(i int, d string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepOTP || i < 0 || i >= CodeLength {
		return false
	}
	if d != "" && (len(d) != 1 || !validate.IsDigits(d)) {
		return false
	}

	f.code[i] = d
	delete(f.errs, FieldOTP)

	return i == CodeLength-1 && d != "" && f.codeFilled()
}

// ClearDigit empties position i
func (f *Flow) ClearDigit(i int) {
	f.EnterDigit(i, "")
}

// PasteCode spreads s across the code positions. Input longer than the
// code is ignored. It returns true when every position ends up filled.
func (f *Flow) PasteCode(s string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	s = strings.TrimSpace(s)
	if f.step != StepOTP || s == "" || utf8.RuneCountInString(s) > CodeLength {
		return false
	}

	f.code = [CodeLength]string{}
	i := 0
	for _, r := range s {
		f.code[i] = string(r)
		i++
	}
	delete(f.errs, FieldOTP)

	return f.codeFilled()
}

func (f *Flow) codeFilled() bool {
	for _, d := range f.code {
		if d == "" {
			return false
		}
	}
	return true
}

// RequestCode asks the backend to email a code and advances to StepOTP
func (f *Flow) RequestCode(ctx context.Context) error {
	return f.requestCode(ctx, StepEmail)
}

// Resend requests a fresh code while staying on StepOTP. Entered digits are cleared.
func (f *Flow) Resend(ctx context.Context) error {
	return f.requestCode(ctx, StepOTP)
}

func (f *Flow) requestCode(ctx context.Context, from Step) error {
	f.mu.Lock()
	if err := f.checkStep(from); err != nil {
		f.mu.Unlock()
		return err
	}
	if verr := f.validate(&emailForm{Email: f.email}); verr != nil {
		f.mu.Unlock()
		return verr
	}
	email := f.email
	f.mu.Unlock()

	return f.run(actionRequest, func(gen int) error {
		resp, err := f.api.RequestReset(ctx, email)
		if err != nil {
			return err
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		if gen != f.gen {
			return ErrSuperseded
		}
		if !resp.Success {
			return rejected(resp.Message, "Failed to send reset code")
		}

		if f.step == StepOTP {
			f.code = [CodeLength]string{}
			delete(f.errs, FieldOTP)
		}
		f.setStep(StepOTP)
		slog.Info("Reset code requested", "email", email)
		return nil
	})
}

// VerifyCode checks the entered code and advances to StepPassword once the
// backend issues a reset credential.
func (f *Flow) VerifyCode(ctx context.Context) error {
	f.mu.Lock()
	if err := f.checkStep(StepOTP); err != nil {
		f.mu.Unlock()
		return err
	}
	code := strings.Join(f.code[:], "")
	if verr := f.validate(&codeForm{OTP: code}); verr != nil {
		f.mu.Unlock()
		return verr
	}
	email := f.email
	f.mu.Unlock()

	return f.run(actionVerify, func(gen int) error {
		resp, err := f.api.VerifyOTP(ctx, email, code)
		if err != nil {
			return err
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		if gen != f.gen {
			return ErrSuperseded
		}
		if !resp.Success {
			return rejected(resp.Message, "Invalid or expired code")
		}
		if resp.ResetToken == "" {
			slog.Warn("Code verified without a reset token", "email", email)
			return rejected("", "Verification failed, please request a new code")
		}

		f.resetToken = resp.ResetToken
		f.setStep(StepPassword)
		return nil
	})
}

// Finalize submits the new password and moves to the terminal StepSuccess
func (f *Flow) Finalize(ctx context.Context) error {
	f.mu.Lock()
	if err := f.checkStep(StepPassword); err != nil {
		f.mu.Unlock()
		return err
	}
	if verr := f.validate(&passwordForm{NewPassword: f.newPassword, ConfirmPassword: f.confirmPassword}); verr != nil {
		f.mu.Unlock()
		return verr
	}
	email, token, pw := f.email, f.resetToken, f.newPassword
	f.mu.Unlock()

	return f.run(actionFinalize, func(gen int) error {
		resp, err := f.api.ResetPassword(ctx, email, token, pw)
		if err != nil {
			return err
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		if gen != f.gen {
			return ErrSuperseded
		}
		if !resp.Success {
			return rejected(resp.Message, "Failed to reset password")
		}

		f.setStep(StepSuccess)
		f.newPassword, f.confirmPassword, f.resetToken = "", "", ""
		slog.Info("Password reset", "email", email)

		if f.store != nil && resp.Token != "" && resp.User != nil {
			if err := f.store.Set(resp.Token, *resp.User); err != nil {
				slog.Error("Failed to store session after reset", "error", err)
			}
		}
		return nil
	})
}

// Back returns to the previous step. A response still in flight for the
// step being left is discarded.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.step {
	case StepOTP:
		f.code = [CodeLength]string{}
		delete(f.errs, FieldOTP)
		f.setStep(StepEmail)
	case StepPassword:
		f.resetToken = ""
		delete(f.errs, FieldNewPassword)
		delete(f.errs, FieldConfirmPassword)
		f.setStep(StepOTP)
	case StepSuccess:
		return ErrFlowComplete
	default:
		return ErrInvalidStep
	}
	return nil
}

// run executes fn once per action and step generation. Callers repeating
// an action already in flight share its result; a different action gets
// ErrBusy. A call left over from an earlier step neither blocks nor absorbs
// new work; its result is discarded as ErrSuperseded.
func (f *Flow) run(action string, fn func(gen int) error) error {
	f.mu.Lock()
	gen := f.gen
	key := fmt.Sprintf("%s/%d", action, gen)
	if f.busy != "" && f.busy != key && f.busyGen == gen {
		f.mu.Unlock()
		return ErrBusy
	}
	f.busy, f.busyGen = key, gen
	f.mu.Unlock()

	_, err, shared := f.group.Do(key, func() (any, error) {
		defer func() {
			f.mu.Lock()
			if f.busy == key {
				f.busy = ""
			}
			f.mu.Unlock()
		}()
		return nil, fn(gen)
	})
	if shared {
		slog.Debug("Joined in-flight reset request", "action", action)
	}
	return err
}

// checkStep must be called with mu held
func (f *Flow) checkStep(want Step) error {
	if f.step == StepSuccess {
		return ErrFlowComplete
	}
	if f.step != want {
		return ErrInvalidStep
	}
	return nil
}

// validate must be called with mu held. Failing fields are recorded.
func (f *Flow) validate(form any) *ValidationError {
	errs := validate.Struct(form, messages)
	if len(errs) == 0 {
		return nil
	}
	fields := make(map[Field]string, len(errs))
	for k, v := range errs {
		fields[Field(k)] = v
		f.errs[Field(k)] = v
	}
	return &ValidationError{Fields: fields}
}

// setStep must be called with mu held
func (f *Flow) setStep(s Step) {
	f.step = s
	f.gen++
}

func rejected(msg, fallback string) error {
	if msg == "" {
		msg = fallback
	}
	return &RejectedError{Message: msg}
}
