// ABOUTME: Error types returned by the password reset flow
// ABOUTME: Separates local validation, server rejection and flow-state errors

package reset

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kestreladvisory/site-console/internal/client"
)

var (
	// ErrBusy is returned when a different action is already in flight
	ErrBusy = errors.New("another request is in progress")
	// ErrFlowComplete is returned by every action once the password is reset
	ErrFlowComplete = errors.New("password reset already complete")
	// ErrInvalidStep is returned when an action does not belong to the current step
	ErrInvalidStep = errors.New("action not available at this step")
	// ErrSuperseded is returned when the user navigated away before a response arrived
	ErrSuperseded = errors.New("response arrived after the step changed")
)

// ValidationError lists per-field problems found before any network call
type ValidationError struct {
	Fields map[Field]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[Field(k)]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// RejectedError means the server answered but refused the action
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// Message turns any flow error into text for a transient notification
func Message(err error) string {
	var (
		verr   *ValidationError
		rejErr *RejectedError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		for _, f := range fieldOrder {
			if msg, ok := verr.Fields[f]; ok {
				return msg
			}
		}
		return "Please check the form"
	case errors.As(err, &rejErr):
		return rejErr.Message
	case errors.Is(err, ErrBusy):
		return "Please wait for the current request to finish"
	case errors.Is(err, ErrFlowComplete):
		return "Password already reset. Sign in to continue."
	default:
		return client.ErrorMessage(err)
	}
}
