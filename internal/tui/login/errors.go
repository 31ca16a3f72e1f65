// ABOUTME: Error helpers for the sign-in screen
// ABOUTME: Adapts validation messages to huh's error-returning validators

package login

import "errors"

var errMissingToken = errors.New("sign-in response did not include a token")

func fieldErr(msg string) error {
	if msg == "" {
		return nil
	}
	return errors.New(msg)
}
