// ABOUTME: Sign-in and password reset endpoints
// ABOUTME: Request and response types for the /users API

package client

import (
	"context"
	"net/http"

	"github.com/kestreladvisory/site-console/internal/session"
)

// LoginRequest is the body of POST /users/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session token and user snapshot
type LoginResponse struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

// StatusResponse is the {success, message} shape shared by the reset endpoints
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// VerifyResponse is returned by POST /users/verify-otp
type VerifyResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	ResetToken string `json:"resetToken"`
}

// ResetResponse is returned by POST /users/reset.
// Token and User are present when the backend signs the user in.
type ResetResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Token   string        `json:"token,omitempty"`
	User    *session.User `json:"user,omitempty"`
}

// Login exchanges credentials for a session token
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/users/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestReset asks the backend to email a one-time code
func (c *Client) RequestReset(ctx context.Context, email string) (*StatusResponse, error) {
	var resp StatusResponse
	body := map[string]string{"email": email}
	if err := c.do(ctx, http.MethodPost, "/users/request-reset", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyOTP trades the emailed code for a reset credential
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*VerifyResponse, error) {
	var resp VerifyResponse
	body := map[string]string{"email": email, "otp": otp}
	if err := c.do(ctx, http.MethodPost, "/users/verify-otp", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResetPassword sets a new password using the reset credential
func (c *Client) ResetPassword(ctx context.Context, email, resetToken, newPassword string) (*ResetResponse, error) {
	var resp ResetResponse
	body := map[string]string{
		"email":       email,
		"resetToken":  resetToken,
		"newPassword": newPassword,
	}
	if err := c.do(ctx, http.MethodPost, "/users/reset", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
