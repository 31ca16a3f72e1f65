// ABOUTME: Admin-only endpoints for newsletter subscribers and contact messages
// ABOUTME: Require a session token; a rejected token triggers forced sign-out

package client

import (
	"context"
	"net/http"
)

// Subscriber is a newsletter signup
type Subscriber struct {
	ID        string `json:"_id"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

// ContactMessage is a contact form submission
type ContactMessage struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

// ListSubscribers fetches newsletter subscribers
func (c *Client) ListSubscribers(ctx context.Context) ([]Subscriber, error) {
	var out []Subscriber
	if err := c.do(ctx, http.MethodGet, "/subscribers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMessages fetches contact form submissions
func (c *Client) ListMessages(ctx context.Context) ([]ContactMessage, error) {
	var out []ContactMessage
	if err := c.do(ctx, http.MethodGet, "/contact", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
