// ABOUTME: Public content endpoints: industries, services, leaders, insights
// ABOUTME: Read-only resources rendered by the browse commands

package client

import (
	"context"
	"net/http"
)

// CaseStudy is embedded in an industry record
type CaseStudy struct {
	Title     string `json:"title"`
	Client    string `json:"client"`
	Challenge string `json:"challenge"`
	Outcome   string `json:"outcome"`
}

// Industry is a sector the firm serves
type Industry struct {
	ID          string      `json:"_id"`
	Slug        string      `json:"slug"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	CaseStudies []CaseStudy `json:"caseStudies"`
}

// Service is an offering on the services page
type Service struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
}

// Leader is a member of the leadership team
type Leader struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Position string `json:"position"`
	Bio      string `json:"bio"`
	LinkedIn string `json:"linkedin"`
}

// Insight is a published article
type Insight struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Summary  string `json:"summary"`
	Author   string `json:"author"`
	Date     string `json:"date"`
}

// ListIndustries fetches all industries with their case studies
func (c *Client) ListIndustries(ctx context.Context) ([]Industry, error) {
	var out []Industry
	if err := c.do(ctx, http.MethodGet, "/industries", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListServices fetches the service catalogue
func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	var out []Service
	if err := c.do(ctx, http.MethodGet, "/services", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListLeaders fetches the leadership team
func (c *Client) ListLeaders(ctx context.Context) ([]Leader, error) {
	var out []Leader
	if err := c.do(ctx, http.MethodGet, "/leaders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListInsights fetches all published insights
func (c *Client) ListInsights(ctx context.Context) ([]Insight, error) {
	var out []Insight
	if err := c.do(ctx, http.MethodGet, "/insights", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
