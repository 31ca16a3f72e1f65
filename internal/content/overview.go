// ABOUTME: Concurrent fetch of every public content collection
// ABOUTME: The first failure cancels the remaining requests

package content

import (
	"context"
	"fmt"

	"github.com/kestreladvisory/site-console/internal/client"
	"golang.org/x/sync/errgroup"
)

// Source is the content API used by FetchOverview
type Source interface {
	ListIndustries(ctx context.Context) ([]client.Industry, error)
	ListServices(ctx context.Context) ([]client.Service, error)
	ListLeaders(ctx context.Context) ([]client.Leader, error)
	ListInsights(ctx context.Context) ([]client.Insight, error)
}

// Overview holds all public content at one point in time
type Overview struct {
	Industries []client.Industry `json:"industries"`
	Services   []client.Service  `json:"services"`
	Leaders    []client.Leader   `json:"leaders"`
	Insights   []client.Insight  `json:"insights"`
}

// CaseStudyCount totals the case studies across industries
func (o *Overview) CaseStudyCount() int {
	n := 0
	for _, ind := range o.Industries {
		n += len(ind.CaseStudies)
	}
	return n
}

// FetchOverview loads every collection in parallel
func FetchOverview(ctx context.Context, src Source) (*Overview, error) {
	var ov Overview
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		items, err := src.ListIndustries(ctx)
		if err != nil {
			return fmt.Errorf("industries: %w", err)
		}
		ov.Industries = items
		return nil
	})
	g.Go(func() error {
		items, err := src.ListServices(ctx)
		if err != nil {
			return fmt.Errorf("services: %w", err)
		}
		ov.Services = items
		return nil
	})
	g.Go(func() error {
		items, err := src.ListLeaders(ctx)
		if err != nil {
			return fmt.Errorf("leaders: %w", err)
		}
		ov.Leaders = items
		return nil
	})
	g.Go(func() error {
		items, err := src.ListInsights(ctx)
		if err != nil {
			return fmt.Errorf("insights: %w", err)
		}
		ov.Insights = items
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ov, nil
}
