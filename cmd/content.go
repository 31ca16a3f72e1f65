// ABOUTME: Public content commands for site-console CLI
// ABOUTME: Lists industries, services, leaders, insights and case studies from the site API

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kestreladvisory/site-console/internal/client"
	"github.com/kestreladvisory/site-console/internal/content"
	"github.com/spf13/cobra"
)

var (
	insightsCategory string
	insightsSearch   string
	insightsPage     int
	insightsPerPage  int

	casesIndustry string
	casesShow     int
)

// contentCommand wraps a runX function in the signal-aware Run used by every command
func contentCommand(use, short string, run func(context.Context, io.Writer) int) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			exitCode := run(ctx, os.Stdout)
			if exitCode != 0 {
				os.Exit(exitCode)
			}
		},
	}
}

var (
	industriesCmd = contentCommand("industries", "List industries served", runIndustries)
	servicesCmd   = contentCommand("services", "List service offerings", runServices)
	leadersCmd    = contentCommand("leaders", "List the leadership team", runLeaders)
	insightsCmd   = contentCommand("insights", "List insights, filtered and paginated", runInsights)
	casesCmd      = contentCommand("cases", "Show case studies for one industry", runCases)
	overviewCmd   = contentCommand("overview", "Fetch all content at once and summarize it", runOverview)
)

func init() {
	rootCmd.AddCommand(industriesCmd, servicesCmd, leadersCmd, insightsCmd, casesCmd, overviewCmd)

	insightsCmd.Flags().StringVar(&insightsCategory, "category", content.AllCategories, "Only show this category")
	insightsCmd.Flags().StringVar(&insightsSearch, "search", "", "Match against title and summary")
	insightsCmd.Flags().IntVar(&insightsPage, "page", 1, "Page number")
	insightsCmd.Flags().IntVar(&insightsPerPage, "per-page", content.DefaultPerPage, "Insights per page")

	casesCmd.Flags().StringVar(&casesIndustry, "industry", "", "Industry slug, id or name")
	casesCmd.Flags().IntVar(&casesShow, "show", content.InitialVisible, "Reveal at least this many case studies")
}

// publicClient builds a client for endpoints that need no session
func publicClient(w io.Writer) (*client.Client, int) {
	c, err := newClient(newStore(), hintNavigator(w))
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return nil, 2
	}
	return c, 0
}

// runIndustries lists industries and returns exit code
func runIndustries(ctx context.Context, w io.Writer) int {
	c, code := publicClient(w)
	if c == nil {
		return code
	}

	industries, err := c.ListIndustries(ctx)
	if err != nil {
		return reportError(w, err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(industries))
		return 0
	}
	if len(industries) == 0 {
		fmt.Fprintln(w, "No industries.")
		return 0
	}
	for _, ind := range industries {
		fmt.Fprintf(w, "%-28s %-24s %d case studies\n", ind.Name, ind.Slug, len(ind.CaseStudies))
	}
	return 0
}

// runServices lists services and returns exit code
func runServices(ctx context.Context, w io.Writer) int {
	c, code := publicClient(w)
	if c == nil {
		return code
	}

	services, err := c.ListServices(ctx)
	if err != nil {
		return reportError(w, err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(services))
		return 0
	}
	if len(services) == 0 {
		fmt.Fprintln(w, "No services.")
		return 0
	}
	for i, s := range services {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\n  %s\n", s.Title, s.Description)
		for _, f := range s.Features {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}
	return 0
}

// runLeaders lists leaders and returns exit code
func runLeaders(ctx context.Context, w io.Writer) int {
	c, code := publicClient(w)
	if c == nil {
		return code
	}

	leaders, err := c.ListLeaders(ctx)
	if err != nil {
		return reportError(w, err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(leaders))
		return 0
	}
	if len(leaders) == 0 {
		fmt.Fprintln(w, "No leaders.")
		return 0
	}
	for _, l := range leaders {
		fmt.Fprintf(w, "%-28s %s\n", l.Name, l.Position)
	}
	return 0
}

// runInsights filters and paginates insights and returns exit code
func runInsights(ctx context.Context, w io.Writer) int {
	c, code := publicClient(w)
	if c == nil {
		return code
	}

	all, err := c.ListInsights(ctx)
	if err != nil {
		return reportError(w, err)
	}

	filtered := content.FilterInsights(all, content.InsightQuery{
		Category: insightsCategory,
		Search:   insightsSearch,
	})
	page := content.Paginate(filtered, insightsPage, insightsPerPage)

	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(page))
	} else {
		fmt.Fprintln(w, formatInsightsHuman(page, content.Categories(all)))
	}
	return 0
}

func formatInsightsHuman(page content.Page[client.Insight], categories []string) string {
	if page.Total == 0 {
		return "No insights match."
	}

	var sb strings.Builder
	for _, it := range page.Items {
		fmt.Fprintf(&sb, "[%s] %s\n  %s, %s\n  %s\n\n", it.Category, it.Title, it.Author, it.Date, it.Summary)
	}
	fmt.Fprintf(&sb, "Page %d of %d (%d insights)", page.Page, page.TotalPages, page.Total)
	if page.HasNext() {
		fmt.Fprintf(&sb, ", next: --page %d", page.Page+1)
	}
	if len(categories) > 0 {
		fmt.Fprintf(&sb, "\nCategories: %s", strings.Join(categories, ", "))
	}
	return sb.String()
}

// runCases shows the case studies of one industry and returns exit code
func runCases(ctx context.Context, w io.Writer) int {
	if strings.TrimSpace(casesIndustry) == "" {
		fmt.Fprintln(w, "Error: --industry is required")
		return 2
	}

	c, code := publicClient(w)
	if c == nil {
		return code
	}

	industries, err := c.ListIndustries(ctx)
	if err != nil {
		return reportError(w, err)
	}

	ind, ok := content.FindIndustry(industries, casesIndustry)
	if !ok {
		fmt.Fprintf(w, "Error: no industry matches %q\n", casesIndustry)
		return 1
	}

	exp := content.NewExpander(len(ind.CaseStudies))
	exp.ShowN(casesShow)
	visible := ind.CaseStudies[:exp.Visible()]

	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(visible))
		return 0
	}
	fmt.Fprintln(w, formatCasesHuman(ind, visible, exp))
	return 0
}

func formatCasesHuman(ind client.Industry, visible []client.CaseStudy, exp *content.Expander) string {
	if len(ind.CaseStudies) == 0 {
		return fmt.Sprintf("%s has no case studies.", ind.Name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: showing %d of %d case studies\n", ind.Name, len(visible), len(ind.CaseStudies))
	for _, cs := range visible {
		fmt.Fprintf(&sb, "\n%s (%s)\n  Challenge: %s\n  Outcome:   %s\n", cs.Title, cs.Client, cs.Challenge, cs.Outcome)
	}
	if exp.HasMore() {
		fmt.Fprintf(&sb, "\nMore available: --show %d", exp.Visible()+content.ExpandStep)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// runOverview fetches every collection concurrently and returns exit code
func runOverview(ctx context.Context, w io.Writer) int {
	c, code := publicClient(w)
	if c == nil {
		return code
	}

	ov, err := content.FetchOverview(ctx, c)
	if err != nil {
		return reportError(w, err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(map[string]int{
			"industries":  len(ov.Industries),
			"caseStudies": ov.CaseStudyCount(),
			"services":    len(ov.Services),
			"leaders":     len(ov.Leaders),
			"insights":    len(ov.Insights),
		}))
		return 0
	}

	fmt.Fprintf(w, `Backend:       %s
Industries:    %d
Case studies:  %d
Services:      %d
Leaders:       %d
Insights:      %d
`,
		c.BaseURL(),
		len(ov.Industries),
		ov.CaseStudyCount(),
		len(ov.Services),
		len(ov.Leaders),
		len(ov.Insights))
	return 0
}
