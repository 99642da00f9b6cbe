package crew

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonwraymond/crewops/agent"
	"github.com/jonwraymond/crewops/observe"
	"github.com/jonwraymond/crewops/tools"
)

// SEOParams configures an SEO crew run.
type SEOParams struct {
	Domain        string
	CompanyName   string
	NumKeywords   int
	DateRangeDays int
	SortBy        string
}

// NewSEOCrew builds the two-task SEO pipeline: fetch top keywords from
// Search Console, then verify each keyword's visibility with the
// multi-model search.
func NewSEOCrew(gsc *tools.GSCTool, search *tools.KeywordSearchTool, backend observe.Backend, p SEOParams) *Crew {
	fetch := Task{
		Name:        "fetch_keywords",
		Description: "Fetch top performing keywords from Google Search Console",
		Run: func(ctx context.Context, _ string) (string, error) {
			report, err := gsc.TopKeywords(ctx, p.Domain, p.NumKeywords, p.DateRangeDays, p.SortBy)
			if err != nil {
				return "", err
			}
			raw, err := json.Marshal(report)
			if err != nil {
				return "", err
			}
			return string(raw), nil
		},
	}

	verify := Task{
		Name:        "verify_rankings",
		Description: "Verify keyword visibility through the multi-model search",
		Run: func(ctx context.Context, input string) (string, error) {
			var report tools.GSCReport
			if err := json.Unmarshal([]byte(input), &report); err != nil {
				return "", fmt.Errorf("parse keyword report: %w", err)
			}
			return verifyRankings(ctx, search, p, &report)
		},
	}

	return New("seo", backend, []Task{fetch, verify},
		WithAgents(agent.SEOAnalyst().For(p.Domain)))
}

func verifyRankings(ctx context.Context, search *tools.KeywordSearchTool, p SEOParams, report *tools.GSCReport) (string, error) {
	if len(report.Data) == 0 {
		if report.Message != "" {
			return report.Message, nil
		}
		return fmt.Sprintf("No keyword data available for %s.", p.Domain), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Keyword visibility report for %s\n\n", p.Domain)

	found := 0
	var missing []string
	for _, row := range report.Data {
		result, err := search.Search(ctx, row.Keyword, p.Domain)
		if err != nil {
			return "", err
		}

		visible := result.ConsensusFound
		if !visible && p.CompanyName != "" {
			// The domain may rank under the company name instead.
			byName, err := search.Search(ctx, row.Keyword, p.CompanyName)
			if err != nil {
				return "", err
			}
			visible = byName.ConsensusFound
		}

		mark := "✗ Not Found"
		if visible {
			mark = "✓ Found"
			found++
		} else {
			missing = append(missing, row.Keyword)
		}

		fmt.Fprintf(&b, "  %-12s %s (%.0f clicks, %.0f impressions, CTR %.2f%%, position %.1f)\n",
			mark, row.Keyword, row.Clicks, row.Impressions, row.CTR, row.Position)
	}

	total := len(report.Data)
	fmt.Fprintf(&b, "\nAnalyzed %d keywords; %d visible (%.1f%%).\n",
		total, found, float64(found)/float64(total)*100)

	if len(missing) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, kw := range missing {
			fmt.Fprintf(&b, "  - %q did not surface in search results; consider strengthening content for it.\n", kw)
		}
	}

	return b.String(), nil
}
