package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/crewops/crew"
	"github.com/jonwraymond/crewops/tools"
)

func seoCMD(cfgPath *string) *cobra.Command {
	var (
		domain      string
		companyName string
		numKeywords int
		dateRange   int
		sortBy      string
	)

	cmd := &cobra.Command{
		Use:   "seo",
		Short: "Fetch top Search Console keywords and verify their visibility",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, backend, teardown, err := setup(*cfgPath)
			if err != nil {
				return err
			}
			defer teardown()

			policy := cachePolicy(cfg)

			gsc, err := tools.NewGSCTool(cfg.GSC.CredentialsPath, backend, policy)
			if err != nil {
				return err
			}
			search := tools.NewKeywordSearchTool(
				tools.NewChatClient(cfg.LLM.BaseURL, cfg.LLM.APIKey()),
				cfg.LLM.SearchModels, backend, policy)

			c := crew.NewSEOCrew(gsc, search, backend, crew.SEOParams{
				Domain:        domain,
				CompanyName:   companyName,
				NumKeywords:   numKeywords,
				DateRangeDays: dateRange,
				SortBy:        sortBy,
			})

			out, err := c.Run(cmd.Context(), "")
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "domain to analyze (required)")
	cmd.Flags().StringVar(&companyName, "company-name", "", "company name to also look for in results")
	cmd.Flags().IntVar(&numKeywords, "num-keywords", 10, "number of top keywords to fetch")
	cmd.Flags().IntVar(&dateRange, "date-range", 30, "days of Search Console history to query")
	cmd.Flags().StringVar(&sortBy, "sort-by", "clicks", "sort keywords by clicks, impressions, ctr, or position")
	_ = cmd.MarkFlagRequired("domain")

	return cmd
}
