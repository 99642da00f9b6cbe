package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/crewops/crew"
	"github.com/jonwraymond/crewops/tools"
)

func weatherCMD(cfgPath *string) *cobra.Command {
	var location string

	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Report current conditions for a location",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, backend, teardown, err := setup(*cfgPath)
			if err != nil {
				return err
			}
			defer teardown()

			wt := tools.NewWeatherTool(cfg.Weather.BaseURL, backend, cachePolicy(cfg))

			out, err := crew.NewWeatherCrew(wt, backend, location).Run(cmd.Context(), "")
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&location, "location", "", "city or location to report on (required)")
	_ = cmd.MarkFlagRequired("location")

	return cmd
}
