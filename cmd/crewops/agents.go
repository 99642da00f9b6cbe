package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/crewops/agent"
)

func agentsCMD(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List the available agent types",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, backend, teardown, err := setup(*cfgPath)
			if err != nil {
				return err
			}
			defer teardown()

			factory := agent.NewFactory(backend)
			for _, name := range factory.Names() {
				def, err := factory.Create(cmd.Context(), name, "")
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s: %s (tools: %s)\n",
					name, def.Role, def.Goal, strings.Join(def.Tools, ", "))
			}
			return nil
		},
	}
}
