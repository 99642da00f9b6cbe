// crewops runs small agent crews for bounded information-retrieval tasks:
// Search Console keyword analysis and weather reporting.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/crewops/cache"
	"github.com/jonwraymond/crewops/config"
	"github.com/jonwraymond/crewops/observe"
)

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:           "crewops",
		Short:         "Run agent crews with cached tools and pluggable observability",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (YAML)")

	root.AddCommand(seoCMD(&cfgPath), weatherCMD(&cfgPath), agentsCMD(&cfgPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads configuration and activates the process observability
// backend. The returned func tears the backend down.
func setup(cfgPath string) (*config.Config, observe.Backend, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	backend := observe.Create(cfg.Observability.Backend, observe.Options{
		ServiceName:   "crewops",
		LogLevel:      cfg.Log.Level,
		MetricsPort:   cfg.Observability.MetricsPort,
		AgentEndpoint: cfg.Observability.AgentEndpoint,
	})

	return cfg, backend, observe.Reset, nil
}

func cachePolicy(cfg *config.Config) cache.Policy {
	p := cache.DefaultPolicy()
	p.Enabled = cfg.Cache.Enabled
	if ttl := cfg.Cache.TTL(); ttl > 0 {
		p.DefaultTTL = ttl
	}
	return p
}
