// File: cmd/models.go
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/aiport/internal/config"
	"github.com/xkilldash9x/aiport/internal/llmclient"
	"github.com/xkilldash9x/aiport/internal/usage"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models [provider]",
		Short: "List the known models of each provider with their prices",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			providers := config.KnownProviders
			if len(args) == 1 {
				p, err := config.ParseProvider(args[0])
				if err != nil {
					return err
				}
				providers = []config.LLMProvider{p}
			}
			printModels(cmd.OutOrStdout(), llmclient.KnownModels(cfg.Providers()), providers, usage.DefaultPrices)
			return nil
		},
	}
}

func printModels(w io.Writer, models map[config.LLMProvider][]string, providers []config.LLMProvider, prices usage.PriceTable) {
	for _, p := range providers {
		key := "API key required"
		if !llmclient.RequiresCredential(p) {
			key = "local, no key"
		}
		fmt.Fprintf(w, "%s (%s)\n", p, key)
		for _, m := range models[p] {
			price := prices.Lookup(m)
			fmt.Fprintf(w, "  %-40s $%.2f in / $%.2f out per 1M tokens, %d RPM\n",
				m, price.InputPerMillion, price.OutputPerMillion, price.RPM)
		}
	}
}
