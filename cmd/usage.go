// File: cmd/usage.go
package cmd

import (
	"fmt"
	"io"

	json "github.com/json-iterator/go"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/aiport/internal/observability"
	"github.com/xkilldash9x/aiport/internal/usage"
)

// appFs backs the files the operator commands read. Tests swap in a memory fs.
var appFs = afero.NewOsFs()

func newUsageCmd() *cobra.Command {
	var asJSON bool
	usageCmd := &cobra.Command{
		Use:   "usage",
		Short: "Show the recorded daily token usage and cost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			ledger := usage.NewLedger(appFs, cfg.Usage().LedgerPath, observability.GetLogger())
			entries, err := ledger.Load()
			if err != nil {
				return err
			}
			return printUsage(cmd.OutOrStdout(), ledger.Path(), usage.Sorted(entries), asJSON)
		},
	}
	usageCmd.Flags().BoolVar(&asJSON, "json", false, "print the ledger as JSON")
	return usageCmd
}

func printUsage(w io.Writer, path string, entries []usage.DatedEntry, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize usage: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	}
	if len(entries) == 0 {
		fmt.Fprintf(w, "no usage recorded in %s\n", path)
		return nil
	}

	var total float64
	fmt.Fprintf(w, "%-10s  %-28s %10s %10s %8s %10s\n", "DATE", "MODEL", "IN", "OUT", "REQ", "COST")
	for _, e := range entries {
		fmt.Fprintf(w, "%-10s  %-28s %10d %10d %8d %10.4f\n",
			e.Date, e.Model, e.TokensIn, e.TokensOut, e.TotalRequests, e.CurrentCostUSD)
		total += e.CurrentCostUSD
	}
	fmt.Fprintf(w, "total: $%.4f\n", total)
	return nil
}
