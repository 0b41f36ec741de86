package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	statusJSON bool
	statusTOON bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tenant index statistics",
	Long: `Reports each configured tenant with its catalog and chunk point
counts. Tenants whose collections cannot be reached show zero counts.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusJSON, "json", "j", false, "Output status in JSON format (for AI agents)")
	statusCmd.Flags().BoolVarP(&statusTOON, "toon", "t", false, "Output status in TOON format (token-efficient for AI agents)")
	statusCmd.MarkFlagsMutuallyExclusive("json", "toon")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.searcher.Status(ctx)
	if err != nil {
		return err
	}

	if statusJSON || statusTOON {
		return printEncoded(stats, statusTOON)
	}

	fmt.Println(headerStyle.Render("Tenant status"))
	fmt.Printf("Backend: %s\n\n", a.cfg.Store.Backend)

	for _, ts := range stats {
		fmt.Printf("%s  %s documents, %s chunks\n",
			tenantStyle.Render(ts.Tenant),
			scoreStyle.Render(fmt.Sprintf("%d", ts.CatalogPoints)),
			scoreStyle.Render(fmt.Sprintf("%d", ts.ChunkPoints)))
	}

	return nil
}
