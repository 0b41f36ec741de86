package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yoanbernabeu/docdex/indexer"
)

var (
	syncTenant       string
	syncOverwrite    bool
	syncValidateOnly bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize tenant corpora with the index",
	Long: `Scans each tenant's corpus, detects added, changed, and removed
documents by content fingerprint, and updates the vector store accordingly.
Unchanged documents are skipped without re-embedding.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncTenant, "tenant", "", "Sync only this tenant (default: all configured tenants)")
	syncCmd.Flags().BoolVar(&syncOverwrite, "overwrite", false, "Re-index every document regardless of fingerprints")
	syncCmd.Flags().BoolVar(&syncValidateOnly, "validate-only", false, "Classify changes without writing anything")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	tenants := a.cfg.TenantNames()
	if syncTenant != "" {
		if _, err := a.cfg.Tenant(syncTenant); err != nil {
			return err
		}
		tenants = []string{syncTenant}
	}

	for _, tenant := range tenants {
		tc, err := a.cfg.Tenant(tenant)
		if err != nil {
			return err
		}

		report, err := a.syncer.Sync(ctx, tenant, tc.Root, indexer.Options{
			Overwrite:    syncOverwrite,
			ValidateOnly: syncValidateOnly,
		})
		if err != nil {
			return fmt.Errorf("sync failed for tenant %s: %w", tenant, err)
		}

		verb := "Synced"
		if syncValidateOnly {
			verb = "Validated"
		}
		fmt.Printf("%s %s: %d added, %d updated, %d skipped, %d deleted, %d failed (%.1fs)\n",
			verb, tenant, report.Added, report.Updated, report.Skipped,
			report.Deleted, report.Failed, report.Duration.Seconds())
	}

	return nil
}
