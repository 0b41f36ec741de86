package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alpkeskin/gotoon"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/yoanbernabeu/docdex/store"
)

var (
	searchTenant     string
	searchCatalog    bool
	searchAllTenants bool
	searchSource     string
	searchLimit      int
	searchJSON       bool
	searchTOON       bool
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	scoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	tenantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the document index with natural language",
	Long: `Searches document chunks by meaning within one tenant, or across all
tenants with --all-tenants. Use --catalog to search whole-document overviews
instead of chunks.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchTenant, "tenant", "", "Tenant to search (required unless --all-tenants)")
	searchCmd.Flags().BoolVar(&searchCatalog, "catalog", false, "Search document overviews instead of chunks")
	searchCmd.Flags().BoolVar(&searchAllTenants, "all-tenants", false, "Search chunks across every configured tenant")
	searchCmd.Flags().StringVar(&searchSource, "source", "", "Restrict chunk results to this exact document path")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "Maximum number of results to return")
	searchCmd.Flags().BoolVarP(&searchJSON, "json", "j", false, "Output results in JSON format (for AI agents)")
	searchCmd.Flags().BoolVarP(&searchTOON, "toon", "t", false, "Output results in TOON format (token-efficient for AI agents)")
	searchCmd.MarkFlagsMutuallyExclusive("json", "toon")
	searchCmd.MarkFlagsMutuallyExclusive("catalog", "source")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx := context.Background()

	if !searchAllTenants && searchTenant == "" {
		return fmt.Errorf("--tenant is required (or use --all-tenants)")
	}

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	switch {
	case searchCatalog && searchAllTenants:
		hits, err := a.searcher.AllCatalog(ctx, query, searchLimit)
		if err != nil {
			return searchError(err)
		}
		return outputCatalogHits(query, hits)

	case searchCatalog:
		hits, err := a.searcher.Catalog(ctx, query, searchTenant, searchLimit)
		if err != nil {
			return searchError(err)
		}
		return outputCatalogHits(query, hits)

	case searchAllTenants:
		hits, err := a.searcher.AllChunks(ctx, query, searchLimit)
		if err != nil {
			return searchError(err)
		}
		return outputChunkHits(query, hits)

	default:
		hits, err := a.searcher.Chunks(ctx, query, searchTenant, searchSource, searchLimit)
		if err != nil {
			return searchError(err)
		}
		return outputChunkHits(query, hits)
	}
}

func searchError(err error) error {
	if searchJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		_ = encoder.Encode(map[string]string{"error": err.Error()})
		return nil
	}
	if searchTOON {
		output, encErr := gotoon.Encode(map[string]string{"error": err.Error()})
		if encErr != nil {
			return encErr
		}
		fmt.Println(output)
		return nil
	}
	return err
}

func outputCatalogHits(query string, hits []store.CatalogHit) error {
	if searchJSON || searchTOON {
		return printEncoded(hits, searchTOON)
	}

	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("Found %d documents for: %q", len(hits), query)))
	fmt.Println()

	for i, hit := range hits {
		location := hit.Path
		if hit.Tenant != "" {
			location = tenantStyle.Render(hit.Tenant) + dimStyle.Render("/") + hit.Path
		}
		fmt.Printf("%s %s %s\n",
			dimStyle.Render(fmt.Sprintf("%2d.", i+1)),
			pathStyle.Render(location),
			scoreStyle.Render(fmt.Sprintf("(%.4f)", hit.Score)))
		fmt.Printf("    %s\n\n", hit.Overview)
	}
	return nil
}

func outputChunkHits(query string, hits []store.ChunkHit) error {
	if searchJSON || searchTOON {
		return printEncoded(hits, searchTOON)
	}

	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("Found %d chunks for: %q", len(hits), query)))
	fmt.Println()

	for i, hit := range hits {
		location := hit.Path
		if hit.Tenant != "" {
			location = tenantStyle.Render(hit.Tenant) + dimStyle.Render("/") + hit.Path
		}
		fmt.Printf("%s %s %s %s\n",
			dimStyle.Render(fmt.Sprintf("%2d.", i+1)),
			pathStyle.Render(location),
			dimStyle.Render(fmt.Sprintf("[chunk %d/%d]", hit.ChunkIndex+1, hit.ChunkTotal)),
			scoreStyle.Render(fmt.Sprintf("(%.4f)", hit.Score)))

		preview := hit.Text
		if len(preview) > 400 {
			preview = preview[:400] + "…"
		}
		for _, line := range strings.Split(strings.TrimSpace(preview), "\n") {
			fmt.Printf("    %s\n", line)
		}
		fmt.Println()
	}
	return nil
}

func printEncoded(data any, toon bool) error {
	if toon {
		output, err := gotoon.Encode(data)
		if err != nil {
			return fmt.Errorf("failed to encode TOON: %w", err)
		}
		fmt.Println(output)
		return nil
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
