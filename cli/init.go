package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yoanbernabeu/docdex/config"
)

var (
	initTenant  string
	initRoot    string
	initBackend string
	initForce   bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a docdex project in the current directory",
	Long: `Creates a .docdex/config.yaml with one tenant and sensible defaults
(local Ollama for embeddings and summaries, local Qdrant for storage).
Edit the file to add tenants or switch providers.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initTenant, "tenant", "", "Name of the first tenant (required)")
	initCmd.Flags().StringVar(&initRoot, "root", "", "Corpus directory for the first tenant (default: current directory)")
	initCmd.Flags().StringVar(&initBackend, "backend", "qdrant", "Storage backend: qdrant or postgres")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration")
	_ = initCmd.MarkFlagRequired("tenant")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	if config.Exists(cwd) && !initForce {
		return fmt.Errorf("configuration already exists at %s (use --force to overwrite)", config.GetConfigPath(cwd))
	}

	root := initRoot
	if root == "" {
		root = cwd
	}

	cfg := config.DefaultConfig()
	cfg.Tenants = []config.TenantConfig{{Name: initTenant, Root: root}}
	cfg.Store.Backend = initBackend

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := cfg.Save(cwd); err != nil {
		return err
	}

	fmt.Printf("Created %s\n", config.GetConfigPath(cwd))
	fmt.Printf("Tenant %q indexes %s\n", initTenant, root)
	fmt.Println("\nNext steps:")
	fmt.Println("  docdex sync --tenant", initTenant)
	fmt.Println("  docdex search \"your query\" --tenant", initTenant)
	return nil
}
