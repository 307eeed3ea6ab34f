package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var tenantID string

var rootCmd = &cobra.Command{
	Use:   "facetrace",
	Short: "Face recognition attendance for multi-tenant workplaces",
	Long: `FaceTrace matches faces seen by cameras against registered employee
encodings and turns confident matches into deduplicated IN/OUT punches
with daily attendance summaries.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&tenantID, "tenant", "", "Tenant (company) id (defaults to TENANT_ID)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
	if tenantID == "" {
		tenantID = os.Getenv("TENANT_ID")
	}
}

// requireTenantFlag returns the tenant or an error for commands scoped to one tenant.
func requireTenantFlag() (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("--tenant or TENANT_ID is required")
	}
	return tenantID, nil
}
