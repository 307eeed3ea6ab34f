package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Pinkesh2905/FaceTrace/internal/config"
	"github.com/Pinkesh2905/FaceTrace/internal/web/middleware"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API bearer token for a tenant",
	Long: `Sign a bearer token for the HTTP API with JWT_KEY. Cameras and kiosks
send it as "Authorization: Bearer <token>" (or ?token= on the websocket).`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().String("role", "camera", "Role claim stored in the token")
	tokenCmd.Flags().Duration("ttl", 0, "Token lifetime, e.g. 720h (0 = no expiry)")
}

func runToken(cmd *cobra.Command, args []string) error {
	tenant, err := requireTenantFlag()
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Web.JWTKey == "" {
		return errors.New("JWT_KEY environment variable is required")
	}

	token, err := middleware.IssueToken([]byte(cfg.Web.JWTKey), tenant, mustGetString(cmd, "role"), mustGetDuration(cmd, "ttl"))
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
