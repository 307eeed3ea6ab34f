package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Pinkesh2905/FaceTrace/internal/cache"
	"github.com/Pinkesh2905/FaceTrace/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the FaceTrace HTTP API.
The API accepts photos or precomputed encodings from cameras and kiosks,
registers employee faces and answers attendance queries. Known encodings
are loaded at startup and refreshed periodically.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// An empty tenant loads every tenant the directory knows.
	if err := a.cache.Refresh(ctx, tenantID); err != nil {
		return fmt.Errorf("initial encoding load: %w", err)
	}
	fmt.Printf("Loaded %d known encodings across %d tenants\n", a.cache.Size(), len(a.cache.Tenants()))

	refresher := cache.NewRefresher(a.cache, tenantID, a.cfg.Recognition.RefreshInterval(), a.logger)
	if err := refresher.Start(); err != nil {
		return err
	}
	defer refresher.Stop()

	port, host := resolveServeHostPort(cmd)
	if a.cfg.Web.JWTKey == "" {
		a.logger.Warn("JWT_KEY is not set, tenants are taken from the X-Tenant-ID header")
	}

	server := web.NewServer(a.cfg, port, host, web.Deps{
		Cache:      a.cache,
		Extractor:  a.extractor,
		Attendance: a.service,
		Employees:  a.employees,
		Registrar:  a.registrar,
		Logger:     a.logger,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting FaceTrace API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
