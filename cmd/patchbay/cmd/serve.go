package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/patchbay-ui/patchbay/internal/project"
	"github.com/patchbay-ui/patchbay/internal/server"
	"github.com/patchbay-ui/patchbay/internal/transform"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the patchbay HTTP server",
	Long: `Starts the HTTP server hosting the project API, the agent tool endpoint,
and the browser preview surface. Projects are stored in PostgreSQL when
DATABASE_URL is set, otherwise in memory.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&portFlag, "port", "", "Port to listen on")
	serveCmd.Flags().StringVar(&databaseURLFlag, "database-url", "", "PostgreSQL connection string")
	serveCmd.Flags().StringVar(&packageBaseFlag, "package-base", "", "Base URL for bare package specifiers")
	serveCmd.Flags().StringVar(&entryFlag, "entry", "", "Entry module path within each project")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	telemetryProvider, err := createTelemetryProvider(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
			log.Printf("Failed to shut down telemetry: %v", err)
		}
	}()

	var store project.Store
	if cfg.DatabaseURL != "" {
		pgStore, err := project.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pgStore.Close()
		store = pgStore
		log.Printf("Using PostgreSQL project store")
	} else {
		store = project.NewMemoryStore()
		log.Printf("Using in-memory project store")
	}

	handler := server.NewHandler(store, transform.Config{
		Entry:          cfg.Entry,
		AliasPrefix:    cfg.AliasPrefix,
		PackageBaseURL: cfg.PackageBaseURL,
	})
	e := server.SetupRouter(handler)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Printf("Failed to shut down server: %v", err)
		}
	}()

	log.Printf("Starting patchbay server on port %s", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
