package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/patchbay-ui/patchbay/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "patchbay",
	Short: "In-memory studio core for AI-generated UI components",
	Long: `Patchbay hosts editable component projects in virtual file trees and
serves live browser previews of them. A generation agent edits project files
through text-editing tools, and the transformer rewrites the resulting module
graph into import-map driven addresses the browser can load directly.`,
	PersistentPreRun: loadRootConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func loadRootConfig(cmd *cobra.Command, _ []string) {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg = config.Load()
	applyFlagOverrides(cmd)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
}
