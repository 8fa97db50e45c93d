package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/patchbay-ui/patchbay/internal/transform"
	"github.com/patchbay-ui/patchbay/internal/vfs"
)

var renderCmd = &cobra.Command{
	Use:   "render <files.json>",
	Short: "Run one transform pass over a serialized file tree",
	Long: `Reads a JSON object mapping absolute paths to file contents, runs one
transform pass over it, and prints the resulting import map, module table,
aggregated styles, and diagnostics as JSON. Useful for inspecting what the
preview endpoints would serve for a given tree.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&entryFlag, "entry", "", "Entry module path")
	renderCmd.Flags().StringVar(&packageBaseFlag, "package-base", "", "Base URL for bare package specifiers")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file tree: %w", err)
	}

	var files map[string]string
	if err := json.Unmarshal(data, &files); err != nil {
		return fmt.Errorf("failed to parse file tree: %w", err)
	}

	fs, err := vfs.NewFromMap(files)
	if err != nil {
		return fmt.Errorf("invalid file tree: %w", err)
	}

	transformer := transform.New(transform.Config{
		Entry:          cfg.Entry,
		AliasPrefix:    cfg.AliasPrefix,
		PackageBaseURL: cfg.PackageBaseURL,
	})
	result, err := transformer.Transform(cmd.Context(), fs)
	if err != nil {
		return fmt.Errorf("transform failed: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
