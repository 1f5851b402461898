package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/seaung/urlfinder/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/urlfinder.yaml
var rulesTemplate embed.FS

// rulesTemplatePath is the path of the ruleset template inside rulesTemplate.
const rulesTemplatePath = "templates/urlfinder.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new URLFinder ruleset file",
		Long: `Initialize creates a new .urlfinder.yaml ruleset file in the current directory.

The generated file includes:
- The default request headers
- The built-in extraction patterns and filters
- The fuzz path lists used by --fuzz

Examples:
  # Create .urlfinder.yaml in current directory
  urlfinder init

  # Create the ruleset at a specific path
  urlfinder init -o rules.yaml

  # Force overwrite existing file
  urlfinder init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultRulesFileName,
		"Output file path for the ruleset")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing ruleset file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("ruleset file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := rulesTemplate.ReadFile(rulesTemplatePath)
	if err != nil {
		return fmt.Errorf("failed to read ruleset template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write ruleset file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created ruleset file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to change:")
	fmt.Fprintln(out, "  - Default request headers such as User-Agent and Cookie")
	fmt.Fprintln(out, "  - Extraction patterns and filters")
	fmt.Fprintln(out, "  - Fuzz paths")

	return nil
}
