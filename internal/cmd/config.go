package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	embeddedconfig "github.com/knowyourrights/kyr/config"
	"github.com/knowyourrights/kyr/internal/config"
	"github.com/knowyourrights/kyr/internal/fileutil"
)

var (
	configOutputPath string
	configForce      bool
)

// configCmd represents the config parent command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage kyr configuration",
	Long: `Manage kyr configuration files.

Use the subcommands to create or inspect the configuration.`,
}

// configCreateCmd represents the config create subcommand
var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a default configuration file",
	Long: `Create a default configuration file.

This command writes the embedded default configuration to the default
location ($KYRRC, or ~/.kyrrc) or to the directory given with --output.

Examples:
  kyr config create                    # Create the default file
  kyr config create --output /path/to  # Create /path/to/.kyrrc
  kyr config create --force            # Overwrite existing file`,
	Args: cobra.NoArgs,
	RunE: runConfigCreate,
}

// configShowCmd represents the config show subcommand
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := cfg.Redacted().YAML()
		if err != nil {
			return err
		}
		source := string(configResult.Source)
		if configResult.SourcePath != "" {
			source += " " + configResult.SourcePath
		}
		fmt.Printf("# Loaded from: %s\n%s", source, data)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCreateCmd)
	configCmd.AddCommand(configShowCmd)

	configCreateCmd.Flags().StringVarP(&configOutputPath, "output", "o", "",
		"Directory to write the config file (default: the default config location)")
	configCreateCmd.Flags().BoolVarP(&configForce, "force", "f", false,
		"Overwrite existing configuration file without prompting")
}

func runConfigCreate(cmd *cobra.Command, args []string) error {
	configPath := config.DefaultPath()
	if configOutputPath != "" {
		configPath = filepath.Join(configOutputPath, embeddedconfig.FileName)
	}

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil && !configForce {
		fmt.Printf("⚠️  Configuration file already exists: %s\n", configPath)
		fmt.Println("Use --force to overwrite the existing file.")
		return nil
	}

	if err := fileutil.WriteFileAtomic(configPath, embeddedconfig.DefaultConfigYAML, 0o600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Printf("✅ Configuration file created: %s\n", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Set server.url to your assistant service")
	fmt.Println("  2. Store a token with 'kyr token set' if the service needs one")
	fmt.Println("  3. Run 'kyr chat' to start a conversation")
	return nil
}
