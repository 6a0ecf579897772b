// Package cmd provides the CLI commands for kyr.
package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/knowyourrights/kyr/internal/appdir"
	"github.com/knowyourrights/kyr/internal/client"
	"github.com/knowyourrights/kyr/internal/config"
	"github.com/knowyourrights/kyr/internal/logging"
	"github.com/knowyourrights/kyr/internal/secrets"
)

var (
	// Global flags
	configPath    string
	serverURL     string
	tokenFlag     string
	debug         bool
	logLevel      string // --log-level flag (debug, info, warn, error)
	logFile       string
	logComponents string

	// Loaded configuration
	cfg *config.Config
	// configResult says where cfg was loaded from
	configResult *config.LoadResult
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kyr",
	Short: "kyr - Know Your Rights, a labor-rights assistant in the terminal",
	Long: `kyr talks to the Know Your Rights assistant service.

Ask questions about union rights, employment contracts, health and
safety, or general employment law, keep track of past conversations,
and submit contracts for a risk assessment.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for help and completion commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		if err := appdir.EnsureDir(); err != nil {
			return fmt.Errorf("failed to create kyr directory: %w", err)
		}

		// 1. --config flag (explicit path) takes highest priority
		// 2. $KYRRC or the platform default path, if the file exists
		// 3. embedded defaults
		if configPath != "" {
			c, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			configResult = &config.LoadResult{Config: c, Source: config.SourceFile, SourcePath: configPath}
		} else {
			res, err := config.LoadWithFallback()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			configResult = res
		}
		cfg = configResult.Config

		if serverURL != "" {
			cfg.Server.URL = serverURL
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("--server-url: %w", err)
			}
		}

		if err := logging.Initialize(loggingConfig(cfg)); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		logging.CLI().Debug("Configuration loaded",
			"source", string(configResult.Source),
			"path", configResult.SourcePath,
			"server", cfg.Server.URL)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		// Clean up logging resources
		return logging.Close()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file path (default: $KYRRC or ~/.kyrrc)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server-url", "", "Assistant service base URL (overrides server.url)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "Bearer token (overrides server.token and the stored token)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging (shorthand for --log-level=debug)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Console log level: debug, info, warn, error (default: log.level)")
	rootCmd.PersistentFlags().StringVarP(&logFile, "logfile", "l", "", "Log file path, or - to disable (default: $KYR_DIR/logs/kyr.log)")
	rootCmd.PersistentFlags().StringVar(&logComponents, "log-components", "", "Comma-separated list of components to log (e.g., 'chat,client'). Empty means all components.")
}

// loggingConfig builds the logging setup from c and the global flags.
// Priority for the console level: --log-level > --debug > log.level.
func loggingConfig(c *config.Config) logging.Config {
	level := c.Log.Level
	if debug {
		level = "debug"
	}
	if logLevel != "" {
		level = logLevel
	}

	lc := logging.Config{
		Level:      level,
		FileLevel:  c.Log.FileLevel,
		Components: splitComponents(logComponents),
	}

	path := logFile
	if path == "" {
		path = c.Log.File
	}
	if path == "" {
		if p, err := appdir.LogPath(); err == nil {
			path = p
		}
	}
	if path != "" && path != config.FileDisabled {
		lc.FileLog = &logging.FileLogConfig{
			Path:       path,
			MaxSizeMB:  c.Log.MaxSizeMB,
			MaxBackups: c.Log.MaxBackups,
		}
	}
	return lc
}

func splitComponents(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// resolveToken picks the bearer token: flag, then config, then the store.
func resolveToken(flag string, c *config.Config, store secrets.SecretStore) string {
	if flag != "" {
		return flag
	}
	if c.Server.Token != "" {
		return c.Server.Token
	}
	tok, err := secrets.APIToken(store)
	if err != nil {
		if !errors.Is(err, secrets.ErrNotFound) && !errors.Is(err, secrets.ErrNotSupported) {
			logging.CLI().Warn("Failed to read stored token", "error", err)
		}
		return ""
	}
	return tok
}

// newClient creates the service client from the loaded configuration.
func newClient() (*client.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return client.New(cfg.Server.URL,
		client.WithAPIPrefix(cfg.Server.APIPrefix),
		client.WithListTimeout(cfg.Server.ListTimeout),
		client.WithRateLimit(cfg.Server.RateLimitPerMinute),
		client.WithBearerToken(resolveToken(tokenFlag, cfg, secrets.Default())),
		client.WithLogger(logging.Client()),
	), nil
}
