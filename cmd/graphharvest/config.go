package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"graphharvest/pkg/auth"
	"graphharvest/pkg/config"
	"graphharvest/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage graphharvest configuration files.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (GRAPHHARVEST_*), including a .env file
  - Configuration file
  - Default values`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to a file",
	Long: `Write the default configuration, including the field catalogs, to
graphharvest.yaml or the path given with --config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFile
		if path == "" {
			path = "graphharvest.yaml"
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s", path)
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}

		ui.PrintSuccess("Configuration file created: " + path)
		fmt.Fprintln(ui.Output, "\nNext steps:")
		fmt.Fprintln(ui.Output, "1. Store a token with 'graphharvest auth login'")
		fmt.Fprintln(ui.Output, "2. Run 'graphharvest config validate --config "+path+"'")
		fmt.Fprintln(ui.Output, "3. Collect with 'graphharvest profile-posts <page-id> --since 2020-01-01 -o posts.csv'")
		return nil
	},
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging every source. The access token is
masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile, flagOverrides(cmd))
		if err != nil {
			return err
		}

		display := *cfg
		if display.Graph.AccessToken != "" {
			display.Graph.AccessToken = auth.MaskToken(display.Graph.AccessToken)
		}

		data, err := yaml.Marshal(&display)
		if err != nil {
			return fmt.Errorf("failed to format configuration: %w", err)
		}

		ui.PrintHighlight("Current Configuration")
		fmt.Fprint(ui.Output, string(data))
		return nil
	},
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			ui.PrintInfo("Validating configuration", configFile)
		}

		cfg, err := config.Load(configFile, flagOverrides(cmd))
		if err != nil {
			return err
		}

		var problems []error
		if p := cfg.Output.Path; p != "" {
			if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
				problems = append(problems, fmt.Errorf("cannot create output directory: %w", err))
			}
		}
		if p := cfg.Logging.File; p != "" {
			if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
				problems = append(problems, fmt.Errorf("cannot create log directory: %w", err))
			}
		}
		if err := errors.Join(problems...); err != nil {
			return err
		}

		if cfg.Graph.AccessToken == "" {
			ui.PrintWarning("No access token in configuration; stored credentials will be used")
		}

		ui.PrintSuccess("Configuration is valid")
		fmt.Fprintln(ui.Output, "\nConfiguration summary:")
		fmt.Fprintf(ui.Output, "  API: %s/%s\n", cfg.Graph.BaseURL, cfg.Graph.APIVersion)
		fmt.Fprintf(ui.Output, "  Throttle budget: %s every %s (%v)\n", cfg.Retry.MaxWait, cfg.Retry.WaitInterval, cfg.Retry.ThrottleCodes)
		fmt.Fprintf(ui.Output, "  Max items: %d\n", cfg.Collection.MaxItems)
		fmt.Fprintf(ui.Output, "  Log level: %s\n", cfg.Logging.Level)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}
