package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"graphharvest/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile      string
	accessToken     string
	accountName     string
	apiVersion      string
	maxWait         time.Duration
	waitInterval    time.Duration
	requestsPerHour int
	outputPath      string
	overwrite       bool
	metricsAddr     string
	logLevel        string
	logFile         string
	quiet           bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "graphharvest",
	Short: "Collect pages, posts and comments from the Facebook Graph API",
	Long: `graphharvest collects public page data from the Facebook Graph API into flat
tables you can open in a spreadsheet or query with SQLite.

Every request is governed: rate limited responses are retried on a fixed
interval until a per-call wait budget runs out, and collection over a
paginated edge stops at a count cap or a time window, whichever comes first.

Output format follows the --output extension: .csv, .xlsx, .jsonl, .db
(SQLite), with .gz or .zst compression for the text formats.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !quiet && cmd.Name() != "version" && cmd.Name() != "help" {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Interrupts cancel the running collection.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (default is ./.graphharvest.yaml or ~/.config/graphharvest/config.yaml)")
	flags.StringVar(&accessToken, "access-token", "", "Graph API access token (overrides stored credentials)")
	flags.StringVarP(&accountName, "account", "a", "", "use a specific stored account")
	flags.StringVar(&apiVersion, "api-version", "", "Graph API version, e.g. v3.1")
	flags.DurationVar(&maxWait, "max-wait", 0, "total throttle wait budget per request (default 2h)")
	flags.DurationVar(&waitInterval, "wait-interval", 0, "wait between throttled attempts (default 15m)")
	flags.IntVar(&requestsPerHour, "requests-per-hour", 0, "client-side request pacing, 0 disables it")
	flags.StringVarP(&outputPath, "output", "o", "", "output file; format follows the extension")
	flags.BoolVar(&overwrite, "overwrite", false, "replace an existing output file")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	flags.StringVar(&logFile, "log-file", "", "also write JSON logs to this file")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress the logo and progress line")

	rootCmd.SetVersionTemplate(`graphharvest {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// flagOverrides returns the persistent flags set on the command line, keyed
// the way config.MergeCommandLineFlags expects.
func flagOverrides(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := cmd.Flags().Changed

	if changed("access-token") {
		flags["access-token"] = accessToken
	}
	if changed("api-version") {
		flags["api-version"] = apiVersion
	}
	if changed("max-wait") {
		flags["max-wait"] = maxWait
	}
	if changed("wait-interval") {
		flags["wait-interval"] = waitInterval
	}
	if changed("requests-per-hour") {
		flags["requests-per-hour"] = requestsPerHour
	}
	if changed("output") {
		flags["output"] = outputPath
	}
	if changed("overwrite") {
		flags["overwrite"] = overwrite
	}
	if changed("metrics-addr") {
		flags["metrics-addr"] = metricsAddr
	}
	if changed("log-level") {
		flags["log-level"] = logLevel
	}
	if changed("log-file") {
		flags["log-file"] = logFile
	}
	return flags
}
