// Package cmd implements the kestrel command-line interface.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kestrelhq/kestrel/internal/config"
	"github.com/kestrelhq/kestrel/internal/observability"
	"github.com/kestrelhq/kestrel/pkg/jobs"
	"github.com/kestrelhq/kestrel/pkg/splunkd"
)

var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{
	Version:   "dev",
	Commit:    "HEAD",
	BuildDate: "unknown",
}

// SetVersionInfo records build metadata injected by the linker.
func SetVersionInfo(version, commit, buildDate string) {
	if version != "" {
		versionInfo.Version = version
	}
	if commit != "" {
		versionInfo.Commit = commit
	}
	if buildDate != "" {
		versionInfo.BuildDate = buildDate
	}
}

var (
	flagConfigPath string
	flagLogLevel   string
	flagBaseURL    string
	flagToken      string
	flagInsecure   bool

	// cfg is resolved once per invocation in the persistent pre-run.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "kestrel",
	Short: "Manage search jobs on a Splunk-compatible search service",
	Long: `kestrel creates, monitors, controls, and cleans up search jobs.

It is designed to be agent-friendly: stable exit codes per failure kind,
predictable endpoints, and JSON output for machine parsing.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(flagConfigPath)
		if err != nil {
			return err
		}
		if flagBaseURL != "" {
			loaded.BaseURL = flagBaseURL
		}
		if flagToken != "" {
			loaded.Token = flagToken
		}
		if flagInsecure {
			loaded.Insecure = true
		}
		if flagLogLevel != "" {
			loaded.LogLevel = flagLogLevel
		}
		cfg = loaded

		observability.Init(cfg.LogLevel)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kestrel %s (commit %s, built %s)\n",
			versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "splunkd endpoint, e.g. https://localhost:8089")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "Bearer token (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagInsecure, "insecure", false, "Skip TLS certificate verification")

	rootCmd.AddCommand(versionCmd)
}

// newJobClient builds the lifecycle client from the resolved config.
func newJobClient() (*jobs.Client, error) {
	return newJobClientTimeout(cfg.Timeout)
}

// newJobClientTimeout builds a client with an explicit request timeout,
// for operations that hold the request open longer than usual.
func newJobClientTimeout(timeout time.Duration) (*jobs.Client, error) {
	transport, err := splunkd.New(splunkd.Config{
		BaseURL:            cfg.BaseURL,
		Token:              cfg.Token,
		Timeout:            timeout,
		InsecureSkipVerify: cfg.Insecure,
		RequestsPerSecond:  cfg.RequestsPerSecond,
	})
	if err != nil {
		return nil, err
	}
	return jobs.NewClient(transport), nil
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	defer observability.Sync()

	if err := rootCmd.Execute(); err != nil {
		observability.CLILogger.Debug("command failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %s\n", errorMessage(err))
		return exitCodeFor(err)
	}
	return 0
}
