package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"passportwatch/pkg/config"
)

// cliOptions holds parsed command-line flags
type cliOptions struct {
	configPath string
	headless   bool
	logLevel   string
	interval   time.Duration
	cooldown   time.Duration
}

// NewRootCmd creates the monitor command
func NewRootCmd() *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:   "passport_monitor [flags] <JSESSIONID>",
		Short: "Watch the passport booking page for free appointment slots",
		Long: `passport_monitor reloads the passport appointment office selection page
with the given session cookie and scans its tables. When an office no longer
reports "non offre al momento" it beeps, logs the office and message, and
pauses for a long cooldown before polling again.

Take the JSESSIONID value from a browser that is logged in to the booking site.

Examples:
  # Poll every 30s with defaults
  passport_monitor 0123456789ABCDEF

  # Headless, with a config file enabling Telegram alerts
  passport_monitor --headless -c passport_monitor.yaml 0123456789ABCDEF

  # Faster polling and a one hour cooldown
  passport_monitor --interval 15s --cooldown 1h 0123456789ABCDEF`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "",
		"Path to a YAML or JSON config file (default: search ./ and ~/.passportwatch)")
	cmd.Flags().BoolVar(&opts.headless, "headless", false,
		"Run the browser without a window")
	cmd.Flags().StringVarP(&opts.logLevel, "log-level", "l", "",
		"Log level: debug, info, warn, error")
	cmd.Flags().DurationVar(&opts.interval, "interval", config.DefaultInterval,
		"Wait between checks when nothing is available")
	cmd.Flags().DurationVar(&opts.cooldown, "cooldown", config.DefaultCooldown,
		"Pause after each availability hit")

	return cmd
}

// applyFlags overrides file and environment settings with flags the user set
func applyFlags(cmd *cobra.Command, opts *cliOptions, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("headless") {
		cfg.Browser.Headless = opts.headless
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("interval") {
		cfg.Monitor.Interval = config.Duration(opts.interval)
	}
	if flags.Changed("cooldown") {
		cfg.Monitor.Cooldown = config.Duration(opts.cooldown)
	}

	return cfg.Validate()
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
