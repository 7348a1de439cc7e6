// Package cmd provides the root command and CLI setup for bouncer.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/BurtTheCoder/bouncer/internal/adapter"
	"github.com/BurtTheCoder/bouncer/internal/domain"
	"github.com/BurtTheCoder/bouncer/internal/domain/checkers"
	m "github.com/BurtTheCoder/bouncer/internal/model"
)

// verboseFlag switches file logging to debug level.
var verboseFlag bool

// logFileFlag overrides the log file location.
var logFileFlag string

// ignorePatternsFlag adds ignore patterns on top of the configured set.
var ignorePatternsFlag []string

const rootLongDescription = `Bouncer watches a directory (or scans it on demand), runs every changed
file through a set of checkers, and reports which files get in and which
get turned away.

Checks run automatically on file changes; use the scan command for a
one-shot pass over a whole directory.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bouncer",
		Short: "Quality control at the door for your codebase",
		Long:  rootLongDescription,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func init() {
	configureRootFlags(rootCmd)
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", viper.GetBool(logVerboseKey), "enable debug logging")
	bindFlagToConfig(cmd.PersistentFlags().Lookup("verbose"), logVerboseKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, "log-file", viper.GetString(logFilenameKey), "log file location")
	bindFlagToConfig(cmd.PersistentFlags().Lookup("log-file"), logFilenameKey)

	cmd.PersistentFlags().StringArrayVarP(&ignorePatternsFlag, "ignore", "x", viper.GetStringSlice(ignorePatternsKey), "ignore paths containing this pattern (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup("ignore"), ignorePatternsKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
//
// A scan that found issues exits 1; infrastructure failures exit 2.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, domain.ErrIssuesFound) {
			os.Exit(1)
		}

		os.Exit(2)
	}
}

// buildIgnoreFilter merges configured ignore patterns into a filter.
func buildIgnoreFilter() *domain.IgnoreFilter {
	return domain.NewIgnoreFilter(viper.GetStringSlice(ignorePatternsKey))
}

// buildOrchestrator assembles the orchestrator with the configured
// checkers and notifiers. Console output goes to out.
func buildOrchestrator(cmd *cobra.Command) (*domain.Orchestrator, func(), error) {
	orch := domain.NewOrchestrator(viper.GetInt(eventCapacityKey), viper.GetInt(resultCapacityKey))

	if viper.GetBool(secretsEnabledKey) {
		checker := checkers.NewSecretsChecker(checkers.Config{
			Enabled:   true,
			FileTypes: viper.GetStringSlice(secretsFileTypesKey),
		})
		if err := orch.RegisterChecker("secrets", checker); err != nil {
			return nil, nil, err
		}
	}

	if viper.GetBool(filesizeEnabledKey) {
		checker := checkers.NewFileSizeChecker(checkers.Config{
			Enabled:   true,
			FileTypes: viper.GetStringSlice(filesizeFileTypesKey),
		}, viper.GetInt64(filesizeMaxSizeKey))
		if err := orch.RegisterChecker("filesize", checker); err != nil {
			return nil, nil, err
		}
	}

	cleanup := func() {}

	if viper.GetBool(consoleEnabledKey) {
		if err := orch.RegisterNotifier(adapter.NewConsoleNotifier(cmd.OutOrStdout())); err != nil {
			return nil, nil, err
		}
	}

	if viper.GetBool(slackEnabledKey) && viper.GetString(slackWebhookURLKey) != "" {
		notifier := adapter.NewSlackNotifier(
			viper.GetString(slackWebhookURLKey),
			viper.GetString(slackChannelKey),
			parseSeverity(viper.GetString(slackMinSeverityKey)),
		)
		if err := orch.RegisterNotifier(notifier); err != nil {
			return nil, nil, err
		}
	}

	if viper.GetBool(fileLogEnabledKey) {
		path := viper.GetString(fileLogPathKey)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}

		notifier, err := adapter.NewFileLogNotifier(path)
		if err != nil {
			return nil, nil, err
		}

		if err := orch.RegisterNotifier(notifier); err != nil {
			return nil, nil, err
		}

		cleanup = func() { _ = notifier.Close() }
	}

	return orch, cleanup, nil
}

// parseSeverity maps a configured severity name to a result status.
// Unknown values fall back to warning.
func parseSeverity(value string) m.Status {
	switch value {
	case "approved":
		return m.StatusApproved
	case "fixed":
		return m.StatusFixed
	case "warning":
		return m.StatusWarning
	case "denied":
		return m.StatusDenied
	default:
		return m.StatusWarning
	}
}
