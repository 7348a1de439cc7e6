package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/BurtTheCoder/bouncer/internal/adapter"
	"github.com/BurtTheCoder/bouncer/internal/domain"
	m "github.com/BurtTheCoder/bouncer/internal/model"
)

// startCmd represents the start command.
var startCmd = newStartCmd()

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start [dir]",
		Short: "Watch a directory and check files as they change",
		Long: `Watch a directory for file changes and run every settled change through
the configured checkers. Runs until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogger(logFileFlag, verboseFlag)

			dir := viper.GetString(watchDirKey)
			if len(args) == 1 {
				dir = args[0]
			}

			return runWatch(cmd, m.Path(dir))
		},
	}
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runWatch(cmd *cobra.Command, dir m.Path) error {
	cfg := domain.WatcherConfig{
		Root:              dir,
		Recursive:         viper.GetBool(watchRecursiveKey),
		DebounceDelay:     viper.GetDuration(watchDebounceDelayKey),
		PollInterval:      viper.GetDuration(watchPollIntervalKey),
		MaxPendingChanges: viper.GetInt(watchMaxPendingKey),
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("watch configuration: %w", err)
	}

	orch, cleanup, err := buildOrchestrator(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	watcher := domain.NewFileWatcher(adapter.NewFsnotifyAdapter(), buildIgnoreFilter(), cfg, orch.EventQueue())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s (press Ctrl+C to stop)\n", dir)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return watcher.Run(ctx) })
	g.Go(func() error { return orch.Run(ctx) })

	// Results are already reported by the notifiers; keep the result
	// queue from filling up.
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-orch.Results():
			}
		}
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("watch session: %w", err)
	}

	cmd.Printf("Stopped. Processed %d events (%d dropped)\n", orch.Processed(), watcher.Dropped())

	return nil
}
