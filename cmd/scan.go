package cmd

import (
	"bytes"
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/BurtTheCoder/bouncer/internal/adapter"
	"github.com/BurtTheCoder/bouncer/internal/domain"
	m "github.com/BurtTheCoder/bouncer/internal/model"
)

// gitDiffFlag switches the scan to git-changed files only.
var gitDiffFlag bool

// sinceFlag bounds a git-diff scan to a time window.
var sinceFlag string

// scanCmd represents the scan command.
var scanCmd = newScanCmd()

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Run all checkers over a directory once",
		Long: `Scan a directory and run every file through the configured checkers.

With --git-diff only files git reports as changed since the --since
window are scanned; if git is unavailable the scan silently covers
everything.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogger(logFileFlag, verboseFlag)

			target := "."
			if len(args) == 1 {
				target = args[0]
			}

			return runScan(cmd, m.Path(target))
		},
	}

	cmd.Flags().BoolVar(&gitDiffFlag, "git-diff", false, "scan only files changed in git")
	cmd.Flags().StringVar(&sinceFlag, "since", "1 hour ago", "time window for --git-diff (e.g. \"2 hours ago\", \"2023-01-01\")")

	return cmd
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, target m.Path) error {
	orch, cleanup, err := buildOrchestrator(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	scanner := domain.NewBatchScanner(
		adapter.NewLocalScanFSAdapter(),
		adapter.NewGitVCSAdapter(),
		buildIgnoreFilter(),
		orch,
	)

	mode := domain.ScanFull
	if gitDiffFlag {
		mode = domain.ScanIncremental
	}

	// Drain the result queue while the scan runs; the summary is built
	// from the scanner's own return value.
	drainDone := make(chan struct{})
	drainStop := make(chan struct{})

	go func() {
		defer close(drainDone)

		for {
			select {
			case <-drainStop:
				return
			case <-orch.Results():
			}
		}
	}()

	summary, err := scanner.Scan(context.Background(), target, mode, sinceFlag)

	close(drainStop)
	<-drainDone

	if err != nil {
		return err
	}

	cmd.Print(renderSummary(summary))

	if summary.IssuesFound > 0 {
		return fmt.Errorf("%w: %d issues in %d files", domain.ErrIssuesFound, summary.IssuesFound, summary.FilesScanned)
	}

	return nil
}

func renderSummary(summary m.ScanSummary) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Metric", "Count"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER})

	table.Append([]string{"Files scanned", fmt.Sprintf("%d", summary.FilesScanned)})
	table.Append([]string{"Issues found", fmt.Sprintf("%d", summary.IssuesFound)})
	table.Append([]string{"Fixes applied", fmt.Sprintf("%d", summary.FixesApplied)})

	table.Render()

	return tableBuffer.String()
}
