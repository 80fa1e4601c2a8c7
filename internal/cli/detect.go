package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/verscout/verscout/pkg/config"
	"github.com/verscout/verscout/pkg/detect"
	verrors "github.com/verscout/verscout/pkg/errors"
	"github.com/verscout/verscout/pkg/strategy"
)

// detectCommand creates the detect command for single and batch detection.
func (c *CLI) detectCommand() *cobra.Command {
	var (
		urlFlag       string
		familyFlag    string
		repoFlag      string
		watchlistPath string
		noCache       bool
		timeout       time.Duration
		concurrency   int
	)

	cmd := &cobra.Command{
		Use:   "detect [name]",
		Short: "Detect the latest published version of software",
		Long: `Detect probes release APIs and vendor pages for the current version of the
named software, or of every entry in a TOML watchlist.

Examples:
  verscout detect Chrome
  verscout detect "VS Code" --url https://github.com/microsoft/vscode
  verscout detect --watchlist software.toml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watchlistPath == "" && len(args) == 0 {
				return fmt.Errorf("provide a software name or --watchlist")
			}

			ctx := cmd.Context()
			eng, err := c.buildEngine(ctx, noCache)
			if err != nil {
				return err
			}
			defer eng.close()

			opts := detect.DefaultOptions()
			opts.UseCache = !noCache
			if timeout > 0 {
				opts.Timeout = timeout
			}

			if watchlistPath != "" {
				return c.runBatch(cmd, eng, watchlistPath, opts, concurrency)
			}

			entry := strategy.SoftwareEntry{
				Name: args[0],
				URL:  urlFlag,
				Hints: strategy.Hints{
					SourceFamily: familyFlag,
					Repo:         repoFlag,
				},
			}
			res := eng.orchestrator.Detect(ctx, entry, opts)
			printResult(res)
			if !res.Success {
				return fmt.Errorf("detection failed: %s", verrors.UserMessage(res.Err))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&urlFlag, "url", "", "primary lookup URL for the software")
	cmd.Flags().StringVar(&familyFlag, "family", "", "pin detection to one source family (github, chrome, ...)")
	cmd.Flags().StringVar(&repoFlag, "repo", "", "known owner/name repository identifier")
	cmd.Flags().StringVarP(&watchlistPath, "watchlist", "w", "", "TOML watchlist file for batch detection")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "force fresh probes, bypassing the cache read")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-entry detection timeout")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "batch concurrency limit")

	return cmd
}

// runBatch detects every watchlist entry and renders per-entry results plus a
// summary. A failing entry never fails the run; the command errors only when
// nothing succeeded.
func (c *CLI) runBatch(cmd *cobra.Command, eng *engine, path string, opts detect.Options, concurrency int) error {
	entries, err := config.LoadWatchlist(path)
	if err != nil {
		return err
	}

	batchOpts := detect.BatchOptions{Options: opts, ConcurrencyLimit: concurrency}
	if batchOpts.ConcurrencyLimit <= 0 {
		batchOpts.ConcurrencyLimit = eng.config.Detection.BatchConcurrency
	}

	prog := newProgress(c.Logger)
	spinner := newSpinner(cmd.Context(), fmt.Sprintf("Detecting %d entries...", len(entries)))
	spinner.Start()
	results := eng.orchestrator.DetectBatch(cmd.Context(), entries, batchOpts)
	spinner.Stop()

	succeeded := 0
	for _, res := range results {
		printResult(res)
		if res.Success {
			succeeded++
		}
	}
	printBatchSummary(succeeded, len(results)-succeeded)
	prog.done(fmt.Sprintf("Detected %d of %d versions", succeeded, len(results)))

	if succeeded == 0 {
		return fmt.Errorf("no entry could be detected")
	}
	return nil
}
