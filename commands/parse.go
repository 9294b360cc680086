package commands

import (
	"fmt"

	"github.com/penwyp/go-dreyevr-parser/internal/presentation/formatter"
	"github.com/penwyp/go-dreyevr-parser/internal/util"
	"github.com/spf13/cobra"
)

var (
	workers      int
	forceReload  bool
	outputFormat string
	sortBy       string
	sortDesc     bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <recording>",
	Short: "Parse a recording (or load its cached result) and print it",
	Long: `Parse a DReyeVR recording into per-field time series.

The result is cached under the recording's base name (exp1.rec.txt -> exp1).
A cached result is served even when the recording changed since; pass
--force-reload to parse it again.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().IntVarP(&workers, "workers", "w", 1,
		"Number of parallel parse workers (0 = one per CPU)")
	parseCmd.Flags().BoolVarP(&forceReload, "force-reload", "f", false,
		"Ignore the cached result and parse the recording again")
	parseCmd.Flags().StringVarP(&outputFormat, "output", "o", "table",
		"Output format (table, json, csv, summary)")
	parseCmd.Flags().StringVar(&sortBy, "sort", "order",
		"Table row order (order, name, samples)")
	parseCmd.Flags().BoolVar(&sortDesc, "desc", false,
		"Reverse the table row order")
}

func runParse(cmd *cobra.Command, args []string) error {
	path, err := recordingArg(args)
	if err != nil {
		return err
	}

	out, err := formatter.NewFormatter(outputFormat)
	if err != nil {
		return err
	}
	sortField, err := formatter.ParseSortField(sortBy)
	if err != nil {
		return err
	}
	if table, ok := out.(*formatter.TableFormatter); ok {
		order := formatter.SortAscending
		if sortDesc {
			order = formatter.SortDescending
		}
		table.WithSorter(formatter.NewFieldSorter(sortField, order))
	}

	coordinator, err := newCoordinator(cmd, workers, forceReload)
	if err != nil {
		return err
	}

	result, stats, err := coordinator.Ingest(path)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if stats.Stale {
		fmt.Fprintln(cmd.ErrOrStderr(), util.FormatWarning(
			fmt.Sprintf("warning: %s changed after it was cached; run with --force-reload to re-parse", path)))
	}

	return out.Format(cmd.OutOrStdout(), result, stats)
}
