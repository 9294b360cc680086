package commands

import (
	"fmt"
	"os"

	"github.com/penwyp/go-dreyevr-parser/internal/analyzer"
	"github.com/penwyp/go-dreyevr-parser/internal/presentation/formatter"
	"github.com/spf13/cobra"
)

var (
	analyzePattern     string
	analyzeConcurrency int
	analyzeWorkers     int
	analyzeForceReload bool
	analyzeOutput      string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <directory>",
	Short: "Parse and validate every recording under a directory",
	Long: `Find every recording under a directory, parse it (or load its cached
result) and check its structure. Recordings are cached by base name, so two
recordings sharing one (exp1.txt and exp1.rec.txt) cannot both be processed;
only the first in lexical order is.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzePattern, "pattern", "p", "*.txt",
		"File name pattern of recordings")
	analyzeCmd.Flags().IntVarP(&analyzeConcurrency, "concurrency", "c", 0,
		"Recordings processed at once (0 = one per CPU)")
	analyzeCmd.Flags().IntVarP(&analyzeWorkers, "workers", "w", 1,
		"Parse workers per recording (0 = one per CPU)")
	analyzeCmd.Flags().BoolVarP(&analyzeForceReload, "force-reload", "f", false,
		"Ignore cached results and parse every recording again")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "table",
		"Output format (table, json)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	dir := expandPath(args[0])
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	out, err := formatter.NewReportFormatter(analyzeOutput)
	if err != nil {
		return err
	}

	workers, err := resolveWorkers(cmd, analyzeWorkers)
	if err != nil {
		return err
	}
	a, err := analyzer.New(&analyzer.Config{
		DataDir:     dir,
		Pattern:     analyzePattern,
		CacheDir:    appConfig.CacheDir,
		Workers:     workers,
		Concurrency: analyzeConcurrency,
		ForceReload: analyzeForceReload,
		Debug:       appConfig.Debug,
	})
	if err != nil {
		return err
	}

	report, err := a.Run()
	if err != nil {
		return err
	}
	if err := out.FormatReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	invalid := 0
	for _, r := range report.Recordings {
		if !r.Valid() {
			invalid++
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d recordings failed", invalid, len(report.Recordings))
	}
	return nil
}
