package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/penwyp/go-dreyevr-parser/internal/ingest"
	"github.com/penwyp/go-dreyevr-parser/internal/presentation/display"
	"github.com/penwyp/go-dreyevr-parser/internal/presentation/formatter"
	"github.com/penwyp/go-dreyevr-parser/internal/util"
	"github.com/spf13/cobra"
)

var (
	watchWorkers int
	watchOutput  string
	watchSettle  time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <recording>",
	Short: "Re-parse a recording every time it is written",
	Long: `Parse a recording, then keep watching it and parse it again (bypassing the
cache) whenever it changes, e.g. while the simulator is still recording.
Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().IntVarP(&watchWorkers, "workers", "w", 1,
		"Number of parallel parse workers (0 = one per CPU)")
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "summary",
		"Output format (table, json, csv, summary)")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", ingest.DefaultSettle,
		"Quiet period after the last write before re-parsing")
}

func runWatch(cmd *cobra.Command, args []string) error {
	path, err := recordingArg(args)
	if err != nil {
		return err
	}
	out, err := formatter.NewFormatter(watchOutput)
	if err != nil {
		return err
	}
	coordinator, err := newCoordinator(cmd, watchWorkers, true)
	if err != nil {
		return err
	}

	fw, err := ingest.NewFileWatcher(path, watchSettle)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	defer fw.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	screen := display.NewScreen(cmd.OutOrStdout())
	screen.EnterAlternateScreen()
	defer screen.ExitAlternateScreen()

	ingestAndPrint := func() {
		result, stats, err := coordinator.Ingest(path)
		if err != nil {
			// A recording that is still being written may end mid-line.
			util.LogWarnf("Parse of %s failed, waiting for the next change: %v", path, err)
			fmt.Fprintln(cmd.ErrOrStderr(), util.FormatWarning(fmt.Sprintf("parse failed: %v", err)))
			return
		}
		screen.Clear()
		if err := out.Format(cmd.OutOrStdout(), result, stats); err != nil {
			util.LogErrorf("Failed to print result: %v", err)
		}
	}

	ingestAndPrint()
	util.LogInfof("Watching %s", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events():
			if !ok {
				return nil
			}
			util.LogInfof("%s changed (%s), parsing again", event.Path, event.Operation)
			ingestAndPrint()
		}
	}
}
