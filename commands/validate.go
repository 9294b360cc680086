package commands

import (
	"errors"
	"fmt"

	"github.com/penwyp/go-dreyevr-parser/internal/core/model"
	"github.com/penwyp/go-dreyevr-parser/internal/data/validator"
	"github.com/penwyp/go-dreyevr-parser/internal/util"
	"github.com/spf13/cobra"
)

var (
	validateForceReload bool
	validateWorkers     int
)

var validateCmd = &cobra.Command{
	Use:   "validate <recording>",
	Short: "Check that every field has one sample per frame",
	Long: `Parse (or load) a recording and check its structure: every field outside
CustomActor must hold as many samples as there are frames, or one fewer;
all CustomActor fields must hold the same number of records.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVarP(&validateForceReload, "force-reload", "f", false,
		"Ignore the cached result and parse the recording again")
	validateCmd.Flags().IntVarP(&validateWorkers, "workers", "w", 1,
		"Number of parallel parse workers (0 = one per CPU)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	path, err := recordingArg(args)
	if err != nil {
		return err
	}

	coordinator, err := newCoordinator(cmd, validateWorkers, validateForceReload)
	if err != nil {
		return err
	}

	result, stats, err := coordinator.Ingest(path)
	if err != nil && !errors.Is(err, validator.ErrValidation) {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err == nil {
		err = validator.ValidateResult(result)
	}

	w := cmd.OutOrStdout()
	frames := 0
	if err == nil {
		timeline, _ := result.Field(model.TimelineField)
		frames = timeline.Len()
	}
	fmt.Fprintf(w, "%s %s (%s frames", util.FormatStatus(err == nil), path, util.FormatThousands(frames))
	if stats != nil && stats.FromCache {
		fmt.Fprint(w, ", cached")
	}
	fmt.Fprintln(w, ")")

	if err != nil {
		fmt.Fprintf(w, "  %v\n", err)
		return fmt.Errorf("%s failed validation: %w", path, err)
	}
	return nil
}
