package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/penwyp/go-dreyevr-parser/internal/config"
	"github.com/penwyp/go-dreyevr-parser/internal/ingest"
	"github.com/penwyp/go-dreyevr-parser/internal/util"
	"github.com/spf13/cobra"
)

var (
	// Logging related
	debug     bool
	logFormat string

	// Locations
	configFile string
	cacheDir   string

	// Settings resolved from the config file and flags
	appConfig *config.Config

	rootCmd = &cobra.Command{
		Use:   "dreyevr-parser",
		Short: "DReyeVR recording parser",
		Long: `dreyevr-parser turns DReyeVR simulator recordings into per-field time series.

Recordings are parsed once and cached by file name; later runs load the cached
result unless --force-reload is given. Large recordings can be parsed by
several workers in parallel.

Examples:
  dreyevr-parser parse exp1.txt                      # Parse (or load) and print a field table
  dreyevr-parser parse exp1.txt -w 8 -o summary      # Parse with 8 workers, print a summary
  dreyevr-parser parse exp1.txt -f -o json > out.json
  dreyevr-parser validate exp1.txt                   # Check per-field sample counts
  dreyevr-parser watch exp1.txt                      # Re-parse whenever the recording grows
  dreyevr-parser cache stats`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Config file (default ~/.go-dreyevr-parser/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "",
		"Cache directory (overrides the config file)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode: validate while parsing and log to the console")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Log format (text, json)")
}

// setup loads the config file, applies flag overrides and starts logging.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("cache-dir") {
		cfg.CacheDir = cacheDir
	}
	if flags.Changed("debug") {
		cfg.Debug = debug
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = logFormat
	}
	cfg.CacheDir = expandPath(cfg.CacheDir)
	appConfig = cfg

	// Determine log level based on debug flag
	logLevel := "info"
	if cfg.Debug {
		logLevel = "debug"
	}
	if err := util.InitLogger(util.LoggerOptions{
		Level:   logLevel,
		File:    cfg.LogFile,
		Console: cfg.Debug,
		Format:  util.LogFormat(cfg.LogFormat),
	}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

func Execute() error {
	return rootCmd.Execute()
}

// resolveWorkers picks the worker count: the --workers flag when it was
// given, the config file otherwise. 0 means one worker per CPU.
func resolveWorkers(cmd *cobra.Command, workers int) (int, error) {
	if !cmd.Flags().Changed("workers") {
		workers = appConfig.Workers
	}
	switch {
	case workers < 0:
		return 0, fmt.Errorf("--workers must not be negative, got %d", workers)
	case workers == 0:
		return runtime.NumCPU(), nil
	}
	return workers, nil
}

// newCoordinator builds an ingestion coordinator from the resolved settings.
func newCoordinator(cmd *cobra.Command, workers int, forceReload bool) (*ingest.Coordinator, error) {
	workers, err := resolveWorkers(cmd, workers)
	if err != nil {
		return nil, err
	}
	return ingest.New(ingest.Config{
		CacheDir:    appConfig.CacheDir,
		Workers:     workers,
		ForceReload: forceReload,
		Debug:       appConfig.Debug,
	})
}

// Helper functions

// expandPath expands ~ and makes path absolute.
func expandPath(path string) string {
	if expanded, err := config.ExpandPath(path); err == nil {
		path = expanded
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

// recordingArg resolves the recording path given on the command line. The
// file may be gone as long as its parsed result is still cached.
func recordingArg(args []string) (string, error) {
	path := expandPath(args[0])
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return "", fmt.Errorf("%s is a directory, expected a recording file", path)
	}
	return path, nil
}
