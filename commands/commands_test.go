package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-dreyevr-parser/internal/config"
	"github.com/penwyp/go-dreyevr-parser/internal/testing/fixtures"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// resetFlags puts every flag back to its default between executions of the
// shared command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func prepare(t *testing.T, out *syncBuffer, args ...string) {
	t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &syncBuffer{}
	prepare(t, out, args...)
	err := rootCmd.Execute()
	return out.String(), err
}

type env struct {
	home     string
	cacheDir string
	dataDir  string
}

func newEnv(t *testing.T) env {
	t.Helper()
	e := env{home: t.TempDir(), cacheDir: t.TempDir(), dataDir: t.TempDir()}
	t.Setenv("HOME", e.home)
	return e
}

func (e env) recording(t *testing.T, name string, frames int) string {
	t.Helper()
	path, err := fixtures.NewRecordingGenerator(e.dataDir).Generate(name, fixtures.RecordingOptions{
		Frames:               frames,
		CustomActorEvery:     4,
		CustomActorsPerFrame: 1,
		Header:               true,
	})
	require.NoError(t, err)
	return path
}

func TestParseTable(t *testing.T) {
	e := newEnv(t)
	path := e.recording(t, "exp1.txt", 10)

	out, err := executeCommand(t, "parse", path, "--cache-dir", e.cacheDir)
	require.NoError(t, err)

	assert.Contains(t, out, "TimeElapsed")
	assert.Contains(t, out, "EyeTracker_COMBINEDGazeRay")
	assert.Contains(t, out, "10 frames")
}

func TestParseJSONWithWorkers(t *testing.T) {
	e := newEnv(t)
	path := e.recording(t, "exp2.rec.txt", 25)

	out, err := executeCommand(t, "parse", path, "--cache-dir", e.cacheDir, "-w", "4", "-o", "json")
	require.NoError(t, err)

	var doc struct {
		Identity string         `json:"identity"`
		Frames   int            `json:"frames"`
		Data     map[string]any `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "exp2", doc.Identity)
	assert.Equal(t, 25, doc.Frames)
	assert.Contains(t, doc.Data, "CustomActor")
}

func TestParseUsesCacheUntilForced(t *testing.T) {
	e := newEnv(t)
	path := e.recording(t, "exp3.txt", 5)

	out, err := executeCommand(t, "parse", path, "--cache-dir", e.cacheDir, "-o", "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "parsed with 1 worker (cache not found)")

	out, err = executeCommand(t, "parse", path, "--cache-dir", e.cacheDir, "-o", "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Result:    cache hit\n")

	lines := fixtures.RecordingLines(fixtures.RecordingOptions{Frames: 7})
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))

	out, err = executeCommand(t, "parse", path, "--cache-dir", e.cacheDir, "-o", "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "changed after it was cached")
	assert.Contains(t, out, "Frames:    5")

	out, err = executeCommand(t, "parse", path, "--cache-dir", e.cacheDir, "-o", "summary", "--force-reload")
	require.NoError(t, err)
	assert.Contains(t, out, "Frames:    7")
	assert.NotContains(t, out, "cache hit")
}

func TestParseErrors(t *testing.T) {
	e := newEnv(t)
	path := e.recording(t, "exp4.txt", 2)

	_, err := executeCommand(t, "parse", path, "--cache-dir", e.cacheDir, "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")

	_, err = executeCommand(t, "parse", filepath.Join(e.dataDir, "missing.txt"), "--cache-dir", e.cacheDir)
	assert.Error(t, err)

	_, err = executeCommand(t, "parse", e.dataDir, "--cache-dir", e.cacheDir)
	assert.ErrorContains(t, err, "is a directory")

	_, err = executeCommand(t, "parse", "--cache-dir", e.cacheDir)
	assert.Error(t, err)
}

func TestConfigFileSetsWorkers(t *testing.T) {
	e := newEnv(t)
	path := e.recording(t, "exp5.txt", 12)

	configPath := filepath.Join(e.home, "custom.yaml")
	content := "cache_dir: " + e.cacheDir + "\nworkers: 3\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	out, err := executeCommand(t, "parse", path, "--config", configPath, "-o", "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "parsed with 3 workers")

	out, err = executeCommand(t, "parse", path, "--config", configPath, "-o", "summary", "-f", "-w", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "parsed with 2 workers")

	_, err = os.Stat(filepath.Join(e.home, ".go-dreyevr-parser", "logs", "app.log"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	e := newEnv(t)
	path := e.recording(t, "exp6.txt", 8)

	out, err := executeCommand(t, "validate", path, "--cache-dir", e.cacheDir, "-w", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "OK")
	assert.Contains(t, out, "(8 frames)")

	out, err = executeCommand(t, "validate", path, "--cache-dir", e.cacheDir)
	require.NoError(t, err)
	assert.Contains(t, out, "(8 frames, cached)")
}

func TestValidateReportsMismatch(t *testing.T) {
	e := newEnv(t)
	path := filepath.Join(e.dataDir, "short.txt")
	content := strings.Join([]string{
		"Frame 1 at 0.1 seconds",
		"  [DReyeVR]TimestampCarla:100",
		"Frame 2 at 0.2 seconds",
		"Frame 3 at 0.3 seconds",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	out, err := executeCommand(t, "validate", path, "--cache-dir", e.cacheDir)
	require.Error(t, err)
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "TimestampCarla")

	out, err = executeCommand(t, "validate", path, "--cache-dir", e.cacheDir, "--debug", "-f")
	require.Error(t, err)
	assert.Contains(t, out, "FAIL")
}

func TestCacheStatsAndClear(t *testing.T) {
	e := newEnv(t)
	first := e.recording(t, "exp7.txt", 3)
	second := e.recording(t, "exp8.txt", 3)

	for _, path := range []string{first, second} {
		_, err := executeCommand(t, "parse", path, "--cache-dir", e.cacheDir, "-o", "summary")
		require.NoError(t, err)
	}

	out, err := executeCommand(t, "cache", "stats", "--cache-dir", e.cacheDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Entries: 2, partitions: 0")
	assert.Contains(t, out, "exp7")
	assert.Contains(t, out, second)

	out, err = executeCommand(t, "cache", "clear", "--cache-dir", e.cacheDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared")

	out, err = executeCommand(t, "cache", "stats", "--cache-dir", e.cacheDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Entries: 0")
}

func TestWatchReparsesOnWrite(t *testing.T) {
	e := newEnv(t)
	path := e.recording(t, "exp9.txt", 3)

	out := &syncBuffer{}
	prepare(t, out, "watch", path, "--cache-dir", e.cacheDir, "--settle", "50ms")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- rootCmd.ExecuteContext(ctx)
	}()
	defer func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watch did not stop")
		}
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Frames:    3")
	}, 5*time.Second, 20*time.Millisecond)

	lines := fixtures.RecordingLines(fixtures.RecordingOptions{Frames: 6})
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Frames:    6")
	}, 5*time.Second, 20*time.Millisecond)
}

func TestAnalyzeDirectory(t *testing.T) {
	e := newEnv(t)
	e.recording(t, "exp1.txt", 4)
	e.recording(t, "exp2.txt", 6)

	out, err := executeCommand(t, "analyze", e.dataDir, "--cache-dir", e.cacheDir, "-c", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "exp1.txt")
	assert.Contains(t, out, "2 recordings, 2 valid, 0 invalid")

	out, err = executeCommand(t, "analyze", e.dataDir, "--cache-dir", e.cacheDir, "-o", "json")
	require.NoError(t, err)
	var doc struct {
		Hits int `json:"hits"`
	}
	require.NoError(t, sonic.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 2, doc.Hits)
}

func TestAnalyzeReportsFailures(t *testing.T) {
	e := newEnv(t)
	e.recording(t, "exp1.txt", 4)
	e.recording(t, "exp1.rec.txt", 4)

	out, err := executeCommand(t, "analyze", e.dataDir, "--cache-dir", e.cacheDir)
	assert.ErrorContains(t, err, "1 of 2 recordings failed")
	assert.Contains(t, out, "cache identity already used")

	_, err = executeCommand(t, "analyze", filepath.Join(e.dataDir, "exp1.txt"), "--cache-dir", e.cacheDir)
	assert.ErrorContains(t, err, "not a directory")

	_, err = executeCommand(t, "analyze", t.TempDir(), "--cache-dir", e.cacheDir)
	assert.ErrorContains(t, err, "no recordings found")
}

func TestParseSortedTable(t *testing.T) {
	e := newEnv(t)
	path := e.recording(t, "exp10.txt", 4)

	out, err := executeCommand(t, "parse", path, "--cache-dir", e.cacheDir, "--sort", "name")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "CustomActor_"), strings.Index(out, "TimeElapsed"))

	_, err = executeCommand(t, "parse", path, "--cache-dir", e.cacheDir, "--sort", "size")
	assert.ErrorContains(t, err, "unknown sort field")
}

func TestResolveWorkers(t *testing.T) {
	saved := appConfig
	t.Cleanup(func() { appConfig = saved })

	newCmd := func(args ...string) *cobra.Command {
		cmd := &cobra.Command{Use: "test"}
		cmd.Flags().IntP("workers", "w", 1, "")
		require.NoError(t, cmd.Flags().Parse(args))
		return cmd
	}

	appConfig = &config.Config{Workers: 3}
	got, err := resolveWorkers(newCmd(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, got, "config file value when the flag is not given")

	got, err = resolveWorkers(newCmd("-w", "5"), 5)
	require.NoError(t, err)
	assert.Equal(t, 5, got)

	got, err = resolveWorkers(newCmd("-w", "0"), 0)
	require.NoError(t, err)
	assert.Equal(t, runtime.NumCPU(), got)

	appConfig = &config.Config{Workers: 0}
	got, err = resolveWorkers(newCmd(), 1)
	require.NoError(t, err)
	assert.Equal(t, runtime.NumCPU(), got)

	_, err = resolveWorkers(newCmd("-w", "-2"), -2)
	assert.ErrorContains(t, err, "must not be negative")
}
