package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/penwyp/go-dreyevr-parser/internal/util"
)

// DefaultPattern matches the text dumps written by the recorder.
const DefaultPattern = "*.txt"

// FileScanner finds recordings under a directory
type FileScanner struct {
	baseDir string
	pattern string
}

// NewFileScanner creates a scanner for baseDir. An empty pattern falls back
// to DefaultPattern; patterns are matched case-insensitively against base names.
func NewFileScanner(baseDir, pattern string) *FileScanner {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &FileScanner{
		baseDir: baseDir,
		pattern: strings.ToLower(pattern),
	}
}

// Scan walks the directory tree and returns the matching files in lexical
// order. Hidden directories are skipped, unreadable entries are logged and
// skipped.
func (s *FileScanner) Scan() ([]string, error) {
	if _, err := filepath.Match(s.pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", s.pattern, err)
	}

	start := time.Now()
	var files []string
	dirCount := 0
	totalCount := 0

	util.LogDebug(fmt.Sprintf("Start scanning directory: %s", s.baseDir))

	err := filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			util.LogDebug(fmt.Sprintf("Skip file (error): %s - %v", path, err))
			return nil
		}

		if d.IsDir() {
			if path != s.baseDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			dirCount++
			return nil
		}

		totalCount++
		if ok, _ := filepath.Match(s.pattern, strings.ToLower(d.Name())); ok {
			files = append(files, path)
		}
		return nil
	})

	sort.Strings(files)
	util.LogDebug(fmt.Sprintf("File scan completed: duration %v, scanned %d directories, %d files, found %d recordings",
		time.Since(start), dirCount, totalCount, len(files)))

	return files, err
}
