package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/penwyp/go-dreyevr-parser/internal/core/model"
	"github.com/penwyp/go-dreyevr-parser/internal/util"
)

const (
	blobExt      = ".cache"
	partitionTag = ".part"
	lockName     = ".lock"

	lockTimeout  = 30 * time.Second
	lockInterval = 100 * time.Millisecond
)

type CacheMissReason int

const (
	MissReasonNone CacheMissReason = iota
	MissReasonError
	MissReasonNotFound
)

func (r CacheMissReason) String() string {
	switch r {
	case MissReasonNone:
		return "none"
	case MissReasonError:
		return "unreadable"
	case MissReasonNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

type CacheResult struct {
	Data       *model.Group
	Meta       Meta
	Found      bool
	MissReason CacheMissReason
	// Stale is set when the source changed after the entry was written.
	// Stale entries are still served.
	Stale bool
}

type Cache interface {
	Get(identity string) CacheResult
	Set(identity string, data *model.Group, sourcePath string) error
	GetPartition(identity string, index int) (*model.Group, error)
	SetPartition(identity string, index int, data *model.Group) error
	RemovePartitions(identity string) error
	Clear() error
}

type memoryEntry struct {
	data *model.Group
	meta Meta
}

type FileCache struct {
	baseDir     string
	codec       *Codec
	mu          sync.RWMutex
	memoryCache map[string]memoryEntry
}

func NewFileCache(baseDir string) (*FileCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	codec, err := NewCodec()
	if err != nil {
		return nil, err
	}

	return &FileCache{
		baseDir:     baseDir,
		codec:       codec,
		memoryCache: make(map[string]memoryEntry),
	}, nil
}

// ExtractIdentity derives the cache key from a source path: the base name up
// to its first dot, e.g. "/data/exp1.rec.txt" -> "exp1".
func ExtractIdentity(filePath string) string {
	name := filepath.Base(filePath)
	if i := strings.IndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}

// PartitionIdentity qualifies identity with a partition index. The dot keeps
// it distinct from every plain identity.
func PartitionIdentity(identity string, index int) string {
	return fmt.Sprintf("%s%s%03d", identity, partitionTag, index)
}

func (c *FileCache) blobPath(identity string) string {
	return filepath.Join(c.baseDir, identity+blobExt)
}

func (c *FileCache) Get(identity string) CacheResult {
	c.mu.RLock()
	memEntry, exists := c.memoryCache[identity]
	c.mu.RUnlock()

	if exists {
		return CacheResult{Data: memEntry.data, Meta: memEntry.meta, Found: true, Stale: isStale(memEntry.meta)}
	}
	return c.getFromFile(identity)
}

func (c *FileCache) getFromFile(identity string) CacheResult {
	meta, data, err := c.readBlob(c.blobPath(identity))
	if errors.Is(err, fs.ErrNotExist) {
		util.LogDebugf("Cache miss for %s: no entry", identity)
		return CacheResult{MissReason: MissReasonNotFound}
	}
	if err != nil {
		util.LogInfof("Cache miss for %s: %v", identity, err)
		return CacheResult{MissReason: MissReasonError}
	}

	c.mu.Lock()
	c.memoryCache[identity] = memoryEntry{data: data, meta: meta}
	c.mu.Unlock()

	return CacheResult{Data: data, Meta: meta, Found: true, Stale: isStale(meta)}
}

// isStale compares the recorded source metadata with the file on disk.
// A missing source is not stale: the cached result is all that is left.
func isStale(meta Meta) bool {
	if meta.SourcePath == "" {
		return false
	}
	current, err := util.GetFileInfo(meta.SourcePath)
	if err != nil {
		util.LogDebugf("Staleness check skipped for %s: %v", meta.SourcePath, err)
		return false
	}

	recorded := &util.FileInfo{ModTime: meta.ModTime, Size: meta.SourceSize, Inode: meta.Inode}
	if current.Changed(recorded) {
		util.LogWarnf("Cached result for %s is older than the source (size %d -> %d); use force reload to re-parse",
			meta.SourcePath, meta.SourceSize, current.Size)
		return true
	}

	if meta.Fingerprint == "" {
		return false
	}
	fingerprint, err := util.CalculateFileFingerprint(meta.SourcePath)
	if err != nil || fingerprint == meta.Fingerprint {
		return false
	}
	util.LogWarnf("Cached result for %s no longer matches the source content; use force reload to re-parse", meta.SourcePath)
	return true
}

// Set persists data for identity and records sourcePath's metadata next to it.
// Writers in other processes are serialized through a lock file.
func (c *FileCache) Set(identity string, data *model.Group, sourcePath string) error {
	meta := Meta{SourcePath: sourcePath}
	if sourcePath != "" {
		if info, err := util.GetFileInfo(sourcePath); err == nil {
			meta.SourceSize = info.Size
			meta.ModTime = info.ModTime
			meta.Inode = info.Inode
		} else {
			util.LogDebugf("Cache entry %s stored without source metadata: %v", identity, err)
		}
		if fingerprint, err := util.CalculateFileFingerprint(sourcePath); err == nil {
			meta.Fingerprint = fingerprint
		}
	}

	unlock, err := c.acquireLock(lockTimeout)
	if err != nil {
		return err
	}
	defer unlock()

	if err := c.writeBlob(c.blobPath(identity), meta, data); err != nil {
		return fmt.Errorf("store cache entry %s: %w", identity, err)
	}

	c.mu.Lock()
	c.memoryCache[identity] = memoryEntry{data: data, meta: meta}
	c.mu.Unlock()
	return nil
}

// GetPartition loads one worker's partial result straight from disk.
func (c *FileCache) GetPartition(identity string, index int) (*model.Group, error) {
	_, data, err := c.readBlob(c.blobPath(PartitionIdentity(identity, index)))
	if err != nil {
		return nil, err
	}
	return data, nil
}

// SetPartition writes one worker's partial result. Partition names never
// collide, so no lock is taken.
func (c *FileCache) SetPartition(identity string, index int, data *model.Group) error {
	return c.writeBlob(c.blobPath(PartitionIdentity(identity, index)), Meta{}, data)
}

// RemovePartitions deletes every partition blob of identity.
func (c *FileCache) RemovePartitions(identity string) error {
	matches, err := filepath.Glob(filepath.Join(c.baseDir, identity+partitionTag+"*"+blobExt))
	if err != nil {
		return err
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (c *FileCache) readBlob(path string) (Meta, *model.Group, error) {
	file, err := os.Open(path)
	if err != nil {
		return Meta{}, nil, err
	}
	defer file.Close()

	return c.codec.Decode(file)
}

// writeBlob writes to a temp file in the cache directory and renames it into
// place, so readers never see a partial blob.
func (c *FileCache) writeBlob(path string, meta Meta, data *model.Group) error {
	tmp, err := os.CreateTemp(c.baseDir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := c.codec.Encode(tmp, meta, data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (c *FileCache) acquireLock(timeout time.Duration) (func(), error) {
	lockPath := filepath.Join(c.baseDir, lockName)
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return func() {}, fmt.Errorf("cannot acquire cache lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return func() {}, fmt.Errorf("cache is locked by another process (lock: %s)", lockPath)
		}
		time.Sleep(lockInterval)
	}
}

// Clear drops every entry and partition blob.
func (c *FileCache) Clear() error {
	unlock, err := c.acquireLock(lockTimeout)
	if err != nil {
		return err
	}
	defer unlock()

	c.mu.Lock()
	c.memoryCache = make(map[string]memoryEntry)
	c.mu.Unlock()

	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != blobExt {
			continue
		}
		if err := os.Remove(filepath.Join(c.baseDir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// EntryInfo describes one stored result.
type EntryInfo struct {
	Identity string
	Meta     Meta
	Bytes    int64
}

type CacheStats struct {
	Entries       []EntryInfo
	Partitions    int
	MemoryEntries int
	TotalBytes    int64
}

// Stats lists stored entries by identity, reading only blob headers.
func (c *FileCache) Stats() (CacheStats, error) {
	c.mu.RLock()
	stats := CacheStats{MemoryEntries: len(c.memoryCache)}
	c.mu.RUnlock()

	dirEntries, err := os.ReadDir(c.baseDir)
	if err != nil {
		return stats, err
	}

	for _, entry := range dirEntries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != blobExt {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		stats.TotalBytes += info.Size()

		identity := strings.TrimSuffix(name, blobExt)
		if strings.Contains(identity, partitionTag) {
			stats.Partitions++
			continue
		}

		meta, err := c.readMeta(filepath.Join(c.baseDir, name))
		if err != nil {
			util.LogDebugf("Skipping unreadable cache blob %s: %v", name, err)
			continue
		}
		stats.Entries = append(stats.Entries, EntryInfo{Identity: identity, Meta: meta, Bytes: info.Size()})
	}

	sort.Slice(stats.Entries, func(i, j int) bool {
		return stats.Entries[i].Identity < stats.Entries[j].Identity
	})
	return stats, nil
}

func (c *FileCache) readMeta(path string) (Meta, error) {
	file, err := os.Open(path)
	if err != nil {
		return Meta{}, err
	}
	defer file.Close()
	return c.codec.DecodeMeta(file)
}
