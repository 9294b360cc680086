package util

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// FileInfo contains the identity of a file on disk at one point in time.
type FileInfo struct {
	ModTime int64  // Last modification time, unix seconds
	Size    int64  // File size in bytes
	Inode   uint64 // Inode number
}

// GetFileInfo stats path. Supported on Linux and macOS.
func GetFileInfo(path string) (*FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return nil, fmt.Errorf("failed to get file system information: %s: %w", path, err)
	}

	return &FileInfo{
		ModTime: stat.ModTime().Unix(),
		Size:    stat.Size(),
		Inode:   uint64(st.Ino),
	}, nil
}

// Changed reports whether the file no longer matches other.
func (fi *FileInfo) Changed(other *FileInfo) bool {
	if fi == nil || other == nil {
		return fi != other
	}
	return fi.ModTime != other.ModTime || fi.Size != other.Size || fi.Inode != other.Inode
}
