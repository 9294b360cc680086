package util

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

const fingerprintWindow = 4096

// CalculateFileFingerprint returns a CRC32 over the first and last 4KB of a
// file. Recordings only grow at the end and start with a fixed header, so the
// two windows together change whenever the recording is replaced or extended.
func CalculateFileFingerprint(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return "", err
	}
	size := stat.Size()

	crc := crc32.NewIEEE()
	head := io.NewSectionReader(file, 0, min(size, fingerprintWindow))
	if _, err := io.Copy(crc, head); err != nil {
		return "", err
	}
	if size > fingerprintWindow {
		tailStart := max(fingerprintWindow, size-fingerprintWindow)
		tail := io.NewSectionReader(file, tailStart, size-tailStart)
		if _, err := io.Copy(crc, tail); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%08x-%d", crc.Sum32(), size), nil
}
