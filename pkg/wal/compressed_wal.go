package wal

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	walFileName     = "batchgraph_wal.log"
	dirPermissions  = 0755
	filePermissions = 0644
)

// ErrClosed is returned by operations on a closed WAL
var ErrClosed = errors.New("wal is closed")

// CompressedWAL is a Write-Ahead Log with snappy compression.
// Records are appended a chunk at a time and each chunk ends with a
// commit marker.
type CompressedWAL struct {
	file       *os.File
	writer     *bufio.Writer
	currentLSN uint64
	dataDir    string
	closed     bool
	mu         sync.Mutex

	// Statistics
	totalWrites       uint64
	chunks            uint64
	bytesUncompressed uint64
	bytesCompressed   uint64
}

// NewCompressedWAL creates or reopens the compressed WAL in dataDir
func NewCompressedWAL(dataDir string) (*CompressedWAL, error) {
	if err := os.MkdirAll(dataDir, dirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create WAL directory: %w", err)
	}

	file, err := os.OpenFile(filepath.Join(dataDir, walFileName), os.O_RDWR|os.O_CREATE|os.O_APPEND, filePermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAL file: %w", err)
	}

	w := &CompressedWAL{
		file:    file,
		writer:  bufio.NewWriter(file),
		dataDir: dataDir,
	}

	if err := w.recover(); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to recover LSN: %w", err)
	}

	return w, nil
}

// Path returns the WAL file path
func (w *CompressedWAL) Path() string {
	return filepath.Join(w.dataDir, walFileName)
}

// Close flushes and closes the WAL
func (w *CompressedWAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.writer.Flush(); err != nil {
		return err
	}
	if err := w.file.Sync(); err != nil {
		return err
	}
	return w.file.Close()
}

// Truncate discards every entry and restarts LSNs at zero
func (w *CompressedWAL) Truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	w.writer.Flush()
	w.file.Close()

	if err := os.Remove(w.Path()); err != nil && !os.IsNotExist(err) {
		return err
	}

	file, err := os.OpenFile(w.Path(), os.O_RDWR|os.O_CREATE|os.O_APPEND, filePermissions)
	if err != nil {
		return err
	}

	w.file = file
	w.writer = bufio.NewWriter(file)
	w.currentLSN = 0
	return nil
}

// recover positions currentLSN after the last committed chunk and cuts
// off any uncommitted or torn tail so new chunks are not appended behind it.
func (w *CompressedWAL) recover() error {
	entries, committedSize, err := w.scan()
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.OpType == OpCommitChunk {
			w.currentLSN = e.LSN
		}
	}

	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() > committedSize {
		if err := w.file.Truncate(committedSize); err != nil {
			return err
		}
	}
	return nil
}

// GetStatistics returns compression statistics
func (w *CompressedWAL) GetStatistics() CompressedWALStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	ratio := 0.0
	if w.bytesUncompressed > 0 {
		ratio = 1.0 - (float64(w.bytesCompressed) / float64(w.bytesUncompressed))
	}

	return CompressedWALStats{
		TotalWrites:       w.totalWrites,
		Chunks:            w.chunks,
		BytesUncompressed: w.bytesUncompressed,
		BytesCompressed:   w.bytesCompressed,
		CompressionRatio:  ratio,
	}
}

// GetCurrentLSN returns the current LSN
func (w *CompressedWAL) GetCurrentLSN() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentLSN
}
