package trace

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	defaultMaxSizeBytes    = 10 * 1024 * 1024
	defaultMaxRotatedFiles = 5
)

// ErrExporterClosed is returned by Export after Close
var ErrExporterClosed = errors.New("exporter closed")

// FileExporter appends traces to a JSON Lines file and rotates it by size.
// Rotated files are named <path>.1 (newest) through <path>.N (oldest).
type FileExporter struct {
	filePath        string
	maxSizeBytes    int64
	maxRotatedFiles int

	mu     sync.Mutex
	file   *os.File
	size   int64
	closed bool
}

// WithMaxSize sets the maximum file size before rotation (default: 10MB).
func WithMaxSize(bytes int64) FileExporterOption {
	return func(fe *FileExporter) {
		fe.maxSizeBytes = bytes
	}
}

// WithMaxRotatedFiles sets how many rotated files to keep (default: 5).
func WithMaxRotatedFiles(count int) FileExporterOption {
	return func(fe *FileExporter) {
		fe.maxRotatedFiles = count
	}
}

// NewFileExporter creates a JSON Lines trace exporter.
// An empty filePath yields a NoopExporter.
func NewFileExporter(filePath string, opts ...FileExporterOption) (Exporter, error) {
	if filePath == "" {
		return &NoopExporter{}, nil
	}

	fe := &FileExporter{
		filePath:        filePath,
		maxSizeBytes:    defaultMaxSizeBytes,
		maxRotatedFiles: defaultMaxRotatedFiles,
	}
	for _, opt := range opts {
		opt(fe)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("create trace directory: %w", err)
	}
	if err := fe.open(); err != nil {
		return nil, err
	}

	return fe, nil
}

// Export writes a trace record as one JSON line, rotating afterwards if the file grew too large.
func (fe *FileExporter) Export(ctx context.Context, record *TraceRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode trace record: %w", err)
	}
	line = append(line, '\n')

	fe.mu.Lock()
	defer fe.mu.Unlock()

	if fe.closed {
		return ErrExporterClosed
	}

	n, err := fe.file.Write(line)
	fe.size += int64(n)
	if err != nil {
		return fmt.Errorf("write trace record: %w", err)
	}

	if fe.size >= fe.maxSizeBytes {
		if err := fe.rotate(); err != nil {
			return fmt.Errorf("rotate trace file: %w", err)
		}
	}

	return nil
}

// Close syncs and closes the trace file. Calling it twice is harmless.
func (fe *FileExporter) Close() error {
	fe.mu.Lock()
	defer fe.mu.Unlock()

	if fe.closed {
		return nil
	}
	fe.closed = true

	syncErr := fe.file.Sync()
	closeErr := fe.file.Close()
	if syncErr != nil {
		return fmt.Errorf("sync trace file: %w", syncErr)
	}
	return closeErr
}

// open opens the current file for append. Caller holds the lock or owns fe exclusively.
func (fe *FileExporter) open() error {
	file, err := os.OpenFile(fe.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open trace file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat trace file: %w", err)
	}
	fe.file = file
	fe.size = info.Size()
	return nil
}

// rotate shifts <path>.i to <path>.i+1, drops the oldest, moves the current file to <path>.1
// and reopens. Must be called with lock held. The current handle is only
// replaced once the new file is open, so a failed rotation keeps appending
// to the old file and is retried on the next export.
func (fe *FileExporter) rotate() error {
	if fe.maxRotatedFiles <= 0 {
		if err := fe.file.Truncate(0); err != nil {
			return fmt.Errorf("truncate trace file: %w", err)
		}
		fe.size = 0
		return nil
	}

	oldest := rotatedName(fe.filePath, fe.maxRotatedFiles)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove oldest rotated file: %w", err)
	}
	for i := fe.maxRotatedFiles - 1; i >= 1; i-- {
		from, to := rotatedName(fe.filePath, i), rotatedName(fe.filePath, i+1)
		if err := os.Rename(from, to); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("shift rotated file %s -> %s: %w", from, to, err)
		}
	}
	if err := os.Rename(fe.filePath, rotatedName(fe.filePath, 1)); err != nil {
		return fmt.Errorf("rotate current file: %w", err)
	}

	rotated := fe.file
	if err := fe.open(); err != nil {
		return err
	}
	if err := rotated.Close(); err != nil {
		return fmt.Errorf("close rotated trace file: %w", err)
	}
	return nil
}

func rotatedName(path string, n int) string {
	return fmt.Sprintf("%s.%d", path, n)
}

// ReadFile loads every record of a JSON Lines trace file.
func ReadFile(path string) ([]TraceRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	defer file.Close()

	var records []TraceRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; scanner.Scan(); line++ {
		var record TraceRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			return nil, fmt.Errorf("decode trace line %d: %w", line, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan trace file: %w", err)
	}

	return records, nil
}
