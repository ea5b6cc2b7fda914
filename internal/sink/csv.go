package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"liquidationLedger/internal/model"
)

// CSVSink appends one row per record to a local CSV file. The header is
// written only when the file is created; re-running against an existing
// file appends rows without deduplication.
type CSVSink struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVSink opens (or creates) the CSV file at path.
func NewCSVSink(path string) (*CSVSink, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat output file: %w", err)
	}

	writer := csv.NewWriter(file)
	if stat.Size() == 0 {
		if err := writer.Write(model.CSVHeader()); err != nil {
			file.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			file.Close()
			return nil, fmt.Errorf("flush header: %w", err)
		}
	}

	return &CSVSink{file: file, writer: writer}, nil
}

// Emit appends the record as one CSV row.
func (s *CSVSink) Emit(_ context.Context, record model.AccountingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writer.Write(record.Row()); err != nil {
		return &OutputError{Op: "write csv row", Err: err}
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return &OutputError{Op: "flush csv row", Err: err}
	}
	return nil
}

// Close flushes and closes the file.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
