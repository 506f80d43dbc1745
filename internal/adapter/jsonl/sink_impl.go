// Package jsonl appends records to newline-delimited JSON files.
package jsonl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/annuaire-crawler/internal/entity"
)

// SinkImpl appends one JSON line per record. Each line reaches the file before Append returns.
type SinkImpl struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// OpenSink opens path for appending, creating it and its directory when missing.
func OpenSink(path string) (*SinkImpl, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file %s: %w", path, err)
	}
	return &SinkImpl{path: path, file: f}, nil
}

// Append writes the record as a single line.
func (s *SinkImpl) Append(_ context.Context, record *entity.RawRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", record.URL, err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return os.ErrClosed
	}
	if _, err := s.file.Write(line); err != nil {
		return fmt.Errorf("failed to append to %s: %w", s.path, err)
	}
	return nil
}

// Path returns the file the sink writes to.
func (s *SinkImpl) Path() string {
	return s.path
}

func (s *SinkImpl) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
