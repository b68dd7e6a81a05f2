package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"oraScope/internal/model"
)

type jsonlLine struct {
	Table string `json:"table"`
	model.IngestRecord
}

// JSONLStore appends records as JSON lines. A tx id already written to a
// table (in this process or earlier in the same file) is not written again.
type JSONLStore struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	seen   map[string]struct{}
}

// NewJSONLStore opens path for appending; "-" writes to stdout.
func NewJSONLStore(path string) (*JSONLStore, error) {
	if path == "" || path == "-" {
		return NewJSONLWriter(os.Stdout), nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	seen, err := loadSeen(path)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	return &JSONLStore{w: file, closer: file, seen: seen}, nil
}

// NewJSONLWriter writes to w without taking ownership of it.
func NewJSONLWriter(w io.Writer) *JSONLStore {
	return &JSONLStore{w: w, seen: make(map[string]struct{})}
}

func loadSeen(path string) (map[string]struct{}, error) {
	seen := make(map[string]struct{})
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return seen, nil
		}
		return nil, fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var line jsonlLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			return nil, fmt.Errorf("parse existing output: %w", err)
		}
		seen[seenKey(line.Table, line.TxID)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read existing output: %w", err)
	}
	return seen, nil
}

func seenKey(table, txID string) string {
	return table + "/" + txID
}

func (s *JSONLStore) InsertRecord(_ context.Context, table string, record model.IngestRecord) (bool, error) {
	if err := ValidateTable(table); err != nil {
		return false, err
	}
	defer ObserveDuration("jsonl", "insert_record")()

	s.mu.Lock()
	defer s.mu.Unlock()

	key := seenKey(table, record.TxID)
	if _, ok := s.seen[key]; ok {
		return false, nil
	}

	line, err := json.Marshal(jsonlLine{Table: table, IngestRecord: record})
	if err != nil {
		return false, fmt.Errorf("marshal record: %w", err)
	}
	line = append(line, '\n')
	if _, err := s.w.Write(line); err != nil {
		return false, fmt.Errorf("write record: %w", err)
	}
	s.seen[key] = struct{}{}
	return true, nil
}

func (s *JSONLStore) Ping(context.Context) error {
	return nil
}

func (s *JSONLStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
