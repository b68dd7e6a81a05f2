package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"oraScope/internal/model"
)

// FileCursorStore keeps one JSON checkpoint file per subscription in dir.
type FileCursorStore struct {
	dir string
}

func NewFileCursorStore(dir string) *FileCursorStore {
	return &FileCursorStore{dir: dir}
}

func (c *FileCursorStore) path(chainID uint64, subscription string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, subscription)
	return filepath.Join(c.dir, fmt.Sprintf("%d-%s.json", chainID, name))
}

func (c *FileCursorStore) LoadCursor(_ context.Context, chainID uint64, subscription string) (uint64, bool, error) {
	if subscription == "" {
		return 0, false, fmt.Errorf("subscription name required")
	}
	path := c.path(chainID, subscription)

	stat, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("stat checkpoint: %w", err)
	}
	if stat.IsDir() {
		return 0, false, fmt.Errorf("checkpoint path is a directory")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp model.Cursor
	if err := json.Unmarshal(data, &cp); err != nil {
		return 0, false, fmt.Errorf("parse checkpoint: %w", err)
	}
	return cp.LastProcessedBlock, true, nil
}

func (c *FileCursorStore) SaveCursor(_ context.Context, chainID uint64, subscription string, lastProcessed uint64) error {
	if subscription == "" {
		return fmt.Errorf("subscription name required")
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	cp := model.Cursor{
		ChainID:            chainID,
		Subscription:       subscription,
		LastProcessedBlock: lastProcessed,
		UpdatedAt:          time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	path := c.path(chainID, subscription)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}
