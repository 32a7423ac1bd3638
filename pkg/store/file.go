package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/flyersmith/pkg/errors"
)

// FileStore keeps one JSON file per record.
type FileStore struct {
	dir string
}

// NewFileStore creates a store in dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Save writes rec, replacing any earlier version.
func (s *FileStore) Save(ctx context.Context, rec *Record) error {
	p, err := s.path(rec.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Load reads the record with id.
func (s *FileStore) Load(ctx context.Context, id string) (*Record, error) {
	p, err := s.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeNotFound, "flyer %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "corrupt record %s", id)
	}
	return &rec, nil
}

// Delete removes the record with id. Deleting a missing record succeeds.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Recent returns up to limit records, newest first. Files that are not
// valid records are skipped.
func (s *FileStore) Recent(ctx context.Context, limit int64) ([]*Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var recs []*Record
	for _, e := range entries {
		id, ok := strings.CutSuffix(e.Name(), ".json")
		if !ok || e.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := s.Load(ctx, id)
		if err != nil {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
	if limit > 0 && int64(len(recs)) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// Close does nothing for file store.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) path(id string) (string, error) {
	if err := errors.ValidateFlyerID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, id+".json"), nil
}

var (
	_ Store  = (*FileStore)(nil)
	_ Lister = (*FileStore)(nil)
)
