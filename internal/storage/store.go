// Package storage owns the on-disk video directory. There is no in-memory
// index: every listing is a fresh scan, so the directory can never drift
// from what the server reports.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/ekaraca/watchtogether/internal/domain"
)

var (
	ErrNotFound    = errors.New("asset not found")
	ErrInvalidName = errors.New("invalid asset name")
)

type Store struct {
	dir string
}

// New ensures dir exists and returns a store rooted at it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create video dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// List scans the directory and returns a record per regular file.
func (s *Store) List() ([]domain.AssetRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read video dir: %w", err)
	}
	out := make([]domain.AssetRecord, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, domain.AssetRecord{
			Filename:  e.Name(),
			SizeBytes: info.Size(),
			CreatedAt: info.ModTime(),
		})
	}
	return out, nil
}

// Filenames returns just the stored names, for roster-style pushes.
func (s *Store) Filenames() ([]string, error) {
	records, err := s.List()
	if err != nil {
		return nil, err
	}
	return lo.Map(records, func(r domain.AssetRecord, _ int) string {
		return r.Filename
	}), nil
}

// TotalSize sums the stored bytes, the input to quota admission.
func (s *Store) TotalSize() (int64, error) {
	records, err := s.List()
	if err != nil {
		return 0, err
	}
	return lo.SumBy(records, func(r domain.AssetRecord) int64 {
		return r.SizeBytes
	}), nil
}

// Path resolves name inside the store, rejecting traversal attempts.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, name), nil
}

// Create opens the write target for an admitted upload.
func (s *Store) Create(name string) (*os.File, error) {
	p, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	return os.Create(p)
}

// Delete removes a stored asset. Missing files map to ErrNotFound.
func (s *Store) Delete(name string) error {
	p, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// UniqueName prefixes the sanitized original with a millisecond timestamp.
// Uploads are single-flight, so the timestamp alone keeps names unique.
func (s *Store) UniqueName(original string, now time.Time) string {
	base := filepath.Base(original)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, base)
	if base == "" || base == "." {
		base = "video"
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), base)
}
