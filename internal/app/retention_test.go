package app

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ekaraca/watchtogether/internal/domain"
)

type fakeAssetStore struct {
	records []domain.AssetRecord
	deleted []string
	failOn  string
}

func (f *fakeAssetStore) List() ([]domain.AssetRecord, error) {
	return f.records, nil
}

func (f *fakeAssetStore) Delete(name string) error {
	if name == f.failOn {
		return errors.New("permission denied")
	}
	f.deleted = append(f.deleted, name)
	return nil
}

func TestSweepDeletesOnlyExpiredAssets(t *testing.T) {
	req := require.New(t)
	now := time.Now()
	store := &fakeAssetStore{records: []domain.AssetRecord{
		{Filename: "old.mp4", CreatedAt: now.Add(-48 * time.Hour)},
		{Filename: "fresh.mp4", CreatedAt: now.Add(-time.Hour)},
	}}
	s := NewSweeper(store, 24*time.Hour)

	removed := s.Sweep(now, "")
	req.Equal([]string{"old.mp4"}, removed)
	req.Equal([]string{"old.mp4"}, store.deleted)
}

func TestSweepSkipsActiveUploadTarget(t *testing.T) {
	req := require.New(t)
	now := time.Now()
	store := &fakeAssetStore{records: []domain.AssetRecord{
		{Filename: "writing.mp4", CreatedAt: now.Add(-48 * time.Hour)},
		{Filename: "old.mp4", CreatedAt: now.Add(-48 * time.Hour)},
	}}
	s := NewSweeper(store, 24*time.Hour)

	removed := s.Sweep(now, "writing.mp4")
	req.Equal([]string{"old.mp4"}, removed)
}

func TestSweepIsolatesPerItemFailures(t *testing.T) {
	req := require.New(t)
	now := time.Now()
	store := &fakeAssetStore{
		records: []domain.AssetRecord{
			{Filename: "bad.mp4", CreatedAt: now.Add(-48 * time.Hour)},
			{Filename: "old.mp4", CreatedAt: now.Add(-48 * time.Hour)},
		},
		failOn: "bad.mp4",
	}
	s := NewSweeper(store, 24*time.Hour)

	// The failing delete does not abort the rest of the sweep.
	removed := s.Sweep(now, "")
	req.Equal([]string{"old.mp4"}, removed)
}
