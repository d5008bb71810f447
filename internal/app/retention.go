package app

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ekaraca/watchtogether/internal/domain"
)

// AssetStore is the slice of the storage layer the sweeper needs.
type AssetStore interface {
	List() ([]domain.AssetRecord, error)
	Delete(name string) error
}

// Sweeper evicts assets older than maxAge. It runs off the dispatch loop
// (pure disk work) and is handed the active upload target as a snapshot so
// it never removes the file currently being written.
type Sweeper struct {
	store  AssetStore
	maxAge time.Duration
}

func NewSweeper(store AssetStore, maxAge time.Duration) *Sweeper {
	return &Sweeper{store: store, maxAge: maxAge}
}

// Sweep deletes expired assets and returns the removed filenames. A delete
// failure is logged and skipped; it never aborts the rest of the sweep.
func (s *Sweeper) Sweep(now time.Time, activeTarget string) []string {
	records, err := s.store.List()
	if err != nil {
		log.Error().Err(err).Str("module", "app.retention").Msg("sweep: list assets")
		return nil
	}

	var removed []string
	for _, rec := range records {
		if rec.Filename == activeTarget {
			continue
		}
		if now.Sub(rec.CreatedAt) <= s.maxAge {
			continue
		}
		if err := s.store.Delete(rec.Filename); err != nil {
			log.Error().Err(err).Str("module", "app.retention").Str("filename", rec.Filename).Msg("sweep: delete failed")
			continue
		}
		log.Info().Str("module", "app.retention").Str("filename", rec.Filename).Msg("expired asset removed")
		removed = append(removed, rec.Filename)
	}
	return removed
}
