package app

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ekaraca/watchtogether/internal/domain"
)

// ProgressSample is one throttled upload-progress broadcast payload.
type ProgressSample struct {
	Percent   int `json:"percent"`
	SpeedKBps int `json:"speedKBps"`
}

// UploadController is the single-flight admission gate for inbound asset
// transfers. It holds at most one UploadJob; concurrent attempts are
// rejected, never queued. Owned by the dispatch loop.
type UploadController struct {
	maxTotalBytes int64
	maxFileBytes  int64
	throttle      time.Duration

	job          *domain.UploadJob
	lastSentAt   time.Time
	lastBytes    int64
	lastSampleAt time.Time
}

func NewUploadController(maxTotalBytes, maxFileBytes int64, throttle time.Duration) *UploadController {
	return &UploadController{
		maxTotalBytes: maxTotalBytes,
		maxFileBytes:  maxFileBytes,
		throttle:      throttle,
	}
}

// Admit decides whether a transfer may start. existingTotal is the byte
// sum of assets already on disk, scanned by the caller off the dispatch
// loop. Every rejection leaves the controller untouched.
func (u *UploadController) Admit(expected, existingTotal int64, target string, now time.Time) (*domain.UploadJob, error) {
	if u.job != nil {
		return nil, ErrUploadConflict
	}
	if u.maxFileBytes > 0 && expected > u.maxFileBytes {
		return nil, ErrFileTooLarge
	}
	if existingTotal+expected > u.maxTotalBytes {
		return nil, ErrQuotaExceeded
	}
	u.job = &domain.UploadJob{
		BytesExpected:   expected,
		StartedAt:       now,
		TargetAssetName: target,
	}
	u.lastSentAt = time.Time{}
	u.lastBytes = 0
	u.lastSampleAt = now
	log.Info().Str("module", "app.upload").Str("target", target).Int64("expected", expected).Msg("upload admitted")
	return u.job, nil
}

// Progress records the running byte count and derives instantaneous speed
// from the delta against the previous sample. The sample is always taken;
// the returned flag gates the broadcast to one per throttle window.
func (u *UploadController) Progress(transferred int64, now time.Time) (ProgressSample, bool) {
	if u.job == nil {
		return ProgressSample{}, false
	}
	u.job.BytesTransferred = transferred

	sample := ProgressSample{Percent: u.job.Percent()}
	if elapsed := now.Sub(u.lastSampleAt).Seconds(); elapsed > 0 {
		bps := float64(transferred-u.lastBytes) / elapsed
		sample.SpeedKBps = int(math.Round(bps / 1024))
		u.lastBytes = transferred
		u.lastSampleAt = now
	}

	if !u.lastSentAt.IsZero() && now.Sub(u.lastSentAt) < u.throttle {
		return sample, false
	}
	u.lastSentAt = now
	return sample, true
}

// Finish releases the slot unconditionally; success and failure paths both
// end here so a stuck "uploading" state is impossible.
func (u *UploadController) Finish() {
	if u.job != nil {
		log.Info().Str("module", "app.upload").Str("target", u.job.TargetAssetName).Int64("bytes", u.job.BytesTransferred).Msg("upload finished")
	}
	u.job = nil
}

// Active reports whether a transfer is in flight.
func (u *UploadController) Active() bool { return u.job != nil }

// ActiveTarget names the file currently being written, for the sweeper.
func (u *UploadController) ActiveTarget() (string, bool) {
	if u.job == nil {
		return "", false
	}
	return u.job.TargetAssetName, true
}
