package domain

import "time"

// AssetRecord describes one stored video file. Records are derived from a
// directory scan on demand; the disk is the source of truth.
type AssetRecord struct {
	Filename  string    `json:"filename"`
	SizeBytes int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
}

// UploadJob is the single-flight admission token for an inbound transfer.
// At most one exists at a time; it is not a queue slot.
type UploadJob struct {
	BytesExpected    int64
	BytesTransferred int64
	StartedAt        time.Time
	TargetAssetName  string
}

// Percent reports transfer completion in whole percent, clamped to [0,100].
func (j *UploadJob) Percent() int {
	if j.BytesExpected <= 0 {
		return 0
	}
	p := int(j.BytesTransferred * 100 / j.BytesExpected)
	if p > 100 {
		p = 100
	}
	return p
}
