package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"revenue_backend/internal/revenue/domain"
)

const archiveTimeLayout = "20060102T150405Z"

// CycleArchive writes one JSON object per sealed cycle.
type CycleArchive struct {
	store  ObjectStore
	bucket string
}

// NewCycleArchive creates an archive sink writing to bucket.
func NewCycleArchive(store ObjectStore, bucket string) *CycleArchive {
	return &CycleArchive{store: store, bucket: bucket}
}

// Name identifies the sink in logs.
func (a *CycleArchive) Name() string { return "minio" }

// Append uploads summary. Writing the same cycle twice replaces the object.
func (a *CycleArchive) Append(ctx context.Context, summary domain.CycleSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode cycle summary: %w", err)
	}
	return a.store.PutObject(ctx, a.bucket, ArchiveKey(summary), "application/json", bytes.NewReader(data), int64(len(data)))
}

// ArchiveKey is the object key for summary. Cycle numbers restart with the
// process, so the key leads with the start time.
func ArchiveKey(summary domain.CycleSummary) string {
	return fmt.Sprintf("cycles/%s_%06d.json", summary.StartedAt.UTC().Format(archiveTimeLayout), summary.CycleNumber)
}
