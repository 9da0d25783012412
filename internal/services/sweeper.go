package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventhub/internal/domain"
)

// BlobSweeper deletes blobs that no images join row references. Blobs younger than
// Grace are skipped: they may belong to a transaction that has not committed yet.
type BlobSweeper struct {
	Images domain.ImageRepository
	Blobs  domain.BlobStore
	Grace  time.Duration
	Logger *slog.Logger
	Now    func() time.Time
}

// Sweep runs one pass and returns how many blobs were deleted.
func (s *BlobSweeper) Sweep(ctx context.Context) (int, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	cutoff := now().Add(-s.Grace)

	// Blobs are listed before references so a reference committed in between is still seen.
	blobs, err := s.Blobs.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list blobs: %w", err)
	}
	refs, err := s.Images.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list image refs: %w", err)
	}
	referenced := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		referenced[r] = struct{}{}
	}

	deleted := 0
	for _, b := range blobs {
		if b.CreatedAt.After(cutoff) {
			continue
		}
		if _, ok := referenced[b.UUID]; ok {
			continue
		}
		if err := s.Blobs.Delete(ctx, b.UUID); err != nil {
			s.Logger.WarnContext(ctx, "sweeper failed to delete blob", "uuid", b.UUID, "err", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}

// Run sweeps every interval until ctx is done.
func (s *BlobSweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				s.Logger.ErrorContext(ctx, "blob sweep failed", "err", err)
				continue
			}
			if n > 0 {
				s.Logger.InfoContext(ctx, "blob sweep", "deleted", n)
			}
		}
	}
}
