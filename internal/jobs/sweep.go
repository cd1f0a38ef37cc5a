// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/multierr"

	"postflow/internal/storage"
)

// sweepTimeout bounds one sweep run.
const sweepTimeout = 5 * time.Minute

// Bucket is the blob store surface the sweep needs.
type Bucket interface {
	PublicBucket() string
	List(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error)
	Delete(ctx context.Context, bucket, key string) error
	OwnedKey(stored string) (string, bool)
}

// CoverIndex lists every stored cover value.
type CoverIndex interface {
	CoverReferences(ctx context.Context) ([]string, error)
}

// OrphanSweep removes public bucket objects no post references. It covers
// the window where a cover was uploaded but the row write never happened.
// Objects younger than the grace period are kept, since their row write
// may still be in flight.
type OrphanSweep struct {
	bucket Bucket
	covers CoverIndex
	grace  time.Duration
	now    func() time.Time
}

// NewOrphanSweep creates the sweep job.
func NewOrphanSweep(b Bucket, c CoverIndex, grace time.Duration) *OrphanSweep {
	return &OrphanSweep{bucket: b, covers: c, grace: grace, now: time.Now}
}

// Name identifies the job in logs.
func (s *OrphanSweep) Name() string { return "orphan-sweep" }

// Run implements cron.Job.
func (s *OrphanSweep) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	removed, err := s.Sweep(ctx)
	if err != nil {
		slog.Error("orphan sweep failed", "removed", removed, "error", err)
		return
	}
	slog.Info("orphan sweep done", "removed", removed)
}

// Sweep deletes unreferenced objects older than the grace period and
// reports how many it removed. References are read before the listing,
// so a cover committed in between is at worst younger than the grace.
func (s *OrphanSweep) Sweep(ctx context.Context) (int, error) {
	refs, err := s.covers.CoverReferences(ctx)
	if err != nil {
		return 0, fmt.Errorf("load cover references: %w", err)
	}
	keep := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if key, ok := s.bucket.OwnedKey(ref); ok {
			keep[key] = struct{}{}
		}
	}

	bucket := s.bucket.PublicBucket()
	objects, err := s.bucket.List(ctx, bucket, "")
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", bucket, err)
	}

	cutoff := s.now().Add(-s.grace)
	var (
		removed int
		errs    error
	)
	for _, obj := range objects {
		if _, ok := keep[obj.Key]; ok {
			continue
		}
		if obj.LastModified.After(cutoff) {
			continue
		}
		if err := s.bucket.Delete(ctx, bucket, obj.Key); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		removed++
		slog.Info("orphan blob removed", "bucket", bucket, "key", obj.Key, "size", obj.Size)
	}
	return removed, errs
}
