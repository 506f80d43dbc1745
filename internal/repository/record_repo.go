package repository

import (
	"context"

	"github.com/user/annuaire-crawler/internal/entity"
)

// RecordSink receives each extracted record as soon as it exists.
type RecordSink interface {
	Append(ctx context.Context, record *entity.RawRecord) error
	Close() error
}

// RecordRepository mirrors crawled records into a queryable store.
type RecordRepository interface {
	// Save upserts a record keyed by its source URL.
	Save(ctx context.Context, targetURL string, record *entity.RawRecord) error
	// CountByTarget returns how many records a target has produced.
	CountByTarget(ctx context.Context, targetURL string) (int, error)
}
