package repository

import (
	"context"

	"github.com/user/annuaire-crawler/internal/entity"
)

// FailedURLRepository records detail pages that produced no record.
type FailedURLRepository interface {
	// SaveOrUpdate creates or updates a record for a failed URL.
	SaveOrUpdate(ctx context.Context, failedURL *entity.FailedURL) error
	// ListRecent returns the most recent failures, newest first.
	ListRecent(ctx context.Context, limit int) ([]*entity.FailedURL, error)
	// Delete removes a failed URL record after a later successful visit.
	Delete(ctx context.Context, url string) error
}
