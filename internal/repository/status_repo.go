package repository

import (
	"context"
	"errors"

	"github.com/user/annuaire-crawler/internal/entity"
)

var ErrStatusNotFound = errors.New("crawl status not found")

// StatusRepository persists the lifecycle of targets submitted in service mode.
type StatusRepository interface {
	Save(ctx context.Context, status *entity.CrawlStatus) error
	// FindByURL returns ErrStatusNotFound for unknown targets.
	FindByURL(ctx context.Context, url string) (*entity.CrawlStatus, error)
}
