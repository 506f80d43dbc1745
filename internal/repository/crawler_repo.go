package repository

import (
	"context"
	"errors"

	"github.com/user/annuaire-crawler/internal/entity"
)

var (
	ErrNavigationFailed = errors.New("navigation failed")
	ErrExtractionFailed = errors.New("extraction failed")
	ErrCrawlTimeout     = errors.New("crawl timed out")
)

// Browser drives the rendering engine. One Browser is shared by every target of a run.
type Browser interface {
	// OpenListing navigates a fresh page to a listing URL and waits for it to render.
	OpenListing(ctx context.Context, url string) (ListingPage, error)
	// FetchDetail renders a detail page in an isolated context that is closed before returning.
	FetchDetail(ctx context.Context, url string) (*entity.DetailPage, error)
	Close() error
}

// ListingPage is one open, paginated listing.
type ListingPage interface {
	// Links returns the absolute URLs of every rendered result link, in page order.
	Links(ctx context.Context) ([]string, error)
	// LoadMore activates the pagination control and waits until more than rendered links exist.
	// It returns false when the control is missing, hidden, or the wait expires.
	LoadMore(ctx context.Context, rendered int) (bool, error)
	Close() error
}
