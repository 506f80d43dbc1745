package repository

import "context"

// VisitedRepository is the set of detail URLs already taken for processing in one crawl.
type VisitedRepository interface {
	MarkVisited(ctx context.Context, url string) error
	IsVisited(ctx context.Context, url string) (bool, error)
	Count(ctx context.Context) (int, error)
	// Reset empties the set.
	Reset(ctx context.Context) error
}
