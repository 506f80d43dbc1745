package memory

import (
	"context"
	"sync"
)

// VisitedRepoImpl is an in-process visited set, scoped to one crawl session.
type VisitedRepoImpl struct {
	mu   sync.RWMutex
	urls map[string]struct{}
}

// NewVisitedRepo creates an empty visited set.
func NewVisitedRepo() *VisitedRepoImpl {
	return &VisitedRepoImpl{urls: make(map[string]struct{})}
}

func (r *VisitedRepoImpl) MarkVisited(_ context.Context, url string) error {
	r.mu.Lock()
	r.urls[url] = struct{}{}
	r.mu.Unlock()
	return nil
}

func (r *VisitedRepoImpl) IsVisited(_ context.Context, url string) (bool, error) {
	r.mu.RLock()
	_, ok := r.urls[url]
	r.mu.RUnlock()
	return ok, nil
}

func (r *VisitedRepoImpl) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.urls), nil
}

func (r *VisitedRepoImpl) Reset(_ context.Context) error {
	r.mu.Lock()
	r.urls = make(map[string]struct{})
	r.mu.Unlock()
	return nil
}
