package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/user/annuaire-crawler/internal/adapter/memory"
	"github.com/user/annuaire-crawler/internal/entity"
	"github.com/user/annuaire-crawler/internal/repository"
)

// fakeBrowser serves listings that reveal their links in batches and detail pages from memory.
type fakeBrowser struct {
	listings   map[string][]string
	batch      int
	detailErrs map[string]error
	openErr    error

	mu      sync.Mutex
	fetched []string
}

func newFakeBrowser(batch int) *fakeBrowser {
	return &fakeBrowser{listings: map[string][]string{}, batch: batch, detailErrs: map[string]error{}}
}

func (b *fakeBrowser) addListing(url string, n int) []string {
	links := make([]string, n)
	for i := range links {
		links[i] = fmt.Sprintf("%s/detail-%02d", url, i)
	}
	b.listings[url] = links
	return links
}

func (b *fakeBrowser) OpenListing(_ context.Context, url string) (repository.ListingPage, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	links, ok := b.listings[url]
	if !ok {
		return nil, repository.ErrNavigationFailed
	}
	shown := b.batch
	if shown > len(links) {
		shown = len(links)
	}
	return &fakeListing{all: links, shown: shown, batch: b.batch}, nil
}

func (b *fakeBrowser) FetchDetail(_ context.Context, url string) (*entity.DetailPage, error) {
	b.mu.Lock()
	b.fetched = append(b.fetched, url)
	b.mu.Unlock()
	if err := b.detailErrs[url]; err != nil {
		return nil, err
	}
	return &entity.DetailPage{URL: url, FinalURL: url, HTML: "<h1 id=\"titlePage\">Mairie - " + url + "</h1>"}, nil
}

func (b *fakeBrowser) Close() error { return nil }

type fakeListing struct {
	all    []string
	shown  int
	batch  int
	closed bool
}

func (l *fakeListing) Links(context.Context) ([]string, error) {
	return append([]string(nil), l.all[:l.shown]...), nil
}

func (l *fakeListing) LoadMore(_ context.Context, rendered int) (bool, error) {
	if l.shown >= len(l.all) {
		return false, nil
	}
	l.shown += l.batch
	if l.shown > len(l.all) {
		l.shown = len(l.all)
	}
	return l.shown > rendered, nil
}

func (l *fakeListing) Close() error {
	l.closed = true
	return nil
}

// memorySink collects records per target.
type memorySink struct {
	mu        sync.Mutex
	records   []*entity.RawRecord
	closed    bool
	appendErr error
}

func (s *memorySink) Append(_ context.Context, r *entity.RawRecord) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *memorySink) Close() error {
	s.closed = true
	return nil
}

type sinkRegistry struct {
	sinks   map[string]*memorySink
	openErr map[string]error
}

func newSinkRegistry() *sinkRegistry {
	return &sinkRegistry{sinks: map[string]*memorySink{}, openErr: map[string]error{}}
}

func (r *sinkRegistry) open(t entity.Target) (repository.RecordSink, error) {
	if err := r.openErr[t.URL]; err != nil {
		return nil, err
	}
	s := &memorySink{}
	r.sinks[t.URL] = s
	return s, nil
}

func newMemoryVisited(entity.Target) repository.VisitedRepository {
	return memory.NewVisitedRepo()
}

type fakeFailures struct {
	saved   []*entity.FailedURL
	deleted []string
}

func (f *fakeFailures) SaveOrUpdate(_ context.Context, fu *entity.FailedURL) error {
	f.saved = append(f.saved, fu)
	return nil
}

func (f *fakeFailures) ListRecent(context.Context, int) ([]*entity.FailedURL, error) {
	return f.saved, nil
}

func (f *fakeFailures) Delete(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

var errBoom = errors.New("boom")

type fakeQueue struct {
	items   []string
	pushErr error
}

func (q *fakeQueue) Push(_ context.Context, url string) error {
	if q.pushErr != nil {
		return q.pushErr
	}
	q.items = append(q.items, url)
	return nil
}

func (q *fakeQueue) Pop(context.Context) (string, error) {
	if len(q.items) == 0 {
		return "", repository.ErrQueueEmpty
	}
	url := q.items[0]
	q.items = q.items[1:]
	return url, nil
}

func (q *fakeQueue) Size(context.Context) (int64, error) {
	return int64(len(q.items)), nil
}

type fakeStatuses struct {
	mu      sync.Mutex
	byURL   map[string]entity.CrawlStatus
	history []string
}

func newFakeStatuses() *fakeStatuses {
	return &fakeStatuses{byURL: map[string]entity.CrawlStatus{}}
}

func (s *fakeStatuses) Save(_ context.Context, st *entity.CrawlStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byURL[st.URL] = *st
	s.history = append(s.history, st.CurrentStatus)
	return nil
}

func (s *fakeStatuses) FindByURL(_ context.Context, url string) (*entity.CrawlStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.byURL[url]
	if !ok {
		return nil, repository.ErrStatusNotFound
	}
	return &st, nil
}

// fakeRunner returns canned results per target URL.
type fakeRunner struct {
	results map[string]*entity.CrawlResult
	errs    map[string]error
	ran     []entity.Target
}

func (r *fakeRunner) Run(_ context.Context, t entity.Target) (*entity.CrawlResult, error) {
	r.ran = append(r.ran, t)
	if err := r.errs[t.URL]; err != nil {
		return r.results[t.URL], err
	}
	if res, ok := r.results[t.URL]; ok {
		return res, nil
	}
	return &entity.CrawlResult{TargetURL: t.URL}, nil
}
