package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/user/annuaire-crawler/internal/entity"
	"github.com/user/annuaire-crawler/internal/extractor"
	"github.com/user/annuaire-crawler/internal/repository"
	"github.com/user/annuaire-crawler/pkg/metrics"
)

// ErrEmptyListing is returned when a listing renders no result on first load.
var ErrEmptyListing = errors.New("listing rendered no links")

// ExtractFunc turns a rendered detail page into a record.
type ExtractFunc func(kind entity.Kind, page *entity.DetailPage) (*entity.RawRecord, error)

// CrawlerConfig wires a Crawler. Failures and Extract are optional.
type CrawlerConfig struct {
	Browser    repository.Browser
	OpenSink   SinkFactory
	NewVisited VisitedFactory
	Failures   repository.FailedURLRepository
	Extract    ExtractFunc
	VisitDelay time.Duration
	Logger     *zap.Logger
}

// Crawler runs listing targets one after another on a shared browser.
type Crawler struct {
	browser    repository.Browser
	openSink   SinkFactory
	newVisited VisitedFactory
	failures   repository.FailedURLRepository
	extract    ExtractFunc
	visitDelay time.Duration
	logger     *zap.Logger
}

// NewCrawler creates a crawler.
func NewCrawler(cfg CrawlerConfig) *Crawler {
	metrics.Init()
	if cfg.Extract == nil {
		cfg.Extract = extractor.Extract
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Crawler{
		browser:    cfg.Browser,
		openSink:   cfg.OpenSink,
		newVisited: cfg.NewVisited,
		failures:   cfg.Failures,
		extract:    cfg.Extract,
		visitDelay: cfg.VisitDelay,
		logger:     cfg.Logger,
	}
}

// TargetReport is the outcome of one target in a multi-target run.
type TargetReport struct {
	Target entity.Target
	Result *entity.CrawlResult
	Err    error
}

// RunAll crawls targets sequentially. A failing target is reported and the next one starts.
func (c *Crawler) RunAll(ctx context.Context, targets []entity.Target) []TargetReport {
	reports := make([]TargetReport, 0, len(targets))
	for _, t := range targets {
		if ctx.Err() != nil {
			break
		}
		res, err := c.Run(ctx, t)
		if err != nil {
			c.logger.Error("target failed", zap.String("target", t.URL), zap.Error(err))
		}
		reports = append(reports, TargetReport{Target: t, Result: res, Err: err})
	}
	return reports
}

// Run crawls one listing: collect rendered links, visit the unvisited ones, load more, repeat.
// The returned result is non-nil whenever the session could be opened, even on error.
func (c *Crawler) Run(ctx context.Context, target entity.Target) (*entity.CrawlResult, error) {
	log := c.logger.With(zap.String("target", target.URL), zap.String("output", target.OutputFile))

	session, err := newSession(ctx, target, c.openSink, c.newVisited)
	if err != nil {
		metrics.TargetsCompleted.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("failed to close sink", zap.Error(err))
		}
	}()

	session.result.StartedAt = time.Now()
	err = c.crawl(ctx, session, log)
	session.result.FinishedAt = time.Now()
	res := session.result

	if err != nil {
		metrics.TargetsCompleted.WithLabelValues("failure").Inc()
		return &res, err
	}
	metrics.TargetsCompleted.WithLabelValues("success").Inc()
	log.Info("target done",
		zap.Int("discovered", res.Discovered),
		zap.Int("visited", res.Visited),
		zap.Int("emitted", res.Emitted),
		zap.Int("failed", res.Failed),
		zap.Int("pages", res.Pages),
		zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)),
	)
	return &res, nil
}

func (c *Crawler) crawl(ctx context.Context, s *Session, log *zap.Logger) error {
	listing, err := c.browser.OpenListing(ctx, s.Target.URL)
	if err != nil {
		return fmt.Errorf("load listing: %w", err)
	}
	defer listing.Close()
	s.result.Pages = 1

	for first := true; ; first = false {
		links, err := listing.Links(ctx)
		if err != nil {
			if first {
				return fmt.Errorf("read listing: %w", err)
			}
			log.Warn("failed to read listing, stopping", zap.Error(err))
			return nil
		}
		if first && len(links) == 0 {
			return ErrEmptyListing
		}

		fresh, err := s.discover(ctx, links)
		if err != nil {
			return err
		}
		if len(fresh) == 0 {
			log.Info("no new links, listing exhausted", zap.Int("rendered", len(links)))
			return nil
		}

		for _, link := range fresh {
			if err := ctx.Err(); err != nil {
				return err
			}
			if s.limitReached() {
				log.Info("record limit reached", zap.Int("limit", s.Target.Limit))
				return nil
			}
			c.visit(ctx, s, link, log)
			if err := sleep(ctx, c.visitDelay); err != nil {
				return err
			}
		}
		if s.limitReached() {
			log.Info("record limit reached", zap.Int("limit", s.Target.Limit))
			return nil
		}

		more, err := listing.LoadMore(ctx, len(links))
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			metrics.PaginationSteps.WithLabelValues("error").Inc()
			log.Warn("pagination failed, stopping", zap.Error(err))
			return nil
		case !more:
			metrics.PaginationSteps.WithLabelValues("exhausted").Inc()
			log.Info("no more pages", zap.Int("rendered", len(links)))
			return nil
		}
		metrics.PaginationSteps.WithLabelValues("loaded").Inc()
		s.result.Pages++
	}
}

// visit processes one detail page. Failures are logged and counted, never returned.
func (c *Crawler) visit(ctx context.Context, s *Session, url string, log *zap.Logger) {
	start := time.Now()
	defer func() { metrics.VisitDuration.Observe(time.Since(start).Seconds()) }()

	// Marked before processing so a failing page is never taken twice.
	if err := s.visited.MarkVisited(ctx, url); err != nil {
		c.recordFailure(ctx, s, url, fmt.Errorf("mark visited: %w", err), log)
		return
	}
	s.result.Visited++

	page, err := c.browser.FetchDetail(ctx, url)
	if err != nil {
		c.recordFailure(ctx, s, url, err, log)
		return
	}
	rec, err := c.extract(s.Target.Kind, page)
	if err != nil {
		c.recordFailure(ctx, s, url, err, log)
		return
	}
	if err := s.sink.Append(ctx, rec); err != nil {
		c.recordFailure(ctx, s, url, fmt.Errorf("append record: %w", err), log)
		return
	}

	s.result.Emitted++
	metrics.RecordsWritten.WithLabelValues(string(s.Target.Kind)).Inc()
	log.Info("record written", zap.String("url", url), zap.String("nom", rec.Nom), zap.Int("count", s.result.Emitted))

	if c.failures != nil {
		if err := c.failures.Delete(ctx, url); err != nil {
			log.Warn("failed to clear previous failure", zap.String("url", url), zap.Error(err))
		}
	}
}

func (c *Crawler) recordFailure(ctx context.Context, s *Session, url string, visitErr error, log *zap.Logger) {
	s.result.Failed++
	errorType := ErrorType(visitErr)
	metrics.VisitFailures.WithLabelValues(errorType).Inc()
	log.Error("visit failed", zap.String("url", url), zap.String("error_type", errorType), zap.Error(visitErr))

	if c.failures == nil {
		return
	}
	err := c.failures.SaveOrUpdate(ctx, &entity.FailedURL{
		URL:                  url,
		TargetURL:            s.Target.URL,
		FailureReason:        visitErr.Error(),
		ErrorType:            errorType,
		LastAttemptTimestamp: time.Now(),
	})
	if err != nil {
		log.Warn("failed to save failed URL", zap.String("url", url), zap.Error(err))
	}
}

// ErrorType labels an error for metrics and the failure log.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, repository.ErrCrawlTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, repository.ErrNavigationFailed):
		return "navigation"
	case errors.Is(err, repository.ErrExtractionFailed):
		return "extraction"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "unknown"
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
