package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/user/annuaire-crawler/internal/entity"
	"github.com/user/annuaire-crawler/internal/repository"
	"github.com/user/annuaire-crawler/pkg/metrics"
)

var (
	ErrTargetExists          = errors.New("target is already queued or being crawled")
	ErrTargetRecentlyCrawled = errors.New("target has been crawled recently and force is false")
)

const recrawlAfter = 48 * time.Hour

// TargetResolver turns a submitted listing URL into a crawl target.
type TargetResolver interface {
	Resolve(rawURL string) (entity.Target, error)
}

// TargetManager accepts listing targets for the background worker and reports on them.
type TargetManager interface {
	Submit(ctx context.Context, url string, force bool) (*entity.CrawlStatus, error)
	GetStatus(ctx context.Context, url string) (*entity.CrawlStatus, error)
	ListFailures(ctx context.Context, limit int) ([]*entity.FailedURL, error)
}

type targetManagerUseCase struct {
	resolver TargetResolver
	queue    repository.QueueRepository
	statuses repository.StatusRepository
	failures repository.FailedURLRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewTargetManager creates a TargetManager.
func NewTargetManager(
	resolver TargetResolver,
	queue repository.QueueRepository,
	statuses repository.StatusRepository,
	failures repository.FailedURLRepository,
	logger *zap.Logger,
) TargetManager {
	metrics.Init()
	return &targetManagerUseCase{
		resolver: resolver,
		queue:    queue,
		statuses: statuses,
		failures: failures,
		logger:   logger,
		now:      time.Now,
	}
}

func (uc *targetManagerUseCase) Submit(ctx context.Context, url string, force bool) (*entity.CrawlStatus, error) {
	target, err := uc.resolver.Resolve(url)
	if err != nil {
		return nil, err
	}

	current, err := uc.statuses.FindByURL(ctx, target.URL)
	switch {
	case errors.Is(err, repository.ErrStatusNotFound):
	case err != nil:
		return nil, err
	case force:
		// A status left queued or crawling by a process that died is only cleared by force.
		if current.CurrentStatus == entity.StatusQueued || current.CurrentStatus == entity.StatusCrawling {
			uc.logger.Warn("forcing target over active status", zap.String("url", target.URL), zap.String("status", current.CurrentStatus))
		}
	case current.CurrentStatus == entity.StatusQueued || current.CurrentStatus == entity.StatusCrawling:
		return current, ErrTargetExists
	case current.CurrentStatus == entity.StatusCompleted &&
		current.LastCrawlTimestamp != nil && uc.now().Sub(*current.LastCrawlTimestamp) < recrawlAfter:
		return current, ErrTargetRecentlyCrawled
	}

	if err := uc.queue.Push(ctx, target.URL); err != nil {
		return nil, err
	}

	submitted := uc.now()
	status := &entity.CrawlStatus{
		URL:           target.URL,
		CurrentStatus: entity.StatusQueued,
		SubmittedAt:   &submitted,
	}
	if err := uc.statuses.Save(ctx, status); err != nil {
		// The target is queued and will still run; only its status is stale.
		uc.logger.Error("failed to save queued status", zap.String("url", target.URL), zap.Error(err))
	}
	uc.refreshQueueGauge(ctx)

	uc.logger.Info("target queued", zap.String("url", target.URL), zap.String("output", target.OutputFile), zap.Bool("force", force))
	return status, nil
}

func (uc *targetManagerUseCase) GetStatus(ctx context.Context, url string) (*entity.CrawlStatus, error) {
	if target, err := uc.resolver.Resolve(url); err == nil {
		url = target.URL
	}
	status, err := uc.statuses.FindByURL(ctx, url)
	if errors.Is(err, repository.ErrStatusNotFound) {
		return &entity.CrawlStatus{URL: url, CurrentStatus: entity.StatusNotFound}, nil
	}
	return status, err
}

func (uc *targetManagerUseCase) ListFailures(ctx context.Context, limit int) ([]*entity.FailedURL, error) {
	if limit <= 0 {
		limit = 50
	}
	return uc.failures.ListRecent(ctx, limit)
}

func (uc *targetManagerUseCase) refreshQueueGauge(ctx context.Context) {
	if n, err := uc.queue.Size(ctx); err == nil {
		metrics.TargetsInQueue.Set(float64(n))
	}
}
