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

// TargetRunner crawls one target to completion.
type TargetRunner interface {
	Run(ctx context.Context, target entity.Target) (*entity.CrawlResult, error)
}

// Worker drains the target queue one target at a time.
type Worker struct {
	queue        repository.QueueRepository
	statuses     repository.StatusRepository
	resolver     TargetResolver
	runner       TargetRunner
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewWorker creates a Worker.
func NewWorker(
	queue repository.QueueRepository,
	statuses repository.StatusRepository,
	resolver TargetResolver,
	runner TargetRunner,
	pollInterval time.Duration,
	logger *zap.Logger,
) *Worker {
	metrics.Init()
	return &Worker{
		queue:        queue,
		statuses:     statuses,
		resolver:     resolver,
		runner:       runner,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Run processes targets until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started", zap.Duration("poll_interval", w.pollInterval))
	for {
		err := w.ProcessNext(ctx)
		switch {
		case ctx.Err() != nil:
			w.logger.Info("worker stopped")
			return nil
		case errors.Is(err, repository.ErrQueueEmpty):
			if err := sleep(ctx, w.pollInterval); err != nil {
				w.logger.Info("worker stopped")
				return nil
			}
		case err != nil:
			w.logger.Error("worker iteration failed", zap.Error(err))
			if err := sleep(ctx, w.pollInterval); err != nil {
				return nil
			}
		}
	}
}

// ProcessNext pops one target and crawls it. It returns ErrQueueEmpty when nothing is waiting.
// Crawl failures are recorded in the target's status, not returned.
func (w *Worker) ProcessNext(ctx context.Context) error {
	url, err := w.queue.Pop(ctx)
	if err != nil {
		return err
	}
	if n, err := w.queue.Size(ctx); err == nil {
		metrics.TargetsInQueue.Set(float64(n))
	}

	status := &entity.CrawlStatus{URL: url}
	if prev, err := w.statuses.FindByURL(ctx, url); err == nil {
		status = prev
	}

	target, err := w.resolver.Resolve(url)
	if err != nil {
		w.finish(ctx, status, nil, err)
		return nil
	}

	status.CurrentStatus = entity.StatusCrawling
	status.FailureReason = ""
	w.save(ctx, status)

	res, err := w.runner.Run(ctx, target)
	w.finish(ctx, status, res, err)
	return nil
}

func (w *Worker) finish(ctx context.Context, status *entity.CrawlStatus, res *entity.CrawlResult, err error) {
	now := time.Now()
	status.LastCrawlTimestamp = &now
	if res != nil {
		status.Emitted = res.Emitted
		status.Failed = res.Failed
	}
	if err != nil {
		status.CurrentStatus = entity.StatusFailed
		status.FailureReason = err.Error()
		w.logger.Error("target failed", zap.String("url", status.URL), zap.Error(err))
	} else {
		status.CurrentStatus = entity.StatusCompleted
	}
	// The status write must land even when the crawl was cut short by shutdown.
	w.save(context.WithoutCancel(ctx), status)
}

func (w *Worker) save(ctx context.Context, status *entity.CrawlStatus) {
	if err := w.statuses.Save(ctx, status); err != nil {
		w.logger.Error("failed to save crawl status", zap.String("url", status.URL), zap.Error(err))
	}
}
