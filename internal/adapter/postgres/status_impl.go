package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/annuaire-crawler/internal/entity"
	"github.com/user/annuaire-crawler/internal/repository"
)

// StatusRepoImpl stores target lifecycles in the `crawl_runs` table.
type StatusRepoImpl struct {
	db *pgxpool.Pool
}

// NewStatusRepo creates a new instance of StatusRepoImpl.
func NewStatusRepo(db *pgxpool.Pool) *StatusRepoImpl {
	return &StatusRepoImpl{db: db}
}

// Save upserts the status of a target. A nil submitted_at keeps the stored one.
func (r *StatusRepoImpl) Save(ctx context.Context, s *entity.CrawlStatus) error {
	query := `
		INSERT INTO crawl_runs (target_url, status, submitted_at, last_crawl_timestamp, emitted, failed, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (target_url) DO UPDATE SET
			status = EXCLUDED.status,
			submitted_at = COALESCE(EXCLUDED.submitted_at, crawl_runs.submitted_at),
			last_crawl_timestamp = COALESCE(EXCLUDED.last_crawl_timestamp, crawl_runs.last_crawl_timestamp),
			emitted = EXCLUDED.emitted,
			failed = EXCLUDED.failed,
			failure_reason = EXCLUDED.failure_reason;
	`
	_, err := r.db.Exec(ctx, query,
		s.URL,
		s.CurrentStatus,
		s.SubmittedAt,
		s.LastCrawlTimestamp,
		s.Emitted,
		s.Failed,
		s.FailureReason,
	)
	return err
}

// FindByURL returns repository.ErrStatusNotFound when the target was never submitted.
func (r *StatusRepoImpl) FindByURL(ctx context.Context, url string) (*entity.CrawlStatus, error) {
	query := `
		SELECT target_url, status, submitted_at, last_crawl_timestamp, emitted, failed, failure_reason
		FROM crawl_runs
		WHERE target_url = $1;
	`
	var s entity.CrawlStatus
	err := r.db.QueryRow(ctx, query, url).Scan(
		&s.URL,
		&s.CurrentStatus,
		&s.SubmittedAt,
		&s.LastCrawlTimestamp,
		&s.Emitted,
		&s.Failed,
		&s.FailureReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrStatusNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
