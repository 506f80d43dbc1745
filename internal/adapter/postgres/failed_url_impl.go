package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/annuaire-crawler/internal/entity"
)

// FailedURLRepoImpl provides a concrete implementation for the FailedURLRepository interface using PostgreSQL.
type FailedURLRepoImpl struct {
	db *pgxpool.Pool
}

// NewFailedURLRepo creates a new instance of FailedURLRepoImpl.
func NewFailedURLRepo(db *pgxpool.Pool) *FailedURLRepoImpl {
	return &FailedURLRepoImpl{db: db}
}

// SaveOrUpdate creates or updates a record for a failed URL.
// It increments attempt_count on conflict.
func (r *FailedURLRepoImpl) SaveOrUpdate(ctx context.Context, failedURL *entity.FailedURL) error {
	query := `
		INSERT INTO failed_urls (url, target_url, failure_reason, error_type, last_attempt_timestamp, attempt_count)
		VALUES ($1, $2, $3, $4, $5, 1)
		ON CONFLICT (url) DO UPDATE SET
			target_url = EXCLUDED.target_url,
			failure_reason = EXCLUDED.failure_reason,
			error_type = EXCLUDED.error_type,
			last_attempt_timestamp = EXCLUDED.last_attempt_timestamp,
			attempt_count = failed_urls.attempt_count + 1;
	`
	_, err := r.db.Exec(ctx, query,
		failedURL.URL,
		failedURL.TargetURL,
		failedURL.FailureReason,
		failedURL.ErrorType,
		failedURL.LastAttemptTimestamp,
	)
	return err
}

// ListRecent returns the latest failures, newest first.
func (r *FailedURLRepoImpl) ListRecent(ctx context.Context, limit int) ([]*entity.FailedURL, error) {
	query := `
		SELECT id, url, target_url, failure_reason, error_type, last_attempt_timestamp, attempt_count
		FROM failed_urls
		ORDER BY last_attempt_timestamp DESC
		LIMIT $1;
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failedURLs []*entity.FailedURL
	for rows.Next() {
		var fu entity.FailedURL
		if err := rows.Scan(
			&fu.ID,
			&fu.URL,
			&fu.TargetURL,
			&fu.FailureReason,
			&fu.ErrorType,
			&fu.LastAttemptTimestamp,
			&fu.AttemptCount,
		); err != nil {
			return nil, err
		}
		failedURLs = append(failedURLs, &fu)
	}

	return failedURLs, rows.Err()
}

// Delete removes a failed URL record after a later successful visit.
func (r *FailedURLRepoImpl) Delete(ctx context.Context, url string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM failed_urls WHERE url = $1;`, url)
	return err
}
