package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/annuaire-crawler/internal/entity"
)

// RecordRepoImpl mirrors crawled records into the `collectivites` table.
type RecordRepoImpl struct {
	db *pgxpool.Pool
}

// NewRecordRepo creates a new instance of RecordRepoImpl.
func NewRecordRepo(db *pgxpool.Pool) *RecordRepoImpl {
	return &RecordRepoImpl{db: db}
}

// Save stores or updates a record keyed by its source URL.
func (r *RecordRepoImpl) Save(ctx context.Context, targetURL string, record *entity.RawRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO collectivites (url, target_url, nom, departement_code, payload, crawled_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (url) DO UPDATE SET
			target_url = EXCLUDED.target_url,
			nom = EXCLUDED.nom,
			departement_code = EXCLUDED.departement_code,
			payload = EXCLUDED.payload,
			crawled_at = EXCLUDED.crawled_at;
	`
	_, err = r.db.Exec(ctx, query, record.URL, targetURL, record.Nom, record.DepartementCode, payload)
	return err
}

// CountByTarget returns how many records a target has produced.
func (r *RecordRepoImpl) CountByTarget(ctx context.Context, targetURL string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM collectivites WHERE target_url = $1;`, targetURL).Scan(&n)
	return n, err
}

// RecordSink adapts the repository to the crawler's sink for one target.
type RecordSink struct {
	repo      *RecordRepoImpl
	targetURL string
}

// NewRecordSink binds the repository to a target.
func NewRecordSink(repo *RecordRepoImpl, targetURL string) *RecordSink {
	return &RecordSink{repo: repo, targetURL: targetURL}
}

func (s *RecordSink) Append(ctx context.Context, record *entity.RawRecord) error {
	if err := s.repo.Save(ctx, s.targetURL, record); err != nil {
		return fmt.Errorf("failed to mirror record %s: %w", record.URL, err)
	}
	return nil
}

func (s *RecordSink) Close() error { return nil }
