//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/user/annuaire-crawler/internal/entity"
	"github.com/user/annuaire-crawler/internal/repository"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	connString := os.Getenv("POSTGRES_URL")
	if connString == "" {
		t.Skip("POSTGRES_URL not set")
	}
	pool, err := Connect(context.Background(), connString)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestRecordSinkUpsertsByURL(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	target := "https://example.org/navigation/test-" + time.Now().Format("150405.000") + "/mairie"

	sink := NewRecordSink(NewRecordRepo(pool), target)
	rec := &entity.RawRecord{Nom: "Albi", DepartementCode: "81", URL: target + "/albi"}
	require.NoError(t, sink.Append(ctx, rec))
	require.NoError(t, sink.Append(ctx, rec))

	n, err := NewRecordRepo(pool).CountByTarget(ctx, target)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestStatusRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewStatusRepo(newTestPool(t))

	_, err := repo.FindByURL(ctx, "https://example.org/never-submitted")
	require.ErrorIs(t, err, repository.ErrStatusNotFound)

	now := time.Now().UTC().Truncate(time.Millisecond)
	url := "https://example.org/navigation/status-" + now.Format("150405.000") + "/epci"
	require.NoError(t, repo.Save(ctx, &entity.CrawlStatus{URL: url, CurrentStatus: entity.StatusQueued, SubmittedAt: &now}))
	require.NoError(t, repo.Save(ctx, &entity.CrawlStatus{URL: url, CurrentStatus: entity.StatusCompleted, Emitted: 3}))

	got, err := repo.FindByURL(ctx, url)
	require.NoError(t, err)
	require.Equal(t, entity.StatusCompleted, got.CurrentStatus)
	require.Equal(t, 3, got.Emitted)
	require.NotNil(t, got.SubmittedAt)
}

func TestFailedURLRepoCountsAttempts(t *testing.T) {
	ctx := context.Background()
	repo := NewFailedURLRepo(newTestPool(t))
	url := "https://example.org/broken-" + time.Now().Format("150405.000")

	for i := 0; i < 2; i++ {
		require.NoError(t, repo.SaveOrUpdate(ctx, &entity.FailedURL{
			URL: url, FailureReason: "timeout", ErrorType: "timeout", LastAttemptTimestamp: time.Now(),
		}))
	}

	recent, err := repo.ListRecent(ctx, 50)
	require.NoError(t, err)
	var found *entity.FailedURL
	for _, f := range recent {
		if f.URL == url {
			found = f
		}
	}
	require.NotNil(t, found)
	require.Equal(t, 2, found.AttemptCount)
	require.NoError(t, repo.Delete(ctx, url))
}
