package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/annuaire-crawler/internal/catalog"
	"github.com/user/annuaire-crawler/internal/entity"
)

const lotListing = "https://lannuaire.service-public.gouv.fr/navigation/occitanie/lot/mairie"

func newTestManager(t *testing.T, q *fakeQueue, st *fakeStatuses, failures *fakeFailures) *targetManagerUseCase {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return NewTargetManager(cat, q, st, failures, zap.NewNop()).(*targetManagerUseCase)
}

func TestSubmitQueuesTarget(t *testing.T) {
	q, st := &fakeQueue{}, newFakeStatuses()
	m := newTestManager(t, q, st, &fakeFailures{})

	status, err := m.Submit(context.Background(), "/navigation/occitanie/lot/mairie", false)
	require.NoError(t, err)
	require.Equal(t, entity.StatusQueued, status.CurrentStatus)
	require.Equal(t, lotListing, status.URL)
	require.Equal(t, []string{lotListing}, q.items)

	_, err = m.Submit(context.Background(), lotListing, false)
	require.ErrorIs(t, err, ErrTargetExists)
	require.Len(t, q.items, 1)
}

func TestSubmitForceClearsStaleCrawlingStatus(t *testing.T) {
	q, st := &fakeQueue{}, newFakeStatuses()
	m := newTestManager(t, q, st, &fakeFailures{})

	require.NoError(t, st.Save(context.Background(), &entity.CrawlStatus{URL: lotListing, CurrentStatus: entity.StatusCrawling}))

	_, err := m.Submit(context.Background(), lotListing, false)
	require.ErrorIs(t, err, ErrTargetExists)
	require.Empty(t, q.items)

	status, err := m.Submit(context.Background(), lotListing, true)
	require.NoError(t, err)
	require.Equal(t, entity.StatusQueued, status.CurrentStatus)
	require.Equal(t, []string{lotListing}, q.items)

	saved, err := st.FindByURL(context.Background(), lotListing)
	require.NoError(t, err)
	require.Equal(t, entity.StatusQueued, saved.CurrentStatus)
}

func TestSubmitRecentlyCrawled(t *testing.T) {
	q, st := &fakeQueue{}, newFakeStatuses()
	m := newTestManager(t, q, st, &fakeFailures{})

	crawled := time.Now().Add(-time.Hour)
	require.NoError(t, st.Save(context.Background(), &entity.CrawlStatus{
		URL: lotListing, CurrentStatus: entity.StatusCompleted, LastCrawlTimestamp: &crawled,
	}))

	_, err := m.Submit(context.Background(), lotListing, false)
	require.ErrorIs(t, err, ErrTargetRecentlyCrawled)
	require.Empty(t, q.items)

	status, err := m.Submit(context.Background(), lotListing, true)
	require.NoError(t, err)
	require.Equal(t, entity.StatusQueued, status.CurrentStatus)
	require.Len(t, q.items, 1)
}

func TestSubmitRejectsNonListingURL(t *testing.T) {
	q := &fakeQueue{}
	m := newTestManager(t, q, newFakeStatuses(), &fakeFailures{})

	_, err := m.Submit(context.Background(), "https://lannuaire.service-public.gouv.fr/occitanie/lot/mairie-46102", false)
	require.ErrorIs(t, err, catalog.ErrUnknownKind)
	require.Empty(t, q.items)
}

func TestSubmitPushFailure(t *testing.T) {
	q, st := &fakeQueue{pushErr: errBoom}, newFakeStatuses()
	m := newTestManager(t, q, st, &fakeFailures{})

	_, err := m.Submit(context.Background(), lotListing, false)
	require.ErrorIs(t, err, errBoom)
	_, err = st.FindByURL(context.Background(), lotListing)
	require.Error(t, err)
}

func TestGetStatus(t *testing.T) {
	st := newFakeStatuses()
	m := newTestManager(t, &fakeQueue{}, st, &fakeFailures{})

	status, err := m.GetStatus(context.Background(), lotListing)
	require.NoError(t, err)
	require.Equal(t, entity.StatusNotFound, status.CurrentStatus)

	_, err = m.Submit(context.Background(), lotListing, false)
	require.NoError(t, err)
	status, err = m.GetStatus(context.Background(), "/navigation/occitanie/lot/mairie")
	require.NoError(t, err)
	require.Equal(t, entity.StatusQueued, status.CurrentStatus)
}

func TestListFailures(t *testing.T) {
	failures := &fakeFailures{saved: []*entity.FailedURL{{URL: "https://example.org/a"}}}
	m := newTestManager(t, &fakeQueue{}, newFakeStatuses(), failures)

	got, err := m.ListFailures(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
}
