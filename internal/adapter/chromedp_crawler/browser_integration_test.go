//go:build integration

package chromedp_crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/annuaire-crawler/internal/extractor"
)

// listingHTML renders 20 links and appends the remaining ones on click, like the directory does.
func listingHTML(total int) string {
	var links strings.Builder
	for i := 0; i < total; i++ {
		fmt.Fprintf(&links, `'<a data-test="href-link-annuaire" href="/detail/%d">Mairie %d</a>',`, i, i)
	}
	return `<html><body>
<div id="results-list"></div>
<button id="btn-add-next20">Plus de résultats</button>
<script>
const all = [` + links.String() + `];
let shown = 0;
function more() {
  const list = document.getElementById('results-list');
  all.slice(shown, shown + 20).forEach(h => list.insertAdjacentHTML('beforeend', h));
  shown += 20;
  if (shown >= all.length) document.getElementById('btn-add-next20').style.display = 'none';
}
document.getElementById('btn-add-next20').addEventListener('click', () => setTimeout(more, 100));
more();
</script>
</body></html>`
}

func newTestServer(total int) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/listing", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingHTML(total))
	})
	mux.HandleFunc("/detail/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><h1 id="titlePage">Mairie - %s</h1><p>%s</p></body></html>`,
			strings.TrimPrefix(r.URL.Path, "/detail/"), r.Header.Get("Accept-Language"))
	})
	return httptest.NewServer(mux)
}

func newTestBrowser(t *testing.T) *Browser {
	t.Helper()
	b, err := NewBrowser(context.Background(), Options{
		Headless:          true,
		PageLoadTimeout:   15 * time.Second,
		PaginationTimeout: 5 * time.Second,
		ClickTimeout:      5 * time.Second,
		SettleDelay:       100 * time.Millisecond,
		ListingSelector:   extractor.ListingLinkSelector,
		LoadMoreSelector:  extractor.LoadMoreSelector,
	}, NewAgent(nil), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestListingPagination(t *testing.T) {
	srv := newTestServer(25)
	defer srv.Close()
	b := newTestBrowser(t)
	ctx := context.Background()

	page, err := b.OpenListing(ctx, srv.URL+"/listing")
	require.NoError(t, err)
	defer page.Close()

	links, err := page.Links(ctx)
	require.NoError(t, err)
	require.Len(t, links, 20)
	require.True(t, strings.HasPrefix(links[0], srv.URL))

	more, err := page.LoadMore(ctx, len(links))
	require.NoError(t, err)
	require.True(t, more)

	links, err = page.Links(ctx)
	require.NoError(t, err)
	require.Len(t, links, 25)

	// The control is hidden once everything is shown.
	more, err = page.LoadMore(ctx, len(links))
	require.NoError(t, err)
	require.False(t, more)
}

func TestFetchDetail(t *testing.T) {
	srv := newTestServer(1)
	defer srv.Close()
	b := newTestBrowser(t)

	page, err := b.FetchDetail(context.Background(), srv.URL+"/detail/7")
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/detail/7", page.FinalURL)
	require.Contains(t, page.HTML, "Mairie - 7")
	require.Contains(t, page.HTML, "fr-FR")
}
