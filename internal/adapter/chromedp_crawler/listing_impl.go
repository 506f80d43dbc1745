package chromedp_crawler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/annuaire-crawler/internal/repository"
)

type listingPage struct {
	tabCtx context.Context
	cancel context.CancelFunc
	opts   Options
	logger *zap.Logger
}

func (p *listingPage) Links(ctx context.Context) ([]string, error) {
	runCtx, stop := bounded(p.tabCtx, ctx, p.opts.ClickTimeout)
	defer stop()

	var links []string
	expr := fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(a => a.href)`, strconv.Quote(p.opts.ListingSelector))
	if err := chromedp.Run(runCtx, chromedp.Evaluate(expr, &links)); err != nil {
		return nil, fmt.Errorf("%w: read listing links: %v", repository.ErrExtractionFailed, err)
	}
	return links, nil
}

// LoadMore clicks the pagination control and waits for the listing to grow past rendered.
// A missing or hidden control and an expired wait all end pagination without error.
func (p *listingPage) LoadMore(ctx context.Context, rendered int) (bool, error) {
	sel := strconv.Quote(p.opts.LoadMoreSelector)
	visibleExpr := fmt.Sprintf(`(() => {
		const b = document.querySelector(%s);
		if (!b || b.disabled) return false;
		const s = window.getComputedStyle(b);
		return s.display !== 'none' && s.visibility !== 'hidden' && b.getClientRects().length > 0;
	})()`, sel)

	checkCtx, stopCheck := bounded(p.tabCtx, ctx, p.opts.ClickTimeout)
	defer stopCheck()
	var visible bool
	if err := chromedp.Run(checkCtx, chromedp.Evaluate(visibleExpr, &visible)); err != nil {
		return false, fmt.Errorf("%w: inspect pagination control: %v", repository.ErrNavigationFailed, err)
	}
	if !visible {
		p.logger.Debug("pagination control missing or hidden")
		return false, nil
	}

	clickCtx, stopClick := bounded(p.tabCtx, ctx, p.opts.ClickTimeout)
	defer stopClick()
	if err := chromedp.Run(clickCtx, chromedp.Click(p.opts.LoadMoreSelector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return false, fmt.Errorf("%w: click pagination control: %v", repository.ErrNavigationFailed, err)
	}

	waitCtx, stopWait := bounded(p.tabCtx, ctx, p.opts.PaginationTimeout)
	defer stopWait()
	err := chromedp.Run(waitCtx,
		chromedp.Poll(countExpr(p.opts.ListingSelector, rendered), nil, chromedp.WithPollingTimeout(p.opts.PaginationTimeout)),
		chromedp.Sleep(p.opts.SettleDelay),
	)
	if errors.Is(err, chromedp.ErrPollingTimeout) || errors.Is(err, context.DeadlineExceeded) {
		p.logger.Debug("no new results after pagination", zap.Int("rendered", rendered))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: wait for results: %v", repository.ErrNavigationFailed, err)
	}
	return true, nil
}

func (p *listingPage) Close() error {
	p.cancel()
	return nil
}

func countExpr(selector string, n int) string {
	return fmt.Sprintf(`document.querySelectorAll(%s).length > %d`, strconv.Quote(selector), n)
}
