package chromedp_crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/annuaire-crawler/internal/entity"
	"github.com/user/annuaire-crawler/internal/repository"
)

// Options tunes the browser and its waits.
type Options struct {
	Headless          bool
	ProxyServer       string
	PageLoadTimeout   time.Duration
	PaginationTimeout time.Duration
	ClickTimeout      time.Duration
	SettleDelay       time.Duration
	ListingSelector   string
	LoadMoreSelector  string
}

// Browser is one headless Chrome process shared by every target of a run.
type Browser struct {
	opts          Options
	agent         *Agent
	logger        *zap.Logger
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewBrowser starts Chrome. Close must be called to stop it.
func NewBrowser(ctx context.Context, opts Options, agent *Agent, logger *zap.Logger) (*Browser, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(agent.UserAgent()),
	)
	if opts.ProxyServer != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.ProxyServer))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Sugar().Debugf))

	// The first Run launches the process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Browser{
		opts:          opts,
		agent:         agent,
		logger:        logger,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// OpenListing opens the listing in its own tab and waits for the first results.
func (b *Browser) OpenListing(ctx context.Context, url string) (repository.ListingPage, error) {
	tabCtx, cancel, err := b.newTab()
	if err != nil {
		return nil, err
	}

	runCtx, stop := bounded(tabCtx, ctx, b.opts.PageLoadTimeout)
	defer stop()

	err = chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		cancel()
		return nil, classify(err, url)
	}

	page := &listingPage{tabCtx: tabCtx, cancel: cancel, opts: b.opts, logger: b.logger}

	// Results are rendered by script after the body; an empty listing is the caller's call.
	waitCtx, stopWait := bounded(tabCtx, ctx, b.opts.PaginationTimeout)
	defer stopWait()
	err = chromedp.Run(waitCtx, chromedp.Poll(countExpr(b.opts.ListingSelector, 0), nil,
		chromedp.WithPollingTimeout(b.opts.PaginationTimeout)))
	if err != nil && !errors.Is(err, chromedp.ErrPollingTimeout) && !errors.Is(err, context.DeadlineExceeded) {
		page.Close()
		return nil, classify(err, url)
	}

	return page, nil
}

// FetchDetail renders url in a fresh tab that is closed before returning.
func (b *Browser) FetchDetail(ctx context.Context, url string) (*entity.DetailPage, error) {
	tabCtx, cancel, err := b.newTab()
	if err != nil {
		return nil, err
	}
	defer cancel()

	runCtx, stop := bounded(tabCtx, ctx, b.opts.PageLoadTimeout)
	defer stop()

	var html, location string
	err = chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, classify(err, url)
	}

	return &entity.DetailPage{URL: url, FinalURL: location, HTML: html}, nil
}

func (b *Browser) Close() error {
	b.browserCancel()
	b.allocCancel()
	return nil
}

// newTab opens a target with this run's identity applied.
func (b *Browser) newTab() (context.Context, context.CancelFunc, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(b.agent.Headers()),
		emulation.SetUserAgentOverride(b.agent.UserAgent()).WithAcceptLanguage("fr-FR"),
	)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("%w: open tab: %v", repository.ErrNavigationFailed, err)
	}
	return tabCtx, cancel, nil
}

// bounded derives a context from the tab that also ends with the caller's context.
func bounded(tabCtx, callerCtx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(tabCtx, d)
	stop := context.AfterFunc(callerCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func classify(err error, url string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", repository.ErrCrawlTimeout, url)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", repository.ErrNavigationFailed, url, err)
}
