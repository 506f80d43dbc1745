package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/annuaire-crawler/internal/adapter/chromedp_crawler"
	"github.com/user/annuaire-crawler/internal/adapter/jsonl"
	"github.com/user/annuaire-crawler/internal/adapter/memory"
	"github.com/user/annuaire-crawler/internal/adapter/postgres"
	redis_adapter "github.com/user/annuaire-crawler/internal/adapter/redis"
	"github.com/user/annuaire-crawler/internal/catalog"
	"github.com/user/annuaire-crawler/internal/entity"
	"github.com/user/annuaire-crawler/internal/extractor"
	"github.com/user/annuaire-crawler/internal/repository"
	"github.com/user/annuaire-crawler/internal/usecase"
)

var crawlFlags struct {
	selectKeys  []string
	urls        []string
	limit       int
	dataDir     string
	epciDir     string
	catalogPath string
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl listing targets into JSONL files",
	Long: `Crawls every enabled target of the catalogue, one after another on a single browser.
Use --select to restrict the run to some departments or regions (code or slug),
or --url to crawl listing URLs that are not in the catalogue.
Mairie records go to DATA_DIR and EPCI records to EPCI_DIR.`,
	RunE: runCrawl,
}

func init() {
	f := crawlCmd.Flags()
	f.StringSliceVar(&crawlFlags.selectKeys, "select", nil, "target codes or slugs to crawl (default all enabled)")
	f.StringSliceVar(&crawlFlags.urls, "url", nil, "listing URL to crawl instead of the catalogue")
	f.IntVar(&crawlFlags.limit, "limit", 0, "stop each target after this many records (0 = no limit)")
	f.StringVar(&crawlFlags.dataDir, "data-dir", "", "mairie output directory (default DATA_DIR)")
	f.StringVar(&crawlFlags.epciDir, "epci-dir", "", "EPCI output directory (default EPCI_DIR)")
	f.StringVar(&crawlFlags.catalogPath, "catalog", "", "target catalogue file (default TARGETS_FILE or built-in)")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cat, err := catalog.Load(orDefault(crawlFlags.catalogPath, cfg.TargetsFile))
	if err != nil {
		return err
	}
	targets, err := selectTargets(cat)
	if err != nil {
		return err
	}

	dirs := jsonl.Dirs{
		Mairie: orDefault(crawlFlags.dataDir, cfg.DataDir),
		EPCI:   orDefault(crawlFlags.epciDir, cfg.EPCIDir),
	}
	crawlCfg := usecase.CrawlerConfig{
		OpenSink:   dirs.Open,
		NewVisited: func(entity.Target) repository.VisitedRepository { return memory.NewVisitedRepo() },
		VisitDelay: cfg.VisitDelay,
		Logger:     log,
	}

	if cfg.VisitedBackend == "redis" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("unable to connect to Redis: %w", err)
		}
		crawlCfg.NewVisited = func(t entity.Target) repository.VisitedRepository {
			return redis_adapter.NewVisitedRepo(rdb, t.URL, 48*time.Hour)
		}
	}

	if cfg.PostgresURL != "" {
		pool, err := postgres.Connect(ctx, cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		records := postgres.NewRecordRepo(pool)
		crawlCfg.Failures = postgres.NewFailedURLRepo(pool)
		crawlCfg.OpenSink = func(t entity.Target) (repository.RecordSink, error) {
			file, err := dirs.Open(t)
			if err != nil {
				return nil, err
			}
			return usecase.MultiSink(log, file, postgres.NewRecordSink(records, t.URL)), nil
		}
		log.Info("mirroring records to PostgreSQL")
	}

	browser, err := chromedp_crawler.NewBrowser(ctx, chromedp_crawler.Options{
		Headless:          cfg.Headless,
		ProxyServer:       cfg.BrowserProxy,
		PageLoadTimeout:   cfg.PageLoadTimeout,
		PaginationTimeout: cfg.PaginationTimeout,
		ClickTimeout:      cfg.ClickTimeout,
		SettleDelay:       cfg.SettleDelay,
		ListingSelector:   extractor.ListingLinkSelector,
		LoadMoreSelector:  extractor.LoadMoreSelector,
	}, chromedp_crawler.NewAgent(nil), log)
	if err != nil {
		return err
	}
	defer browser.Close()
	crawlCfg.Browser = browser

	log.Info("crawl starting", zap.Int("targets", len(targets)))
	reports := usecase.NewCrawler(crawlCfg).RunAll(ctx, targets)
	printCrawlSummary(cmd, dirs, reports)
	return nil
}

func selectTargets(cat *catalog.Catalog) ([]entity.Target, error) {
	var targets []entity.Target
	if len(crawlFlags.urls) > 0 {
		for _, u := range crawlFlags.urls {
			t, err := cat.Resolve(u)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", u, err)
			}
			if t.Code == catalog.UnknownCode {
				log.Warn("listing slug not in catalogue tables, using placeholder code", zap.String("url", t.URL), zap.String("slug", t.Slug))
			}
			targets = append(targets, t)
		}
	} else {
		var err error
		if targets, err = cat.Select(crawlFlags.selectKeys); err != nil {
			return nil, err
		}
	}
	if len(targets) == 0 {
		return nil, errors.New("no target to crawl")
	}
	if crawlFlags.limit > 0 {
		for i := range targets {
			targets[i].Limit = crawlFlags.limit
		}
	}
	return targets, nil
}

func printCrawlSummary(cmd *cobra.Command, dirs jsonl.Dirs, reports []usecase.TargetReport) {
	t := newTable(cmd)
	t.AppendHeader(table.Row{"Code", "Kind", "Output", "Pages", "Emitted", "Failed", "Duration", "Error"})
	var emitted, failed int
	for _, r := range reports {
		row := table.Row{r.Target.Code, r.Target.Kind, dirs.Path(r.Target), "", "", "", "", ""}
		if r.Result != nil {
			row[3], row[4], row[5] = r.Result.Pages, r.Result.Emitted, r.Result.Failed
			row[6] = r.Result.FinishedAt.Sub(r.Result.StartedAt).Round(time.Second)
			emitted += r.Result.Emitted
			failed += r.Result.Failed
		}
		if r.Err != nil {
			row[7] = r.Err.Error()
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{"", "", "Total", "", emitted, failed, "", ""})
	t.Render()
}
