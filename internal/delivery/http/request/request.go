package request

// SubmitCrawlRequest queues one listing target. URL may be absolute or a path on the directory site.
type SubmitCrawlRequest struct {
	URL        string `json:"url"`
	ForceCrawl bool   `json:"force_crawl"`
}
