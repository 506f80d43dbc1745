package entity

import "time"

// Target is one listing page to crawl and the file its records go to.
type Target struct {
	URL        string `json:"url"`
	Kind       Kind   `json:"kind"`
	Slug       string `json:"slug"`
	Code       string `json:"code"`
	OutputFile string `json:"output_file"`
	// Limit caps emitted records; zero means unlimited.
	Limit int `json:"limit,omitempty"`
}

// DetailPage is the rendered HTML of one detail page.
type DetailPage struct {
	URL      string
	FinalURL string
	HTML     string
}

// CrawlResult summarizes one target run.
type CrawlResult struct {
	TargetURL  string
	OutputFile string
	Discovered int
	Visited    int
	Emitted    int
	Failed     int
	Pages      int
	StartedAt  time.Time
	FinishedAt time.Time
}
