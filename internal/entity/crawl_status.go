package entity

import "time"

const (
	StatusQueued    = "queued"
	StatusCrawling  = "crawling"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusNotFound  = "not_found"
)

// CrawlStatus is the lifecycle of a submitted target in service mode.
type CrawlStatus struct {
	URL                string
	CurrentStatus      string
	SubmittedAt        *time.Time
	LastCrawlTimestamp *time.Time
	Emitted            int
	Failed             int
	FailureReason      string
}
