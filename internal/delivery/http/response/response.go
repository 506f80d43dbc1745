package response

import (
	"time"

	"github.com/user/annuaire-crawler/internal/entity"
)

type SubmitCrawlResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	URL           string `json:"url"`
	CurrentStatus string `json:"current_status"`
}

// CrawlStatusResponse is a DTO for crawl status, mirroring entity.CrawlStatus
type CrawlStatusResponse struct {
	URL                string     `json:"url"`
	CurrentStatus      string     `json:"current_status"` // "queued", "crawling", "completed", "failed"
	SubmittedAt        *time.Time `json:"submitted_at,omitempty"`
	LastCrawlTimestamp *time.Time `json:"last_crawl_timestamp,omitempty"`
	Emitted            int        `json:"emitted"`
	Failed             int        `json:"failed"`
	FailureReason      string     `json:"failure_reason,omitempty"`
}

func NewCrawlStatusResponse(s *entity.CrawlStatus) CrawlStatusResponse {
	return CrawlStatusResponse{
		URL:                s.URL,
		CurrentStatus:      s.CurrentStatus,
		SubmittedAt:        s.SubmittedAt,
		LastCrawlTimestamp: s.LastCrawlTimestamp,
		Emitted:            s.Emitted,
		Failed:             s.Failed,
		FailureReason:      s.FailureReason,
	}
}

type FailedURLResponse struct {
	URL                  string    `json:"url"`
	TargetURL            string    `json:"target_url"`
	FailureReason        string    `json:"failure_reason"`
	ErrorType            string    `json:"error_type"`
	LastAttemptTimestamp time.Time `json:"last_attempt_timestamp"`
	AttemptCount         int       `json:"attempt_count"`
}

type FailuresResponse struct {
	Count    int                 `json:"count"`
	Failures []FailedURLResponse `json:"failures"`
}

func NewFailuresResponse(failures []*entity.FailedURL) FailuresResponse {
	out := FailuresResponse{Count: len(failures), Failures: make([]FailedURLResponse, 0, len(failures))}
	for _, f := range failures {
		out.Failures = append(out.Failures, FailedURLResponse{
			URL:                  f.URL,
			TargetURL:            f.TargetURL,
			FailureReason:        f.FailureReason,
			ErrorType:            f.ErrorType,
			LastAttemptTimestamp: f.LastAttemptTimestamp,
			AttemptCount:         f.AttemptCount,
		})
	}
	return out
}
