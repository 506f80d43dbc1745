package entity

import "time"

// FailedURL mirrors the `failed_urls` PostgreSQL table. It is an audit trail; nothing retries from it.
type FailedURL struct {
	ID                   int64
	URL                  string
	TargetURL            string
	FailureReason        string
	ErrorType            string
	LastAttemptTimestamp time.Time
	AttemptCount         int
}
