package repository

import (
	"context"
	"errors"
)

var ErrQueueEmpty = errors.New("queue is empty")

// QueueRepository is a FIFO queue of listing URLs waiting to be crawled.
type QueueRepository interface {
	Push(ctx context.Context, url string) error
	// Pop returns ErrQueueEmpty when nothing is waiting.
	Pop(ctx context.Context) (string, error)
	Size(ctx context.Context) (int64, error)
}
