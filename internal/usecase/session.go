package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/annuaire-crawler/internal/entity"
	"github.com/user/annuaire-crawler/internal/repository"
)

// SinkFactory opens the destination of one target's records.
type SinkFactory func(target entity.Target) (repository.RecordSink, error)

// VisitedFactory creates the visited set of one target.
type VisitedFactory func(target entity.Target) repository.VisitedRepository

// Session owns the per-target crawl state: the visited set, the sink and the running counters.
// It is released when the target ends, whatever the outcome.
type Session struct {
	Target     entity.Target
	visited    repository.VisitedRepository
	sink       repository.RecordSink
	discovered map[string]struct{}
	result     entity.CrawlResult
}

func newSession(ctx context.Context, target entity.Target, openSink SinkFactory, newVisited VisitedFactory) (*Session, error) {
	sink, err := openSink(target)
	if err != nil {
		return nil, err
	}
	visited := newVisited(target)
	if err := visited.Reset(ctx); err != nil {
		sink.Close()
		return nil, fmt.Errorf("failed to reset visited set: %w", err)
	}
	return &Session{
		Target:     target,
		visited:    visited,
		sink:       sink,
		discovered: make(map[string]struct{}),
		result: entity.CrawlResult{
			TargetURL:  target.URL,
			OutputFile: target.OutputFile,
		},
	}, nil
}

// discover records rendered links and returns, in page order, those not visited yet.
func (s *Session) discover(ctx context.Context, links []string) ([]string, error) {
	var fresh []string
	seen := make(map[string]struct{}, len(links))
	for _, link := range links {
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		s.discovered[link] = struct{}{}

		visited, err := s.visited.IsVisited(ctx, link)
		if err != nil {
			return nil, fmt.Errorf("failed to check visited set: %w", err)
		}
		if !visited {
			fresh = append(fresh, link)
		}
	}
	s.result.Discovered = len(s.discovered)
	return fresh, nil
}

func (s *Session) limitReached() bool {
	return s.Target.Limit > 0 && s.result.Emitted >= s.Target.Limit
}

// Close releases the sink.
func (s *Session) Close() error {
	return s.sink.Close()
}

type multiSink struct {
	primary repository.RecordSink
	mirrors []repository.RecordSink
	logger  *zap.Logger
}

// MultiSink writes every record to primary, then copies it to each mirror. Only a primary
// error fails the append; mirror errors are logged so the record still counts as written.
func MultiSink(logger *zap.Logger, primary repository.RecordSink, mirrors ...repository.RecordSink) repository.RecordSink {
	return &multiSink{primary: primary, mirrors: mirrors, logger: logger}
}

func (m *multiSink) Append(ctx context.Context, record *entity.RawRecord) error {
	if err := m.primary.Append(ctx, record); err != nil {
		return err
	}
	for _, s := range m.mirrors {
		if err := s.Append(ctx, record); err != nil {
			m.logger.Error("failed to mirror record", zap.String("url", record.URL), zap.Error(err))
		}
	}
	return nil
}

func (m *multiSink) Close() error {
	errs := []error{m.primary.Close()}
	for _, s := range m.mirrors {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
