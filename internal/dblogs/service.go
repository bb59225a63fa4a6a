// Package dblogs serves the monthly report of database operations performed
// by dictionary managers.
package dblogs

import (
	"context"
	"errors"
	"fmt"

	"github.com/kosha-admin/kosha/internal/dictapi"
	"github.com/kosha-admin/kosha/internal/platform/httpx"
	"github.com/kosha-admin/kosha/internal/querycache"
)

// Backend fetches a month of logs.
type Backend interface {
	GetDBLogs(ctx context.Context, month dictapi.Month) ([]dictapi.DBLog, error)
}

// Service reads logs through the query cache.
type Service struct {
	backend Backend
	cache   *querycache.Cache
}

// NewService constructs a Service. cache may be nil.
func NewService(backend Backend, cache *querycache.Cache) *Service {
	return &Service{backend: backend, cache: cache}
}

func monthKey(month dictapi.Month) querycache.Key {
	return querycache.Key{"logs", string(month)}
}

// Logs returns the operations logged in month. A month the backend has no
// partition for yields no rows.
func (s *Service) Logs(ctx context.Context, month dictapi.Month) ([]dictapi.DBLog, error) {
	logs, err := querycache.Fetch(ctx, s.cache, monthKey(month), func(ctx context.Context) ([]dictapi.DBLog, error) {
		logs, err := s.backend.GetDBLogs(ctx, month)
		if errors.Is(err, httpx.ErrNotFound) {
			return []dictapi.DBLog{}, nil
		}
		return logs, err
	})
	if err != nil {
		return nil, fmt.Errorf("dblogs: %s: %w", month, err)
	}
	return logs, nil
}

// Invalidate drops the cached month.
func (s *Service) Invalidate(ctx context.Context, month dictapi.Month) error {
	return s.cache.Invalidate(ctx, monthKey(month))
}

// Warm reloads month into the cache and reports how many rows it holds.
func (s *Service) Warm(ctx context.Context, month dictapi.Month) (int, error) {
	if err := s.Invalidate(ctx, month); err != nil {
		return 0, err
	}
	logs, err := s.Logs(ctx, month)
	if err != nil {
		return 0, err
	}
	return len(logs), nil
}
