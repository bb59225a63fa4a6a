package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kosha-admin/kosha/internal/shared"
)

const (
	defaultLimit = 200
	maxLimit     = 1000
)

// Service records and lists admin actions.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a journal service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Record stores entry, filling its id, time and actor from ctx. Failures
// are logged and never reach the caller: the mutation being journaled has
// already happened.
func (s *Service) Record(ctx context.Context, entry Entry) {
	if s == nil || s.store == nil {
		return
	}
	if err := entry.validate(); err != nil {
		s.logger.Warn("journal entry dropped", slog.String("action", entry.Action), slog.Any("error", err))
		return
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = s.now()
	}
	if admin, ok := shared.AdminFromContext(ctx); ok {
		if entry.ActorID == 0 {
			entry.ActorID = admin.ID
		}
		if entry.Actor == "" {
			entry.Actor = admin.Email
		}
	}
	if err := s.store.Insert(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Error("record admin action",
			slog.String("action", entry.Action),
			slog.String("resource_id", entry.ResourceID),
			slog.Any("error", err))
	}
}

// Recent returns up to limit entries, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)
	return s.store.Recent(ctx, limit)
}
