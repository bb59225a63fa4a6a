package journal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosha-admin/kosha/internal/shared"
)

type stubStore struct {
	entries   []Entry
	insertErr error
	lastLimit int
	ctxErr    error
}

func (s *stubStore) Insert(ctx context.Context, entry Entry) error {
	s.ctxErr = ctx.Err()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubStore) Recent(_ context.Context, limit int) ([]Entry, error) {
	s.lastLimit = limit
	return s.entries, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecordFillsIdentityAndActor(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, quietLogger())
	at := time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return at }

	ctx := shared.ContextWithAdmin(context.Background(), shared.Admin{ID: 7, Email: "editor@example.com"})
	svc.Record(ctx, Entry{Action: ActionWordCreate, Resource: ResourceWord, ResourceID: "agni"})

	require.Len(t, store.entries, 1)
	got := store.entries[0]
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, at, got.OccurredAt)
	assert.Equal(t, int64(7), got.ActorID)
	assert.Equal(t, "editor@example.com", got.Actor)
}

func TestRecordSurvivesCancelledRequest(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc.Record(ctx, Entry{Action: ActionWordDelete, Resource: ResourceWord, ResourceID: "vana"})

	require.Len(t, store.entries, 1)
	assert.NoError(t, store.ctxErr)
}

func TestRecordDropsInvalidEntries(t *testing.T) {
	store := &stubStore{}
	NewService(store, quietLogger()).Record(context.Background(), Entry{ResourceID: "x"})
	assert.Empty(t, store.entries)
}

func TestRecordSwallowsStoreErrors(t *testing.T) {
	store := &stubStore{insertErr: errors.New("db down")}
	svc := NewService(store, quietLogger())
	assert.NotPanics(t, func() {
		svc.Record(context.Background(), Entry{Action: ActionMeaningCreate, Resource: ResourceMeaning, ResourceID: "agni"})
	})
}

func TestNilServiceRecordIsNoop(t *testing.T) {
	var svc *Service
	assert.NotPanics(t, func() {
		svc.Record(context.Background(), Entry{Action: ActionWordEdit, Resource: ResourceWord})
	})
}

func TestRecentClampsLimit(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, quietLogger())

	_, err := svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, defaultLimit, store.lastLimit)

	_, err = svc.Recent(context.Background(), 5000)
	require.NoError(t, err)
	assert.Equal(t, maxLimit, store.lastLimit)
}

func TestFormatDetailSortsKeys(t *testing.T) {
	assert.Equal(t, "meaning=fire word=agni", formatDetail(map[string]string{"word": "agni", "meaning": "fire"}))
	assert.Empty(t, formatDetail(nil))
}
