package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, SessionOptions{CookieName: "sid", TTL: time.Hour}), mr
}

func roundTrip(t *testing.T, sm *SessionManager, sess *Session) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, sess))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessionPersistsUserAndValues(t *testing.T) {
	sm, mr := newManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser(42)
	sess.Set("theme", "dark")

	req := roundTrip(t, sm, sess)
	assert.True(t, mr.Exists(sessionKeyPrefix+sess.ID))

	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, int64(42), loaded.UserID())
	assert.Equal(t, "dark", loaded.Get("theme"))
}

func TestFlashesAreShownOnce(t *testing.T) {
	sm, _ := newManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.AddFlash(FlashSuccess, "Word created")
	req := roundTrip(t, sm, sess)

	next, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, []FlashMessage{{Kind: FlashSuccess, Message: "Word created"}}, next.PopFlashes())
	req = roundTrip(t, sm, next)

	last, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, last.PopFlashes())
}

func TestUnknownSessionIDIsReplaced(t *testing.T) {
	sm, _ := newManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "forged"})

	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "forged", sess.ID)
	assert.Zero(t, sess.UserID())
}

func TestDestroyRemovesSessionAndCookie(t *testing.T) {
	sm, mr := newManager(t)
	ctx := context.Background()

	sess, _ := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	sess.SetUser(7)
	roundTrip(t, sm, sess)
	require.True(t, mr.Exists(sessionKeyPrefix+sess.ID))

	sm.Destroy(sess)
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))
	assert.False(t, mr.Exists(sessionKeyPrefix+sess.ID))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestRenewRotatesID(t *testing.T) {
	sm, mr := newManager(t)
	ctx := context.Background()

	sess, _ := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	roundTrip(t, sm, sess)
	oldID := sess.ID

	require.NoError(t, sm.Renew(ctx, sess))
	roundTrip(t, sm, sess)
	assert.NotEqual(t, oldID, sess.ID)
	assert.False(t, mr.Exists(sessionKeyPrefix+oldID))
	assert.True(t, mr.Exists(sessionKeyPrefix+sess.ID))
}

func TestCommitSlidesExpiry(t *testing.T) {
	sm, mr := newManager(t)
	ctx := context.Background()

	sess, _ := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	req := roundTrip(t, sm, sess)
	mr.FastForward(50 * time.Minute)

	again, err := sm.Load(ctx, req)
	require.NoError(t, err)
	roundTrip(t, sm, again)
	assert.Equal(t, time.Hour, mr.TTL(sessionKeyPrefix+sess.ID))
}
