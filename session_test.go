package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeBridge struct {
	available bool
	initData  string
	user      TelegramUser
	hasUser   bool
	start     string
}

func (b *fakeBridge) Available() bool            { return b.available }
func (b *fakeBridge) InitData() string           { return b.initData }
func (b *fakeBridge) User() (TelegramUser, bool) { return b.user, b.hasUser }
func (b *fakeBridge) StartParam() string         { return b.start }

func TestResolveSessionHost(t *testing.T) {
	store := NewFileSessionStore(t.TempDir())
	bridge := &fakeBridge{
		available: true,
		initData:  "user=...&hash=abc",
		user:      TelegramUser{ID: 42, FirstName: "Ran"},
		hasUser:   true,
	}
	now := time.Now()

	session, err := ResolveSession(bridge, store, now)
	require.NoError(t, err)
	require.Equal(t, SessionHost, session.Kind)
	require.Equal(t, int64(42), session.User.ID)

	saved, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, saved)
	require.Equal(t, SessionHost, saved.Kind)
	require.Equal(t, bridge.initData, saved.InitData)
}

func TestResolveSessionStored(t *testing.T) {
	store := NewFileSessionStore(t.TempDir())
	now := time.Now()
	require.NoError(t, store.Save(SavedSession{
		Kind:       SessionGuest,
		GuestID:    777,
		GuestToken: "tok",
		User:       TelegramUser{ID: 777, FirstName: "Guest"},
		SavedAt:    now.Add(-time.Hour),
	}))

	session, err := ResolveSession(&fakeBridge{}, store, now)
	require.NoError(t, err)
	require.Equal(t, SessionGuest, session.Kind)
	require.Equal(t, int64(777), session.GuestID)
}

func TestResolveSessionExpiredFallsToDemo(t *testing.T) {
	store := NewFileSessionStore(t.TempDir())
	now := time.Now()
	require.NoError(t, store.Save(SavedSession{
		Kind:    SessionHost,
		User:    TelegramUser{ID: 42},
		SavedAt: now.Add(-8 * 24 * time.Hour),
	}))

	session, err := ResolveSession(&fakeBridge{}, store, now)
	require.NoError(t, err)
	require.Equal(t, SessionDemo, session.Kind)
	require.Equal(t, int64(42), session.User.ID, "demo keeps the stale identity for display")
}

func TestResolveSessionNone(t *testing.T) {
	store := NewFileSessionStore(t.TempDir())

	session, err := ResolveSession(&fakeBridge{}, store, time.Now())
	require.NoError(t, err)
	require.Equal(t, SessionNone, session.Kind)
}

func TestFileSessionStoreRoundTrip(t *testing.T) {
	store := NewFileSessionStore(t.TempDir())

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, loaded)

	session := SavedSession{Kind: SessionGuest, GuestID: 1, GuestToken: "x", SavedAt: time.Now().UTC()}
	require.NoError(t, store.Save(session))

	loaded, err = store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, session.Kind, loaded.Kind)
	require.Equal(t, session.GuestToken, loaded.GuestToken)

	require.NoError(t, store.Clear())
	loaded, err = store.Load()
	require.NoError(t, err)
	require.Nil(t, loaded)

	require.NoError(t, store.Clear(), "clearing twice is fine")
}
