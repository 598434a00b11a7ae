package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// SessionKind says which identity a client run operates under.
type SessionKind int

const (
	// SessionNone means no usable identity; only the demo surface works.
	SessionNone SessionKind = iota
	// SessionHost means the host platform supplied signed initData.
	SessionHost
	// SessionGuest means the server minted a guest token for this browser.
	SessionGuest
	// SessionDemo means a previously saved identity expired and the client
	// runs against the local simulator.
	SessionDemo
)

func (k SessionKind) String() string {
	switch k {
	case SessionHost:
		return "host"
	case SessionGuest:
		return "guest"
	case SessionDemo:
		return "demo"
	default:
		return "none"
	}
}

const sessionTTL = 7 * 24 * time.Hour

// SavedSession is what the client persists between runs.
type SavedSession struct {
	Kind       SessionKind  `json:"kind"`
	InitData   string       `json:"init_data,omitempty"`
	GuestID    int64        `json:"guest_id,omitempty"`
	GuestToken string       `json:"guest_token,omitempty"`
	User       TelegramUser `json:"user"`
	SavedAt    time.Time    `json:"saved_at"`
}

func (s SavedSession) expired(now time.Time) bool {
	return now.Sub(s.SavedAt) > sessionTTL
}

// SessionStore persists one session per client install.
type SessionStore interface {
	Load() (*SavedSession, error)
	Save(s SavedSession) error
	Clear() error
}

// FileSessionStore keeps the session as a JSON file next to the client state.
type FileSessionStore struct {
	Path string
}

func NewFileSessionStore(dir string) *FileSessionStore {
	return &FileSessionStore{Path: filepath.Join(dir, "session.json")}
}

func (fs *FileSessionStore) Load() (*SavedSession, error) {
	data, err := os.ReadFile(fs.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s SavedSession
	if err := json.Unmarshal(data, &s); err != nil {
		// A corrupt session file is the same as no session.
		return nil, nil
	}
	return &s, nil
}

func (fs *FileSessionStore) Save(s SavedSession) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fs.Path), 0o755); err != nil {
		return err
	}
	tmp := fs.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, fs.Path)
}

func (fs *FileSessionStore) Clear() error {
	err := os.Remove(fs.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// HostBridge abstracts the host platform surface the client runs inside.
// Outside the host, Available returns false and the resolver falls back to
// stored or demo identities.
type HostBridge interface {
	Available() bool
	InitData() string
	User() (TelegramUser, bool)
	StartParam() string
}

// ResolveSession picks the identity for this client run, in order: live host
// initData, a stored unexpired session, demo mode over a stored expired
// session, or no session at all.
func ResolveSession(bridge HostBridge, store SessionStore, now time.Time) (SavedSession, error) {
	if bridge != nil && bridge.Available() {
		user, ok := bridge.User()
		if ok {
			session := SavedSession{
				Kind:     SessionHost,
				InitData: bridge.InitData(),
				User:     user,
				SavedAt:  now,
			}
			if store != nil {
				if err := store.Save(session); err != nil {
					return SavedSession{}, err
				}
			}
			return session, nil
		}
	}

	if store != nil {
		saved, err := store.Load()
		if err != nil {
			return SavedSession{}, err
		}
		if saved != nil {
			if !saved.expired(now) {
				return *saved, nil
			}
			demo := *saved
			demo.Kind = SessionDemo
			return demo, nil
		}
	}

	return SavedSession{Kind: SessionNone, SavedAt: now}, nil
}
