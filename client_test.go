package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func guestSession() SavedSession {
	return SavedSession{
		Kind:       SessionGuest,
		GuestID:    777,
		GuestToken: "guest-token",
		User:       TelegramUser{ID: 777, FirstName: "Guest"},
		SavedAt:    time.Now(),
	}
}

func TestClientSendsGuestCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "guest-token", r.Header.Get("X-Guest-Token"))
		require.Equal(t, "777", r.Header.Get("X-Guest-ID"))
		json.NewEncoder(w).Encode(UserResponse{Success: true, User: UserView{TelegramID: 777, Points: 100}})
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, guestSession())
	resp, err := client.FetchUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, 100, resp.User.Points)
}

func TestClientSendsHostCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "tma user=x&hash=y", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(UserResponse{Success: true})
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, SavedSession{Kind: SessionHost, InitData: "user=x&hash=y"})
	_, err := client.FetchUser(context.Background())
	require.NoError(t, err)
}

func TestClientNoSession(t *testing.T) {
	client := NewAPIClient("http://localhost:0", SavedSession{Kind: SessionNone})
	_, err := client.FetchUser(context.Background())
	require.ErrorIs(t, err, ErrNoSession)
}

func TestClientAuthRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, guestSession())
	_, err := client.FetchUser(context.Background())
	require.ErrorIs(t, err, ErrAuthRequired)
}

func TestClientRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "INSUFFICIENT_FUNDS",
		})
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, guestSession())
	_, err := client.OpenCase(context.Background(), 15000)

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, "INSUFFICIENT_FUNDS", remote.Code)
	require.False(t, recoverable(err), "domain refusals must not trigger demo fallback")
}

func TestClientNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewAPIClient(server.URL, guestSession())
	_, err := client.FetchUser(context.Background())
	require.ErrorIs(t, err, ErrNetworkFailure)
	require.True(t, recoverable(err))
}

func TestClientOpenCasePayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req OpenCaseRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, 500, req.CasePrice)
		json.NewEncoder(w).Encode(OpenCaseResponse{Success: true, Item: "Sticker | ENCE", NewBalance: 1000})
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, guestSession())
	resp, err := client.OpenCase(context.Background(), 500)
	require.NoError(t, err)
	require.Equal(t, "Sticker | ENCE", resp.Item)
	require.Equal(t, 1000, resp.NewBalance)
}

func TestRequestGuestSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		json.NewEncoder(w).Encode(GuestSessionResponse{Success: true, GuestID: 555, Token: "fresh"})
	}))
	defer server.Close()

	now := time.Now()
	session, err := RequestGuestSession(context.Background(), server.URL, nil, now)
	require.NoError(t, err)
	require.Equal(t, SessionGuest, session.Kind)
	require.Equal(t, int64(555), session.GuestID)
	require.Equal(t, "fresh", session.GuestToken)
	require.Equal(t, now, session.SavedAt)
}
