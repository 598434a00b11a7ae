package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// APIClient talks to the authoritative server. Every call is a single
// attempt: on transport failure it reports ErrNetworkFailure and leaves retry
// policy to the caller, which decides whether to fall back to the simulator.
type APIClient struct {
	BaseURL string
	Session SavedSession
	HTTP    *http.Client
}

func NewAPIClient(baseURL string, session SavedSession) *APIClient {
	return &APIClient{
		BaseURL: baseURL,
		Session: session,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *APIClient) do(ctx context.Context, method string, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	switch c.Session.Kind {
	case SessionHost:
		req.Header.Set("Authorization", hostAuthPrefix+c.Session.InitData)
	case SessionGuest:
		req.Header.Set(guestTokenHeader, c.Session.GuestToken)
		req.Header.Set("X-Guest-ID", strconv.FormatInt(c.Session.GuestID, 10))
	default:
		return ErrNoSession
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrAuthRequired
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}

	// Application failures come back as JSON envelopes with success=false,
	// usually alongside a 4xx status. Prefer the coded error when present.
	var envelope struct {
		Success *bool  `json:"success"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil {
		if envelope.Success != nil && !*envelope.Success {
			return &RemoteError{Code: envelope.Error, Message: envelope.Message}
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrNetworkFailure, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (c *APIClient) FetchUser(ctx context.Context) (*UserResponse, error) {
	var resp UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/user", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) OpenCase(ctx context.Context, price int) (*OpenCaseResponse, error) {
	var resp OpenCaseResponse
	if err := c.do(ctx, http.MethodPost, "/api/open-case", OpenCaseRequest{CasePrice: price}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) ClaimDailyBonus(ctx context.Context) (*DailyBonusResponse, error) {
	var resp DailyBonusResponse
	if err := c.do(ctx, http.MethodPost, "/api/daily-bonus", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) ActivatePromo(ctx context.Context, code string) (*PromoResponse, error) {
	var resp PromoResponse
	if err := c.do(ctx, http.MethodPost, "/api/activate-promo", PromoRequest{Code: code}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) SetTradeLink(ctx context.Context, link string) (*TradeLinkResponse, error) {
	var resp TradeLinkResponse
	if err := c.do(ctx, http.MethodPost, "/api/set-trade-link", TradeLinkRequest{TradeLink: link}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) WithdrawItem(ctx context.Context, itemID string) (*WithdrawResponse, error) {
	var resp WithdrawResponse
	if err := c.do(ctx, http.MethodPost, "/api/withdraw-item", WithdrawRequest{ItemID: itemID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) AvailablePromos(ctx context.Context) ([]PromoView, error) {
	var resp PromoListResponse
	if err := c.do(ctx, http.MethodGet, "/api/available-promos", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Promos, nil
}

func (c *APIClient) ReferralInfo(ctx context.Context) (*ReferralInfo, error) {
	var resp ReferralInfoResponse
	if err := c.do(ctx, http.MethodGet, "/api/referral-info", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Info, nil
}

func (c *APIClient) ReferralEligibility(ctx context.Context) (*EligibilityResponse, error) {
	var resp EligibilityResponse
	if err := c.do(ctx, http.MethodGet, "/api/referral-eligibility", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) InviteFriend(ctx context.Context, code string) error {
	return c.do(ctx, http.MethodPost, "/api/invite-friend", InviteRequest{ReferralCode: code}, nil)
}

func (c *APIClient) VerifyTelegramProfile(ctx context.Context) (*ProfileCheckResponse, error) {
	var resp ProfileCheckResponse
	if err := c.do(ctx, http.MethodPost, "/api/verify-telegram", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) VerifySteamProfile(ctx context.Context, profileURL string, level int) (*ProfileCheckResponse, error) {
	var resp ProfileCheckResponse
	if err := c.do(ctx, http.MethodPost, "/api/verify-steam", SteamVerifyRequest{ProfileURL: profileURL, Level: level}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestGuestSession asks the server for a fresh guest identity. It is the
// one call that runs without credentials.
func RequestGuestSession(ctx context.Context, baseURL string, httpClient *http.Client, now time.Time) (*SavedSession, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/guest-session", nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrNetworkFailure, resp.StatusCode)
	}
	var body GuestSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}
	return &SavedSession{
		Kind:       SessionGuest,
		GuestID:    body.GuestID,
		GuestToken: body.Token,
		User:       TelegramUser{ID: body.GuestID, FirstName: "Guest"},
		SavedAt:    now,
	}, nil
}
