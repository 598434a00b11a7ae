package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatPoints(t *testing.T) {
	require.Equal(t, "0", formatPoints(0))
	require.Equal(t, "500", formatPoints(500))
	require.Equal(t, "1 500", formatPoints(1500))
	require.Equal(t, "15 000", formatPoints(15000))
	require.Equal(t, "1 234 567", formatPoints(1234567))
	require.Equal(t, "-1 500", formatPoints(-1500))
}

func TestFormatCountdown(t *testing.T) {
	require.Equal(t, "00:00:00", formatCountdown(0))
	require.Equal(t, "00:00:59", formatCountdown(59*time.Second))
	require.Equal(t, "01:02:03", formatCountdown(time.Hour+2*time.Minute+3*time.Second))
	require.Equal(t, "23:59:59", formatCountdown(24*time.Hour-time.Second))
	require.Equal(t, "00:00:00", formatCountdown(-5*time.Second), "negative clamps to zero")
}

func TestRenderInventory(t *testing.T) {
	items := []Item{
		{ID: "1", Name: "Sticker | PGL", Rarity: RarityCommon, Price: 1500},
		{ID: "2", Name: "Sticker | Hypnoteyes", Rarity: RarityLegendary, Price: 15000},
	}

	all := renderInventory(items, "")
	require.Contains(t, all, "Sticker | PGL")
	require.Contains(t, all, "Sticker | Hypnoteyes")
	require.Contains(t, all, "15 000 pts")

	filtered := renderInventory(items, RarityLegendary)
	require.NotContains(t, filtered, "Sticker | PGL")
	require.Contains(t, filtered, "Sticker | Hypnoteyes")

	require.Equal(t, "inventory is empty", renderInventory(items, "no-such-rarity"))
	require.Equal(t, "inventory is empty", renderInventory(nil, ""))
}

func TestRenderPromoList(t *testing.T) {
	require.Equal(t, "no promo codes available", renderPromoList(nil))

	out := renderPromoList([]PromoView{
		{Code: "WELCOME1", Points: 100, RemainingUses: "∞"},
		{Code: "CS2FUN", Points: 250, RemainingUses: "17"},
	})
	require.Contains(t, out, "WELCOME1: +100 (∞ left)")
	require.Contains(t, out, "CS2FUN: +250 (17 left)")
}

func TestRenderReferralProgress(t *testing.T) {
	out := renderReferralProgress(3)
	require.Contains(t, out, "3/5")
	require.Contains(t, out, "Bronze Recruiter")

	out = renderReferralProgress(100)
	require.Contains(t, out, "all milestones reached")
}

func TestNavigator(t *testing.T) {
	nav := NewNavigator()
	require.Equal(t, ScreenMain, nav.Current())

	refreshed := 0
	nav.OnOpen(ScreenInventory, func() { refreshed++ })

	nav.Open(ScreenCases)
	nav.Open(ScreenInventory)
	require.Equal(t, ScreenInventory, nav.Current())
	require.Equal(t, 1, refreshed)

	require.Equal(t, ScreenMain, nav.Back(), "back always lands on the overview")
	require.Equal(t, ScreenMain, nav.Back(), "back on the overview is a no-op")

	nav.Open(ScreenMain)
	require.Equal(t, ScreenMain, nav.Current(), "reopening the current screen is a no-op")
}

func newDemoApp(t *testing.T) *App {
	t.Helper()
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sim := NewSimulator(func() time.Time { return current }, 42)
	return NewApp(nil, sim)
}

func TestAppStartsInDemoWithoutSession(t *testing.T) {
	app := newDemoApp(t)
	require.True(t, app.Demo)
	require.Equal(t, 1500, app.State.Balance)
	require.NotEmpty(t, app.Notices)
}

func TestAppDemoOperations(t *testing.T) {
	app := newDemoApp(t)
	ctx := context.Background()

	resp, err := app.OpenCase(ctx, 500)
	require.NoError(t, err)
	require.True(t, resp.Demo)
	require.Equal(t, 1000, app.State.Balance)
	require.Len(t, app.State.Inventory, 4)

	bonus, err := app.ClaimDailyBonus(ctx)
	require.NoError(t, err)
	require.Equal(t, 1000+bonus.Bonus, app.State.Balance)
	require.False(t, app.State.DailyBonusAvailable)
}

func TestAppFallsBackOnNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sim := NewSimulator(func() time.Time { return current }, 42)
	client := NewAPIClient(server.URL, guestSession())
	app := NewApp(client, sim)
	require.False(t, app.Demo)

	resp, err := app.OpenCase(context.Background(), 500)
	require.NoError(t, err, "network failure is absorbed by the simulator")
	require.True(t, resp.Demo)
	require.True(t, app.Demo)
	require.Equal(t, 1000, app.State.Balance)
	require.NotEmpty(t, app.Notices)
}

func TestAppSurfacesDomainErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"error":"INSUFFICIENT_FUNDS"}`))
	}))
	defer server.Close()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sim := NewSimulator(func() time.Time { return current }, 42)
	app := NewApp(NewAPIClient(server.URL, guestSession()), sim)

	_, err := app.OpenCase(context.Background(), 15000)
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, "INSUFFICIENT_FUNDS", remote.Code)
	require.False(t, app.Demo, "a server refusal is not a reason to go demo")
}

func TestAppWithdrawAll(t *testing.T) {
	app := newDemoApp(t)
	ctx := context.Background()

	_, err := app.WithdrawAll(ctx)
	require.ErrorIs(t, err, ErrTradeLinkRequired)

	require.NoError(t, app.SetTradeLink(ctx, "https://steamcommunity.com/tradeoffer/new/?partner=1&token=t"))

	withdrawn, err := app.WithdrawAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, withdrawn)
	require.Empty(t, app.State.Inventory)
}
