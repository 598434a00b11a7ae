package main

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Screen string

const (
	ScreenMain      Screen = "main"
	ScreenCases     Screen = "cases"
	ScreenInventory Screen = "inventory"
	ScreenEarn      Screen = "earn"
	ScreenProfile   Screen = "profile"
	ScreenPromos    Screen = "promos"
)

// Navigator tracks which single section is visible. There is deliberately no
// history stack: opening a section hides everything else, and Back always
// lands on the overview. Opening runs the section's refresh hook when one is
// registered; unknown screens are tolerated so partial UIs keep working.
type Navigator struct {
	current Screen
	refresh map[Screen]func()
}

func NewNavigator() *Navigator {
	return &Navigator{
		current: ScreenMain,
		refresh: map[Screen]func(){},
	}
}

func (n *Navigator) Current() Screen { return n.current }

func (n *Navigator) OnOpen(s Screen, hook func()) { n.refresh[s] = hook }

func (n *Navigator) Open(s Screen) {
	if s == n.current {
		return
	}
	n.current = s
	if hook, ok := n.refresh[s]; ok && hook != nil {
		hook()
	}
}

func (n *Navigator) Back() Screen {
	n.Open(ScreenMain)
	return n.current
}

// formatPoints renders a balance with thin-space thousands grouping, the way
// the shop prices read in the app.
func formatPoints(n int) string {
	negative := n < 0
	if negative {
		n = -n
	}
	digits := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(d)
	}
	if negative {
		return "-" + b.String()
	}
	return b.String()
}

// formatCountdown renders the time until the next daily bonus as HH:MM:SS,
// clamped at zero.
func formatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

func renderBalance(points int) string {
	return formatPoints(points) + " pts"
}

// renderInventory lists available items newest first, optionally filtered by
// rarity. Filter misses render as an explicit empty notice, not a blank.
func renderInventory(items []Item, rarityFilter string) string {
	var lines []string
	for _, item := range items {
		if rarityFilter != "" && item.Rarity != rarityFilter {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s [%s] — %s", item.Name, item.Rarity, renderBalance(item.Price)))
	}
	if len(lines) == 0 {
		return "inventory is empty"
	}
	return strings.Join(lines, "\n")
}

func renderPromoList(promos []PromoView) string {
	if len(promos) == 0 {
		return "no promo codes available"
	}
	var lines []string
	for _, promo := range promos {
		lines = append(lines, fmt.Sprintf("%s: +%s (%s left)", promo.Code, formatPoints(promo.Points), promo.RemainingUses))
	}
	return strings.Join(lines, "\n")
}

// renderReferralProgress draws the bar toward the next milestone. Past the
// last milestone there is nothing left to fill.
func renderReferralProgress(count int) string {
	next := nextMilestone(count)
	if next == nil {
		return fmt.Sprintf("%d invited — all milestones reached", count)
	}
	const width = 10
	filled := count * width / next.Threshold
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %d/%d → %s (+%s)", bar, count, next.Threshold, next.Badge, formatPoints(next.Bonus))
}

// App drives the client: each action goes to the server once, and on a
// recoverable failure (network down, credentials rejected) the app flips to
// demo mode and replays the action on the local simulator.
type App struct {
	Client  *APIClient
	Sim     *Simulator
	Nav     *Navigator
	State   AppState
	Demo    bool
	Notices []string
}

func NewApp(client *APIClient, sim *Simulator) *App {
	app := &App{
		Client: client,
		Sim:    sim,
		Nav:    NewNavigator(),
	}
	if client == nil || client.Session.Kind == SessionDemo || client.Session.Kind == SessionNone {
		app.enterDemo()
	}
	return app
}

func (a *App) enterDemo() {
	if a.Demo {
		return
	}
	a.Demo = true
	a.State = a.Sim.State()
	a.Notices = append(a.Notices, "server unavailable, switched to demo mode")
}

// fallback decides whether a failed remote call should flip the app into
// demo mode. Domain refusals (insufficient funds, already claimed) are shown
// to the user as-is.
func (a *App) fallback(err error) bool {
	if recoverable(err) {
		a.enterDemo()
		return true
	}
	return false
}

func (a *App) Refresh(ctx context.Context) error {
	if !a.Demo {
		resp, err := a.Client.FetchUser(ctx)
		if err == nil {
			a.applySnapshot(resp)
			return nil
		}
		if !a.fallback(err) {
			return err
		}
	}
	snapshot := a.Sim.Snapshot()
	a.applySnapshot(&snapshot)
	return nil
}

func (a *App) applySnapshot(resp *UserResponse) {
	a.State.User = TelegramUser{
		ID:        resp.User.TelegramID,
		FirstName: resp.User.FirstName,
		Username:  resp.User.Username,
	}
	a.State.Balance = resp.User.Points
	a.State.Inventory = resp.Inventory
	a.State.ReferralCode = resp.User.ReferralCode
	a.State.TradeLink = resp.User.TradeLink
	a.State.DailyBonusAvailable = resp.DailyBonusAvailable
	if resp.NextBonusTime != nil {
		a.State.LastBonusTime = resp.NextBonusTime.Add(-dailyBonusWindow)
		a.State.BonusClaimed = true
	}
}

func (a *App) OpenCase(ctx context.Context, price int) (*OpenCaseResponse, error) {
	if !a.Demo {
		resp, err := a.Client.OpenCase(ctx, price)
		if err == nil {
			a.State.Balance = resp.NewBalance
			a.State.Inventory = resp.Inventory
			return resp, nil
		}
		if !a.fallback(err) {
			return nil, err
		}
	}
	resp, err := a.Sim.OpenCase(price)
	if err != nil {
		return nil, err
	}
	a.State.Balance = resp.NewBalance
	a.State.Inventory = resp.Inventory
	return resp, nil
}

func (a *App) ClaimDailyBonus(ctx context.Context) (*DailyBonusResponse, error) {
	if !a.Demo {
		resp, err := a.Client.ClaimDailyBonus(ctx)
		if err == nil {
			a.State.Balance = resp.NewBalance
			a.State.DailyBonusAvailable = false
			return resp, nil
		}
		if !a.fallback(err) {
			return nil, err
		}
	}
	resp, err := a.Sim.ClaimDailyBonus()
	if err != nil {
		return nil, err
	}
	a.State.Balance = resp.NewBalance
	a.State.DailyBonusAvailable = false
	return resp, nil
}

func (a *App) ActivatePromo(ctx context.Context, code string) (*PromoResponse, error) {
	if !a.Demo {
		resp, err := a.Client.ActivatePromo(ctx, code)
		if err == nil {
			a.State.Balance = resp.NewBalance
			return resp, nil
		}
		if !a.fallback(err) {
			return nil, err
		}
	}
	resp, err := a.Sim.ActivatePromo(code)
	if err != nil {
		return nil, err
	}
	a.State.Balance = resp.NewBalance
	return resp, nil
}

func (a *App) SetTradeLink(ctx context.Context, link string) error {
	if !a.Demo {
		resp, err := a.Client.SetTradeLink(ctx, link)
		if err == nil {
			a.State.TradeLink = resp.TradeLink
			return nil
		}
		if !a.fallback(err) {
			return err
		}
	}
	resp, err := a.Sim.SetTradeLink(link)
	if err != nil {
		return err
	}
	a.State.TradeLink = resp.TradeLink
	return nil
}

func (a *App) WithdrawItem(ctx context.Context, itemID string) (*WithdrawResponse, error) {
	if !a.Demo {
		resp, err := a.Client.WithdrawItem(ctx, itemID)
		if err == nil {
			a.State.Inventory = resp.Inventory
			return resp, nil
		}
		if !a.fallback(err) {
			return nil, err
		}
	}
	resp, err := a.Sim.WithdrawItem(itemID)
	if err != nil {
		return nil, err
	}
	a.State.Inventory = resp.Inventory
	return resp, nil
}

// WithdrawAll drains the inventory one item at a time and stops on the first
// failure, leaving the rest untouched.
func (a *App) WithdrawAll(ctx context.Context) (int, error) {
	withdrawn := 0
	for {
		items := a.State.Inventory
		if len(items) == 0 {
			return withdrawn, nil
		}
		if _, err := a.WithdrawItem(ctx, items[0].ID); err != nil {
			return withdrawn, err
		}
		withdrawn++
	}
}
