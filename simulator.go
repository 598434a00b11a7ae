package main

import (
	"math/rand"
	"sync"
	"time"
)

// AppState is the client-side snapshot the simulator mutates and the frontend
// renders. In demo mode it is the only source of truth.
type AppState struct {
	User                TelegramUser
	Balance             int
	Inventory           []Item
	LastBonusTime       time.Time
	BonusClaimed        bool
	UsedPromoCodes      map[string]bool
	ReferralCode        string
	TradeLink           string
	ReferralsCount      int
	MilestonesAwarded   map[int]bool
	DailyBonusAvailable bool
}

// simulatorPromos is the fixed demo promo table. Amounts mirror the seeded
// server codes so demo mode feels like the real thing.
var simulatorPromos = map[string]int{
	"WELCOME1": 100,
	"MINI1":    50,
	"1JKLM":    100,
	"RWTUBE":   250,
	"INSTRW":   250,
	"VKRAN":    250,
}

// Simulator replays the economy locally when the server is unreachable.
// One operation at a time; a second call while one is in flight fails fast.
type Simulator struct {
	mu       sync.Mutex
	inFlight bool
	now      func() time.Time
	rng      *rand.Rand
	state    AppState
}

func NewSimulator(now func() time.Time, seed int64) *Simulator {
	if now == nil {
		now = time.Now
	}
	return &Simulator{
		now:   now,
		rng:   rand.New(rand.NewSource(seed)),
		state: demoState(now()),
	}
}

// demoState seeds the out-of-the-box demo account.
func demoState(now time.Time) AppState {
	return AppState{
		User:         TelegramUser{ID: 123456789, FirstName: "Demo", Username: "demo_user"},
		Balance:      1500,
		ReferralCode: "ref_123456789",
		Inventory: []Item{
			{ID: "demo-1", Name: "Sticker | Hypnoteyes", Type: ItemTypeSticker, Rarity: RarityLegendary, Price: 15000, CasePrice: 15000, ReceivedAt: now.Add(-48 * time.Hour)},
			{ID: "demo-2", Name: "Sticker | XD", Type: ItemTypeSticker, Rarity: RarityRare, Price: 11000, CasePrice: 5000, ReceivedAt: now.Add(-24 * time.Hour)},
			{ID: "demo-3", Name: "Sticker | ENCE", Type: ItemTypeSticker, Rarity: RarityCommon, Price: 400, CasePrice: 500, ReceivedAt: now.Add(-1 * time.Hour)},
		},
		UsedPromoCodes:      map[string]bool{},
		MilestonesAwarded:   map[int]bool{},
		DailyBonusAvailable: true,
	}
}

// begin claims the in-flight slot. Callers must invoke the returned release
// exactly once.
func (s *Simulator) begin() (func(), error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.inFlight = true
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}, nil
}

func (s *Simulator) State() AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.state
	snapshot.Inventory = append([]Item(nil), s.state.Inventory...)
	snapshot.UsedPromoCodes = make(map[string]bool, len(s.state.UsedPromoCodes))
	for code := range s.state.UsedPromoCodes {
		snapshot.UsedPromoCodes[code] = true
	}
	snapshot.MilestonesAwarded = make(map[int]bool, len(s.state.MilestonesAwarded))
	for threshold := range s.state.MilestonesAwarded {
		snapshot.MilestonesAwarded[threshold] = true
	}
	return snapshot
}

func (s *Simulator) Snapshot() UserResponse {
	state := s.State()
	now := s.now()
	resp := UserResponse{
		Success: true,
		User: UserView{
			TelegramID:   state.User.ID,
			FirstName:    state.User.FirstName,
			Username:     state.User.Username,
			Points:       state.Balance,
			ReferralCode: state.ReferralCode,
			TradeLink:    state.TradeLink,
		},
		Inventory:           state.Inventory,
		DailyBonusAvailable: s.bonusAvailable(state, now),
		Demo:                true,
	}
	if state.BonusClaimed {
		next := state.LastBonusTime.Add(dailyBonusWindow)
		resp.NextBonusTime = &next
	}
	return resp
}

func (s *Simulator) bonusAvailable(state AppState, now time.Time) bool {
	if !state.BonusClaimed {
		return true
	}
	return now.Sub(state.LastBonusTime) >= dailyBonusWindow
}

func (s *Simulator) OpenCase(price int) (*OpenCaseResponse, error) {
	release, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()

	if price <= 0 {
		return nil, ErrNotFound
	}
	if s.state.Balance < price {
		return nil, ErrInsufficientFunds
	}

	item := rollCase(s.rng, price, s.now())
	s.state.Balance -= price
	s.state.Inventory = append([]Item{item}, s.state.Inventory...)

	return &OpenCaseResponse{
		Success:    true,
		Item:       item.Name,
		ItemPrice:  item.Price,
		ItemType:   item.Type,
		ItemRarity: item.Rarity,
		NewBalance: s.state.Balance,
		Inventory:  append([]Item(nil), s.state.Inventory...),
		Demo:       true,
	}, nil
}

func (s *Simulator) ClaimDailyBonus() (*DailyBonusResponse, error) {
	release, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !s.bonusAvailable(s.state, now) {
		return nil, ErrAlreadyClaimed
	}

	settings := defaultSettings()
	bonus := settings.DailyBonusMin + s.rng.Intn(settings.DailyBonusMax-settings.DailyBonusMin+1)
	s.state.Balance += bonus
	s.state.LastBonusTime = now
	s.state.BonusClaimed = true
	s.state.DailyBonusAvailable = false

	return &DailyBonusResponse{
		Success:       true,
		Bonus:         bonus,
		NewBalance:    s.state.Balance,
		NextBonusTime: now.Add(dailyBonusWindow),
		Demo:          true,
	}, nil
}

func (s *Simulator) ActivatePromo(rawCode string) (*PromoResponse, error) {
	release, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()

	code := normalizePromoCode(rawCode)
	points, ok := simulatorPromos[code]
	if !ok {
		return nil, ErrInvalidCode
	}
	if s.state.UsedPromoCodes[code] {
		return nil, ErrAlreadyRedeemed
	}

	s.state.UsedPromoCodes[code] = true
	s.state.Balance += points

	return &PromoResponse{
		Success:    true,
		Points:     points,
		NewBalance: s.state.Balance,
		Demo:       true,
	}, nil
}

func (s *Simulator) SetTradeLink(link string) (*TradeLinkResponse, error) {
	release, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !validateTradeLink(link) {
		return nil, ErrInvalidFormat
	}
	s.state.TradeLink = link

	return &TradeLinkResponse{Success: true, TradeLink: link, Demo: true}, nil
}

func (s *Simulator) WithdrawItem(itemID string) (*WithdrawResponse, error) {
	release, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.TradeLink == "" {
		return &WithdrawResponse{RequiresTradeLink: true, Demo: true}, ErrTradeLinkRequired
	}

	index := -1
	for i := range s.state.Inventory {
		if s.state.Inventory[i].ID == itemID {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, ErrNotFound
	}

	s.state.Inventory = append(s.state.Inventory[:index], s.state.Inventory[index+1:]...)

	return &WithdrawResponse{
		Success:   true,
		Inventory: append([]Item(nil), s.state.Inventory...),
		Demo:      true,
	}, nil
}

// CreditReferral replays an accepted invite locally: flat reward per invite
// plus any milestone crossed, each milestone at most once.
func (s *Simulator) CreditReferral() (int, error) {
	release, err := s.begin()
	if err != nil {
		return 0, err
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()

	settings := defaultSettings()
	before := s.state.ReferralsCount
	s.state.ReferralsCount++

	credit := settings.ReferralReward
	if m := milestoneReached(before, s.state.ReferralsCount); m != nil && !s.state.MilestonesAwarded[m.Threshold] {
		s.state.MilestonesAwarded[m.Threshold] = true
		credit += m.Bonus
	}
	s.state.Balance += credit
	return credit, nil
}
