package main

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

const (
	ItemTypeSticker     = "sticker"
	ItemTypeWeapon      = "weapon"
	ItemTypeCollectible = "collectible"
	ItemTypeCase        = "case"
	ItemTypeOther       = "other"
)

const (
	RarityCommon    = "common"
	RarityUncommon  = "uncommon"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

type Item struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Rarity     string    `json:"rarity"`
	Price      int       `json:"price"`
	CasePrice  int       `json:"case_price,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// CaseCandidate is one possible drop. The multiplier fixes the item value as
// a multiple of the case price, so payouts are deterministic per candidate;
// only the pick itself is random, uniform over the table.
type CaseCandidate struct {
	Name       string
	Type       string
	Rarity     string
	Multiplier float64
}

var caseTables = map[int][]CaseCandidate{
	500: {
		{"Sticker | ENCE", ItemTypeSticker, RarityCommon, 0.8},
		{"Sticker | Grayhound", ItemTypeSticker, RarityCommon, 1.2},
		{"Sticker | PGL", ItemTypeSticker, RarityCommon, 3.0},
	},
	3000: {
		{"Sticker | huNter", ItemTypeSticker, RarityUncommon, 0.8},
		{"FAMAS | Colony", ItemTypeWeapon, RarityUncommon, 1.5},
		{"UMP-45 | Scaffold", ItemTypeWeapon, RarityUncommon, 2.5},
	},
	5000: {
		{"Five-SeveN | Coolant", ItemTypeWeapon, RarityRare, 0.9},
		{"Sticker Capsule", ItemTypeCase, RarityRare, 1.4},
		{"Sticker | XD", ItemTypeSticker, RarityRare, 2.2},
	},
	10000: {
		{"Sticker | Clown Wig", ItemTypeSticker, RarityEpic, 0.8},
		{"Sticker | High Flight", ItemTypeSticker, RarityEpic, 1.6},
		{"Sticker | From The Deep (Glitter)", ItemTypeSticker, RarityEpic, 3.0},
	},
	15000: {
		{"Sticker | Hypnoteyes", ItemTypeSticker, RarityLegendary, 1.0},
		{"Sticker | Rainbow Route", ItemTypeSticker, RarityLegendary, 1.8},
		{"Charm | Pinch of Salt", ItemTypeCollectible, RarityLegendary, 3.0},
	},
}

var defaultCaseTable = []CaseCandidate{
	{"Sticker | ENCE", ItemTypeSticker, RarityCommon, 0.8},
}

func validCasePrice(price int) bool {
	_, ok := caseTables[price]
	return ok
}

func candidatesForPrice(price int) []CaseCandidate {
	if table, ok := caseTables[price]; ok {
		return table
	}
	return defaultCaseTable
}

func casePrices() []int {
	return []int{500, 3000, 5000, 10000, 15000}
}

// rollCase picks uniformly from the candidate table for the price. Drop odds
// are NOT weighted by rarity; the rarity tag is cosmetic per tier.
func rollCase(rng *rand.Rand, price int, now time.Time) Item {
	table := candidatesForPrice(price)
	candidate := table[rng.Intn(len(table))]
	return Item{
		ID:         uuid.NewString(),
		Name:       candidate.Name,
		Type:       candidate.Type,
		Rarity:     candidate.Rarity,
		Price:      int(float64(price) * candidate.Multiplier),
		CasePrice:  price,
		ReceivedAt: now,
	}
}
