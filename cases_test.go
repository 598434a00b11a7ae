package main

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRollCaseValueBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	now := time.Now()

	for _, price := range casePrices() {
		for i := 0; i < 50; i++ {
			item := rollCase(rng, price, now)
			require.NotEmpty(t, item.ID)
			require.NotEmpty(t, item.Name)
			require.Equal(t, price, item.CasePrice)
			require.GreaterOrEqual(t, item.Price, int(float64(price)*0.8))
			require.LessOrEqual(t, item.Price, price*3)
		}
	}
}

func TestRollCaseUniqueIDs(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	now := time.Now()

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		item := rollCase(rng, 500, now)
		require.False(t, seen[item.ID])
		seen[item.ID] = true
	}
}

func TestRollCaseMatchesTable(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	now := time.Now()

	candidates := map[string]CaseCandidate{}
	for _, c := range caseTables[5000] {
		candidates[c.Name] = c
	}

	for i := 0; i < 30; i++ {
		item := rollCase(rng, 5000, now)
		c, ok := candidates[item.Name]
		require.True(t, ok, "unknown drop %q", item.Name)
		require.Equal(t, c.Rarity, item.Rarity)
		require.Equal(t, c.Type, item.Type)
		require.Equal(t, int(5000*c.Multiplier), item.Price)
	}
}

func TestValidCasePrice(t *testing.T) {
	for _, price := range casePrices() {
		require.True(t, validCasePrice(price))
	}
	require.False(t, validCasePrice(0))
	require.False(t, validCasePrice(777))
	require.False(t, validCasePrice(-500))
}
