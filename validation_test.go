package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePromoCode(t *testing.T) {
	require.Equal(t, "WELCOME1", normalizePromoCode("  welcome1 "))
	require.Equal(t, "1JKLM", normalizePromoCode("1jklm"))
}

func TestIsValidPromoCode(t *testing.T) {
	require.True(t, isValidPromoCode("WELCOME1"))
	require.True(t, isValidPromoCode("ABC"))
	require.False(t, isValidPromoCode("ab"))
	require.False(t, isValidPromoCode("has space"))
	require.False(t, isValidPromoCode(""))
	require.False(t, isValidPromoCode("lowercase"))
}

func TestValidateTradeLink(t *testing.T) {
	require.True(t, validateTradeLink("https://steamcommunity.com/tradeoffer/new/?partner=12345&token=abc-def"))
	require.True(t, validateTradeLink("steamcommunity.com/tradeoffer/new/?partner=1"))
	require.False(t, validateTradeLink("https://example.com/tradeoffer"))
	require.False(t, validateTradeLink(""))
}

func TestIsCanonicalTradeLink(t *testing.T) {
	require.True(t, isCanonicalTradeLink("https://steamcommunity.com/tradeoffer/new/?partner=12345&token=abc-def"))
	require.True(t, isCanonicalTradeLink("https://steamcommunity.com/tradeoffer/new/?partner=12345"))
	require.False(t, isCanonicalTradeLink("https://steamcommunity.com/tradeoffer/new/"))
	require.False(t, isCanonicalTradeLink("steamcommunity.com/tradeoffer/ junk"))
}

func TestExtractSteamID(t *testing.T) {
	require.Equal(t, "76561198000000000", extractSteamID("https://steamcommunity.com/profiles/76561198000000000"))
	require.Equal(t, "ranwork", extractSteamID("https://steamcommunity.com/id/ranwork/"))
	require.Equal(t, "", extractSteamID("https://example.com/profiles/123"))
}
