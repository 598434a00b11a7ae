package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSteamLevelBonus(t *testing.T) {
	require.Equal(t, 0, steamLevelBonus(0))
	require.Equal(t, 0, steamLevelBonus(9))
	require.Equal(t, 500, steamLevelBonus(10))
	require.Equal(t, 500, steamLevelBonus(24))
	require.Equal(t, 1500, steamLevelBonus(25))
	require.Equal(t, 3000, steamLevelBonus(50))
	require.Equal(t, 3000, steamLevelBonus(120))
}

func TestTelegramProfileVerified(t *testing.T) {
	require.True(t, telegramProfileVerified(TelegramUser{FirstName: "Ivan", LastName: "RANWORK"}))
	require.True(t, telegramProfileVerified(TelegramUser{FirstName: "ranwork fan"}))
	require.True(t, telegramProfileVerified(TelegramUser{FirstName: "Ivan", Username: "ivan_ranwork"}))
	require.False(t, telegramProfileVerified(TelegramUser{FirstName: "Ivan", LastName: "Petrov"}))
	require.False(t, telegramProfileVerified(TelegramUser{}))
}
