package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testBotToken = "12345:test-bot-token"

// signInitData builds a valid initData query string the way the host
// platform does.
func signInitData(t *testing.T, botToken string, values url.Values) string {
	t.Helper()

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, key+"="+values.Get(key))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))

	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}

func testInitDataValues(authDate time.Time) url.Values {
	values := url.Values{}
	values.Set("user", `{"id":99887766,"first_name":"Ran","username":"ranwork_user"}`)
	values.Set("auth_date", fmt.Sprintf("%d", authDate.Unix()))
	values.Set("query_id", "AAE3test")
	return values
}

func TestValidateInitData(t *testing.T) {
	now := time.Now()
	initData := signInitData(t, testBotToken, testInitDataValues(now))

	user, err := validateInitData(initData, testBotToken, now)
	require.NoError(t, err)
	require.Equal(t, int64(99887766), user.ID)
	require.Equal(t, "Ran", user.FirstName)
	require.Equal(t, "ranwork_user", user.Username)
}

func TestValidateInitDataWrongToken(t *testing.T) {
	now := time.Now()
	initData := signInitData(t, "999:other-token", testInitDataValues(now))

	_, err := validateInitData(initData, testBotToken, now)
	require.ErrorIs(t, err, ErrAuthRequired)
}

func TestValidateInitDataTampered(t *testing.T) {
	now := time.Now()
	initData := signInitData(t, testBotToken, testInitDataValues(now))
	initData = strings.Replace(initData, "99887766", "11111111", 1)

	_, err := validateInitData(initData, testBotToken, now)
	require.ErrorIs(t, err, ErrAuthRequired)
}

func TestValidateInitDataStale(t *testing.T) {
	now := time.Now()
	initData := signInitData(t, testBotToken, testInitDataValues(now.Add(-25*time.Hour)))

	_, err := validateInitData(initData, testBotToken, now)
	require.ErrorIs(t, err, ErrAuthRequired)
}

func TestValidateInitDataMissingHash(t *testing.T) {
	values := testInitDataValues(time.Now())
	_, err := validateInitData(values.Encode(), testBotToken, time.Now())
	require.ErrorIs(t, err, ErrAuthRequired)
}

func TestGuestTokenRoundTrip(t *testing.T) {
	now := time.Now()
	token, err := mintGuestToken("secret", 5551234, now)
	require.NoError(t, err)

	guestID, err := parseGuestToken("secret", token)
	require.NoError(t, err)
	require.Equal(t, int64(5551234), guestID)
}

func TestGuestTokenWrongSecret(t *testing.T) {
	token, err := mintGuestToken("secret", 5551234, time.Now())
	require.NoError(t, err)

	_, err = parseGuestToken("other-secret", token)
	require.ErrorIs(t, err, ErrAuthRequired)
}

func TestNewGuestID(t *testing.T) {
	seen := map[int64]bool{}
	for i := 0; i < 100; i++ {
		id, err := newGuestID()
		require.NoError(t, err)
		require.GreaterOrEqual(t, id, int64(1_000_000_000))
		require.False(t, seen[id])
		seen[id] = true
	}
}
