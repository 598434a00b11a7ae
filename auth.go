package main

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	initDataMaxAge = 24 * time.Hour
	guestTokenTTL  = 7 * 24 * time.Hour

	hostAuthPrefix   = "tma "
	guestTokenHeader = "X-Guest-Token"
)

// TelegramUser is the identity blob the host platform embeds in initData.
type TelegramUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	PhotoURL     string `json:"photo_url,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

func (u TelegramUser) DisplayName() string {
	if u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.FirstName
}

// validateInitData checks the host platform signature over the initData
// query string: HMAC-SHA256 with a secret derived from the bot token, over
// the sorted key=value lines with the hash field removed.
func validateInitData(initData string, botToken string, now time.Time) (*TelegramUser, error) {
	if botToken == "" {
		return nil, ErrAuthRequired
	}
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, ErrAuthRequired
	}
	providedHash := values.Get("hash")
	if providedHash == "" {
		return nil, ErrAuthRequired
	}
	values.Del("hash")

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, key+"="+values.Get(key))
	}
	checkString := strings.Join(lines, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	computed := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(computed), []byte(providedHash)) {
		return nil, ErrAuthRequired
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil || now.Sub(time.Unix(authDate, 0)) > initDataMaxAge {
		return nil, ErrAuthRequired
	}

	var user TelegramUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID == 0 {
		return nil, ErrAuthRequired
	}
	return &user, nil
}

// Guest identities cover browsers outside the host platform. The server
// mints a signed token bound to a random pseudo-ID; the client sends it back
// as a header on every call.
func newGuestID() (int64, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return 0, err
	}
	id := int64(binary.BigEndian.Uint64(buf) >> 1)
	if id < 1_000_000_000 {
		id += 1_000_000_000
	}
	return id, nil
}

func mintGuestToken(secret string, guestID int64, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(guestID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(guestTokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func parseGuestToken(secret string, tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, ErrAuthRequired
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return 0, ErrAuthRequired
	}
	guestID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || guestID <= 0 {
		return 0, ErrAuthRequired
	}
	return guestID, nil
}

// requestIdentity resolves the caller from the credential headers: host
// initData first, then a guest token. The bool reports whether the identity
// is a guest pseudo-identity.
func requestIdentity(cfg Config, r *http.Request, now time.Time) (*TelegramUser, bool, error) {
	authorization := r.Header.Get("Authorization")
	if strings.HasPrefix(authorization, hostAuthPrefix) {
		user, err := validateInitData(strings.TrimPrefix(authorization, hostAuthPrefix), cfg.BotToken, now)
		if err != nil {
			return nil, false, err
		}
		return user, false, nil
	}

	if tokenString := r.Header.Get(guestTokenHeader); tokenString != "" {
		guestID, err := parseGuestToken(cfg.GuestSecret, tokenString)
		if err != nil {
			return nil, false, err
		}
		return &TelegramUser{ID: guestID, FirstName: "Guest"}, true, nil
	}

	return nil, false, ErrAuthRequired
}
