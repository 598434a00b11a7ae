package main

import (
	"regexp"
	"strings"
)

const tradeLinkMarker = "steamcommunity.com/tradeoffer/"

var (
	promoCodePattern = regexp.MustCompile(`^[A-Z0-9]{3,32}$`)

	tradeLinkPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^https?://steamcommunity\.com/tradeoffer/new/\?partner=\d+&token=[\w-]+$`),
		regexp.MustCompile(`^https?://steamcommunity\.com/tradeoffer/new/\?partner=\d+$`),
	}

	steamProfilePatterns = []*regexp.Regexp{
		regexp.MustCompile(`steamcommunity\.com/profiles/(\d+)`),
		regexp.MustCompile(`steamcommunity\.com/id/([^/?]+)`),
	}
)

func normalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func isValidPromoCode(code string) bool {
	return promoCodePattern.MatchString(code)
}

// validateTradeLink accepts anything carrying the trade-offer marker; the
// strict patterns only decide whether the link counts as fully formed.
func validateTradeLink(link string) bool {
	return strings.Contains(link, tradeLinkMarker)
}

func isCanonicalTradeLink(link string) bool {
	for _, pattern := range tradeLinkPatterns {
		if pattern.MatchString(link) {
			return true
		}
	}
	return false
}

func extractSteamID(profileURL string) string {
	for _, pattern := range steamProfilePatterns {
		if match := pattern.FindStringSubmatch(profileURL); match != nil {
			return match[1]
		}
	}
	return ""
}
