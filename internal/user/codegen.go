package user

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode"
)

// userIDPrefix precedes the zero-padded sequence number in every user id,
// e.g. U-000001.
const userIDPrefix = "U-"

// NextUserID returns the id following lastID in the sequential scheme.
// An empty lastID starts the sequence at U-000001.
func NextUserID(lastID string) (string, error) {
	current := 0
	if lastID != "" {
		suffix := strings.TrimPrefix(lastID, userIDPrefix)
		n, err := strconv.Atoi(suffix)
		if err != nil {
			return "", fmt.Errorf("malformed user id %q: %w", lastID, err)
		}
		current = n
	}

	return fmt.Sprintf("%s%06d", userIDPrefix, current+1), nil
}

// GenerateReferralCode builds a short public code from the user's name:
// the first four letters uppercased (non-letters become 'X') followed by a
// three-digit random number, e.g. LINA123. Uniqueness is not checked here;
// the unique constraint on referral_code is the backstop and a collision
// surfaces as a creation conflict.
func GenerateReferralCode(name string) string {
	runes := []rune(name)
	if len(runes) > 4 {
		runes = runes[:4]
	}

	var b strings.Builder
	for _, r := range runes {
		upper := unicode.ToUpper(r)
		if upper >= 'A' && upper <= 'Z' {
			b.WriteRune(upper)
		} else {
			b.WriteByte('X')
		}
	}

	return fmt.Sprintf("%s%d", b.String(), 100+rand.IntN(900))
}
