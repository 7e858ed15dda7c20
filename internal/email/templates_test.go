package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWelcomeTemplate(t *testing.T) {
	body, err := render(welcomeTemplate, map[string]any{
		"Name":         "Linda",
		"ReferralCode": "LIND123",
		"ReferralLink": "http://localhost:3000/register?r=LIND123",
	})
	require.NoError(t, err)

	assert.Contains(t, body, "Linda")
	assert.Contains(t, body, "LIND123")
	assert.Contains(t, body, "http://localhost:3000/register?r=LIND123")
}

func TestReferralConversionTemplate(t *testing.T) {
	body, err := render(referralConversionTemplate, map[string]any{
		"ReferrerID":    "U-000001",
		"BuyerEmail":    "marc@example.com",
		"CreditsEarned": 2,
	})
	require.NoError(t, err)

	assert.Contains(t, body, "U-000001")
	assert.Contains(t, body, "marc@example.com")
	assert.Contains(t, body, "2")
}

func TestTemplatesEscapeHTML(t *testing.T) {
	body, err := render(welcomeTemplate, map[string]any{
		"Name":         "<script>alert(1)</script>",
		"ReferralCode": "XXXX123",
		"ReferralLink": "http://localhost:3000/register?r=XXXX123",
	})
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>")
}
