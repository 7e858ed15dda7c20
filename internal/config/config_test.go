package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPasetoKey = "01234567890123456789012345678901"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PASETO_KEY", testPasetoKey)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, 2, cfg.Rewards.CreditAward)
	assert.Equal(t, "Digital Product", cfg.Rewards.DefaultProductName)
	assert.Equal(t, 10.0, cfg.Rewards.DefaultAmount)
}

func TestLoadRejectsBadPasetoKey(t *testing.T) {
	t.Setenv("PASETO_KEY", "too-short")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNegativeAward(t *testing.T) {
	t.Setenv("PASETO_KEY", testPasetoKey)
	t.Setenv("REFERRAL_CREDIT_AWARD", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestTrustedOriginsParsing(t *testing.T) {
	t.Setenv("PASETO_KEY", testPasetoKey)
	t.Setenv("TRUSTED_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.TrustedOrigins)
}

func TestConnectionString(t *testing.T) {
	dbCfg := DatabaseConfig{
		Host: "db", Port: "5432", User: "app", Password: "pw",
		DBName: "referral_rewards", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=db port=5432 user=app password=pw dbname=referral_rewards sslmode=disable",
		dbCfg.ConnectionString(),
	)

	dbCfg.ChannelBinding = "require"
	assert.Contains(t, dbCfg.ConnectionString(), "channel_binding=require")
}

func TestReferralLink(t *testing.T) {
	emailCfg := EmailConfig{FrontendURL: "https://app.example.com"}
	assert.Equal(t, "https://app.example.com/register?r=LIND123", emailCfg.ReferralLink("LIND123"))
}
