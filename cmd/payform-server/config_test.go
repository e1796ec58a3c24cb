package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"payform-backend/services/paylink"

	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

const baseConfig = `{
  server: { public_base_url: "https://pay.example.com" },
  auction_site: { base_url: "https://bid.example.com", timeout: "10s" },
  tokens: { signing_secret: "file-secret", payment_link_ttl: "48h" },
  smtp: { server: "smtp.example.com", email_address: "payments@example.com" },
  database: { file: "payform.db" },
  payments: { encryption_key: "` + testKey + `" },
}`

func writeConfig(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, contents := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0600))
	}
	return filepath.Join(dir, "config.json5")
}

func TestReadConfig(t *testing.T) {
	path := writeConfig(t, map[string]string{
		"config.json5":       baseConfig,
		"config.local.json5": `{ session_cache: { size: 16, ttl: "5m" } }`,
	})

	cfg, err := readConfig(path)
	require.NoError(t, err)
	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "file-secret", cfg.Tokens.SigningSecret)
	require.Equal(t, "https://bid.example.com", cfg.AuctionSite.BaseUrl)
	require.Equal(t, 16, cfg.SessionCache.Size)
	require.Equal(t, "5m", cfg.SessionCache.TTL)
}

func TestReadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, map[string]string{"config.json5": baseConfig})
	t.Setenv("PAYFORM_SIGNING_SECRET", "env-secret")
	t.Setenv("PAYFORM_SMTP_PASSWORD", "env-smtp")

	cfg, err := readConfig(path)
	require.NoError(t, err)
	require.Equal(t, "env-secret", cfg.Tokens.SigningSecret)
	require.Equal(t, "env-smtp", cfg.Smtp.Password)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := readConfig(filepath.Join(t.TempDir(), "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		local  string
		substr string
	}{
		{
			name:   "relative base url",
			local:  `{ server: { public_base_url: "/pay" } }`,
			substr: "public_base_url",
		},
		{
			name:   "short encryption key",
			local:  `{ payments: { encryption_key: "abcd" } }`,
			substr: "encryption_key",
		},
		{
			name:   "bad duration",
			local:  `{ tokens: { staff_token_ttl: "soon" } }`,
			substr: "staff_token_ttl",
		},
		{
			name:   "admin without staff",
			local:  `{ auction_site: { admin_username: "admin", admin_password: "pw" } }`,
			substr: "staff accounts",
		},
		{
			name:   "admin username only",
			local:  `{ auction_site: { admin_username: "admin" } }`,
			substr: "set together",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, map[string]string{
				"config.json5":       baseConfig,
				"config.local.json5": tc.local,
			})
			_, err := readConfig(path)
			require.ErrorIs(t, err, paylink.ErrConfig)
			require.True(t, strings.Contains(err.Error(), tc.substr), err.Error())
		})
	}
}
