package main

import (
	"fmt"
	"net/url"
	"time"

	"payform-backend/lib/configutil"
	"payform-backend/lib/sqliteutil"
	"payform-backend/lib/telemetry"
	"payform-backend/services/paylink"
	"payform-backend/services/paymentform"
)

type ServerConfig struct {
	Port          int    `json:"port"`
	PublicBaseUrl string `json:"public_base_url"`
	AllowedOrigin string `json:"allowed_origin"`
}

type AuctionSiteConfig struct {
	BaseUrl           string   `json:"base_url"`
	Timeout           string   `json:"timeout"`
	RequestsPerSecond float64  `json:"requests_per_second"`
	CloudflareBypass  bool     `json:"cloudflare_bypass"`
	StatementPaths    []string `json:"statement_paths"`
	Timezone          string   `json:"timezone"`
	AdminUsername     string   `json:"admin_username"`
	AdminPassword     string   `json:"admin_password"`
}

type TokensConfig struct {
	SigningSecret  string `json:"signing_secret"`
	StaffTokenTTL  string `json:"staff_token_ttl"`
	PaymentLinkTTL string `json:"payment_link_ttl"`
}

type PaymentsConfig struct {
	EncryptionKey string `json:"encryption_key"`
}

type SessionCacheConfig struct {
	Size int    `json:"size"`
	TTL  string `json:"ttl"`
}

type Config struct {
	Server       ServerConfig           `json:"server"`
	AuctionSite  AuctionSiteConfig      `json:"auction_site"`
	Tokens       TokensConfig           `json:"tokens"`
	Staff        []paylink.StaffAccount `json:"staff"`
	Smtp         paylink.SmtpConfig     `json:"smtp"`
	Database     sqliteutil.Config      `json:"database"`
	Payments     PaymentsConfig         `json:"payments"`
	SessionCache SessionCacheConfig     `json:"session_cache"`
	Telemetry    telemetry.Config       `json:"telemetry"`
}

// overrideFromEnv lets secrets live outside of the config file.
func (c *Config) overrideFromEnv() {
	configutil.OverrideFromEnv(&c.Tokens.SigningSecret, "PAYFORM_SIGNING_SECRET")
	configutil.OverrideFromEnv(&c.AuctionSite.AdminPassword, "PAYFORM_ADMIN_PASSWORD")
	configutil.OverrideFromEnv(&c.Smtp.Password, "PAYFORM_SMTP_PASSWORD")
	configutil.OverrideFromEnv(&c.Payments.EncryptionKey, "PAYFORM_ENCRYPTION_KEY")
}

// parseDuration parses an optional duration, the zero value means "use the default".
func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", paylink.ErrConfig, field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", paylink.ErrConfig, field)
	}
	return d, nil
}

func (c Config) Validate() error {
	if c.Server.PublicBaseUrl == "" {
		return fmt.Errorf("%w: server.public_base_url is required", paylink.ErrConfig)
	}
	parsed, err := url.Parse(c.Server.PublicBaseUrl)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%w: server.public_base_url must be an absolute url", paylink.ErrConfig)
	}
	if c.AuctionSite.BaseUrl == "" {
		return fmt.Errorf("%w: auction_site.base_url is required", paylink.ErrConfig)
	}
	if c.Tokens.SigningSecret == "" {
		return fmt.Errorf("%w: tokens.signing_secret is required", paylink.ErrConfig)
	}
	if (c.AuctionSite.AdminUsername == "") != (c.AuctionSite.AdminPassword == "") {
		return fmt.Errorf("%w: auction_site.admin_username and admin_password must be set together", paylink.ErrConfig)
	}
	if c.AuctionSite.AdminUsername != "" && len(c.Staff) == 0 {
		return fmt.Errorf("%w: staff accounts are required when admin credentials are configured", paylink.ErrConfig)
	}
	for i, account := range c.Staff {
		if account.Username == "" || account.PasswordHash == "" {
			return fmt.Errorf("%w: staff[%d] needs a username and password_hash", paylink.ErrConfig, i)
		}
	}
	if _, err := paymentform.NewSealer(c.Payments.EncryptionKey); err != nil {
		return fmt.Errorf("%w: payments.encryption_key: %w", paylink.ErrConfig, err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("%w: %w", paylink.ErrConfig, err)
	}

	durations := map[string]string{
		"auction_site.timeout":    c.AuctionSite.Timeout,
		"tokens.staff_token_ttl":  c.Tokens.StaffTokenTTL,
		"tokens.payment_link_ttl": c.Tokens.PaymentLinkTTL,
		"session_cache.ttl":       c.SessionCache.TTL,
	}
	for field, value := range durations {
		if _, err := parseDuration(field, value); err != nil {
			return err
		}
	}
	return nil
}

// readConfig reads and validates the configuration at `path`.
func readConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	cfg.overrideFromEnv()
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	return cfg, cfg.Validate()
}
