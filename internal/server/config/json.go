package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sku-codemong/codemong-Backend-02/internal/flagx"
	"github.com/sku-codemong/codemong-Backend-02/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file.
// Durations accept "15m", "7d", "5000ms", bare seconds or nanosecond numbers.
type JsonConfig struct {
	HTTPAddr              string         `json:"http_addr"`
	GRPCAddr              string         `json:"grpc_addr"`
	DatabaseDSN           string         `json:"database_dsn"`
	JWTAccessSecret       string         `json:"jwt_access_secret"`
	JWTRefreshSecret      string         `json:"jwt_refresh_secret"`
	AccessTokenTTL        timex.Duration `json:"access_token_ttl"`
	RefreshTokenTTL       timex.Duration `json:"refresh_token_ttl"`
	AllowedEmailDomains   []string       `json:"allowed_email_domains"`
	Environment           string         `json:"environment"`
	CookieDomain          string         `json:"cookie_domain"`
	CookieSameSite        string         `json:"cookie_same_site"`
	CookieSecure          *bool          `json:"cookie_secure"`
	BcryptCost            int            `json:"bcrypt_cost"`
	RedisAddr             string         `json:"redis_addr"`
	LoginMaxAttempts      int            `json:"login_max_attempts"`
	LoginWindow           timex.Duration `json:"login_window"`
	S3AccessKey           string         `json:"s3_access_key"`
	S3SecretKey           string         `json:"s3_secret_key"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
	S3PresignTTL          timex.Duration `json:"s3_presign_ttl"`
	LogFormat             string         `json:"log_format"`
	LogLevel              string         `json:"log_level"`
	TrustLogoutUserID     *bool          `json:"trust_logout_user_id"`
	RealtimeEnforceExpiry *bool          `json:"realtime_enforce_expiry"`
	RunMigrations         *bool          `json:"run_migrations"`
}

// parseJson overlays values from the file named by -c/-config. Absent keys
// keep whatever the earlier layers set.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.JWTAccessSecret, c.JWTAccessSecret)
	setString(&config.JWTRefreshSecret, c.JWTRefreshSecret)
	setDuration(&config.AccessTokenTTL, c.AccessTokenTTL)
	setDuration(&config.RefreshTokenTTL, c.RefreshTokenTTL)
	if c.AllowedEmailDomains != nil {
		config.AllowedEmailDomains = normalizeDomains(c.AllowedEmailDomains)
	}
	setString(&config.Environment, c.Environment)
	setString(&config.CookieDomain, c.CookieDomain)
	setString(&config.CookieSameSite, c.CookieSameSite)
	if c.CookieSecure != nil {
		v := *c.CookieSecure
		config.CookieSecure = &v
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	setString(&config.RedisAddr, c.RedisAddr)
	if c.LoginMaxAttempts != 0 {
		config.LoginMaxAttempts = c.LoginMaxAttempts
	}
	setDuration(&config.LoginWindow, c.LoginWindow)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDuration(&config.S3PresignTTL, c.S3PresignTTL)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)
	setBool(&config.TrustLogoutUserID, c.TrustLogoutUserID)
	setBool(&config.RealtimeEnforceExpiry, c.RealtimeEnforceExpiry)
	setBool(&config.RunMigrations, c.RunMigrations)

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
