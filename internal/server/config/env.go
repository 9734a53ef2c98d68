package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sku-codemong/codemong-Backend-02/internal/timex"
)

type lookupFunc func(key string) (string, bool)

// parseDotEnv overlays the key/value pairs of cfg.EnvFile. A missing file
// is not an error.
func parseDotEnv(cfg *Config) error {
	if cfg.EnvFile == "" {
		return nil
	}
	vars, err := godotenv.Read(cfg.EnvFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read env file: %w", err)
	}
	return applyEnv(cfg, func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	})
}

// applyEnv overlays every recognised variable found by lookup.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("HTTP_ADDR", &cfg.HTTPAddr)
	if v, ok := lookup("PORT"); ok && v != "" {
		cfg.HTTPAddr = ":" + strings.TrimPrefix(v, ":")
	}
	str("GRPC_ADDR", &cfg.GRPCAddr)
	str("DATABASE_URL", &cfg.DatabaseDSN)
	str("JWT_ACCESS_SECRET", &cfg.JWTAccessSecret)
	str("JWT_REFRESH_SECRET", &cfg.JWTRefreshSecret)
	str("NODE_ENV", &cfg.Environment)
	str("APP_ENV", &cfg.Environment)
	str("COOKIE_DOMAIN", &cfg.CookieDomain)
	str("COOKIE_SAMESITE", &cfg.CookieSameSite)
	str("REDIS_ADDR", &cfg.RedisAddr)
	str("AWS_ACCESS_KEY_ID", &cfg.S3AccessKey)
	str("AWS_SECRET_ACCESS_KEY", &cfg.S3SecretKey)
	str("AWS_S3_BUCKET_NAME", &cfg.S3Bucket)
	str("AWS_REGION", &cfg.S3Region)
	str("S3_ENDPOINT", &cfg.S3BaseEndpoint)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("LOG_LEVEL", &cfg.LogLevel)

	if v, ok := lookup("ALLOWED_EMAIL_DOMAINS"); ok {
		cfg.AllowedEmailDomains = splitDomains(v)
	}

	for key, dst := range map[string]*int{
		"BCRYPT_COST":        &cfg.BcryptCost,
		"LOGIN_MAX_ATTEMPTS": &cfg.LoginMaxAttempts,
	} {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	for key, dst := range map[string]*time.Duration{
		"ACCESS_TOKEN_TTL":  &cfg.AccessTokenTTL,
		"REFRESH_TOKEN_TTL": &cfg.RefreshTokenTTL,
		"LOGIN_WINDOW":      &cfg.LoginWindow,
		"S3_PRESIGN_TTL":    &cfg.S3PresignTTL,
	} {
		if v, ok := lookup(key); ok && v != "" {
			d, err := timex.ParseTTL(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}

	if v, ok := lookup("COOKIE_SECURE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		cfg.CookieSecure = &b
	}

	for key, dst := range map[string]*bool{
		"TRUST_LOGOUT_USER_ID":    &cfg.TrustLogoutUserID,
		"REALTIME_ENFORCE_EXPIRY": &cfg.RealtimeEnforceExpiry,
		"RUN_MIGRATIONS":          &cfg.RunMigrations,
	} {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}

	return nil
}

func splitDomains(v string) []string {
	return normalizeDomains(strings.Split(v, ","))
}

// normalizeDomains lower-cases, trims and drops empty entries. The result is
// nil when nothing is left, which means "allow every domain".
func normalizeDomains(in []string) []string {
	var out []string
	for _, d := range in {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, "@")
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}
