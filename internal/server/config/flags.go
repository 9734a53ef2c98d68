package config

import (
	"flag"
	"io"
	"strconv"
	"time"

	"github.com/sku-codemong/codemong-Backend-02/internal/flagx"
	"github.com/sku-codemong/codemong-Backend-02/internal/timex"
)

// parseFlags overlays command-line flags. Unknown arguments are skipped so
// other components may share the same argument list.
//
//	-a string   HTTP listen address (":4000")
//	-g string   gRPC realtime listen address (":50051")
//	-d string   PostgreSQL DSN
//	-s string   access token secret
//	-r string   refresh token secret
//	-t ttl      access token TTL ("15m", "900", ...)
//	-T ttl      refresh token TTL ("7d", ...)
//	-e string   environment ("production" enables prod cookie defaults)
//	-domains    comma separated allowed email domains
//	-redis      Redis address for the login limiter
//	-log-level  debug|info|warn|error
//	-log-format text|json
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP listen address")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC realtime listen address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.JWTAccessSecret, "s", config.JWTAccessSecret, "access token secret")
	fs.StringVar(&config.JWTRefreshSecret, "r", config.JWTRefreshSecret, "refresh token secret")
	fs.Func("t", "access token TTL", ttlFlag(&config.AccessTokenTTL))
	fs.Func("T", "refresh token TTL", ttlFlag(&config.RefreshTokenTTL))
	fs.StringVar(&config.Environment, "e", config.Environment, "environment")
	fs.Func("domains", "allowed email domains, comma separated", func(v string) error {
		config.AllowedEmailDomains = splitDomains(v)
		return nil
	})
	fs.StringVar(&config.CookieDomain, "cookie-domain", config.CookieDomain, "cookie domain")
	fs.StringVar(&config.CookieSameSite, "cookie-samesite", config.CookieSameSite, "cookie SameSite (none|lax|strict)")
	fs.Func("cookie-secure", "force cookie Secure attribute", func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		config.CookieSecure = &b
		return nil
	})
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "Redis address for the login limiter")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format")
	fs.BoolVar(&config.RunMigrations, "migrate", config.RunMigrations, "apply migrations on start")

	return flagx.ParseOwn(fs, args)
}

func ttlFlag(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := timex.ParseTTL(v)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}
