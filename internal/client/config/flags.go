package config

import (
	"flag"
	"io"

	"github.com/sku-codemong/codemong-Backend-02/internal/flagx"
	"github.com/sku-codemong/codemong-Backend-02/internal/timex"
)

// parseFlags populates Config fields from command-line flags.
//
//	-a string   REST API base URL
//	-g string   realtime gRPC address
//	-t ttl      HTTP request timeout ("10s", "5000ms", bare seconds)
//
// Foreign arguments such as -c are filtered out with flagx.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerHTTPAddr, "a", cfg.ServerHTTPAddr, "REST API base URL")
	fs.StringVar(&cfg.ServerGRPCAddr, "g", cfg.ServerGRPCAddr, "realtime gRPC address")
	fs.Func("t", "HTTP request timeout", func(v string) error {
		d, err := timex.ParseTTL(v)
		if err != nil {
			return err
		}
		cfg.RequestTimeout = d
		return nil
	})

	return flagx.ParseOwn(fs, args)
}
