package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the codemong CLI.
//
// Fields:
//   - ServerHTTPAddr: base URL of the REST API, including the scheme.
//   - ServerGRPCAddr: host:port of the realtime gRPC endpoint.
//   - RequestTimeout: upper bound for a single HTTP call.
type Config struct {
	ServerHTTPAddr string
	ServerGRPCAddr string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with defaults that match a local server.
func (c *Config) LoadDefaults() {
	c.ServerHTTPAddr = "http://127.0.0.1:4000"
	c.ServerGRPCAddr = "127.0.0.1:50051"
	c.RequestTimeout = 10 * time.Second
}

// Load applies defaults, then the JSON file named by -c/-config, then flags.
// args excludes the program name.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over os.Args. It panics on a bad config file or flag.
func LoadConfig() *Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		panic(err)
	}
	return cfg
}
