package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sku-codemong/codemong-Backend-02/internal/flagx"
	"github.com/sku-codemong/codemong-Backend-02/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. The timeout
// goes through timex.Duration so it may be written as "10s" or a number.
type JsonConfig struct {
	ServerHTTPAddr string         `json:"server_http_addr"`
	ServerGRPCAddr string         `json:"server_grpc_addr"`
	RequestTimeout timex.Duration `json:"request_timeout"`
}

// parseJson overlays cfg with the file given by -c or -config. Keys that are
// absent from the file leave cfg untouched.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if jc.ServerHTTPAddr != "" {
		cfg.ServerHTTPAddr = jc.ServerHTTPAddr
	}
	if jc.ServerGRPCAddr != "" {
		cfg.ServerGRPCAddr = jc.ServerGRPCAddr
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	return nil
}
