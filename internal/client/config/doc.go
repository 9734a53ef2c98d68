// Package config loads runtime configuration for the codemong CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   REST API base URL, e.g. http://127.0.0.1:4000
//	-g string   realtime gRPC address, e.g. 127.0.0.1:50051
//	-t ttl      HTTP request timeout
//
// # JSON schema
//
//	{
//	  "server_http_addr": "http://127.0.0.1:4000",
//	  "server_grpc_addr": "127.0.0.1:50051",
//	  "request_timeout": "10s"
//	}
package config
