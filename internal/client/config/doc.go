// Package config loads runtime configuration for the SafeDrop CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. SAFEDROP_CLIENT_* environment variables, optionally from .env.
//  3. Optional JSON file selected via -c/-config or SAFEDROP_CLIENT_CONFIG.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the gateway gRPC endpoint
//	-t int      unary call timeout (seconds)
//	-d string   download directory
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "call_timeout": "10s",
//	  "download_dir": "downloads"
//	}
package config
