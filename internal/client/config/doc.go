// Package config loads runtime configuration for the equipview CLI client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the server (e.g., "http://127.0.0.1:8000")
//	-t int      request timeout, seconds
//	-o string   directory reports and source files are saved to
//
// # File schema
//
// Durations use timex.Duration, so values can be strings like "30s" or
// integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8000",
//	  "request_timeout": "30s",
//	  "download_dir": "downloads"
//	}
package config
