// Package config loads runtime configuration for the profilesync CLI.
//
// Sources, in increasing precedence:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. An optional file named with -c or -config. A .toml extension selects
//     TOML; anything else is read as JSON. Only keys present in the file
//     override defaults.
//  3. Command-line flags -a, -d, -u, -i and -l.
//
// Durations in files are timex.Duration values, so both "3s" and integer
// nanoseconds are accepted in JSON:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "loader_max_retries": 2
//	}
//
// Invalid files and flags panic; configuration is read once at startup.
package config
