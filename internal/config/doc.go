// Package config loads the monitor's TOML configuration.
//
// The default location is ~/.config/kolejka/config.toml. A missing file is
// not an error (defaults point at the public Warsaw endpoints) but an
// unreadable or unparseable file is. Values are whitespace-trimmed and tilde
// paths are expanded.
//
// Example:
//
//	api_url = "https://api.um.warszawa.pl/api/action/wsstore_get/"
//	directory_url = "https://api.um.warszawa.pl/api/action/wsstore_offices/"
//	api_key = "0000-0000-0000-0000"
//	offices = ["7ef70889-4eb9-4301-a970-92287db23052"]
//	poll_seconds = 60
//	metrics_bind = "127.0.0.1:9187"
//
// An empty offices list means "monitor every office in the directory".
// metrics_bind enables a Prometheus /metrics listener; empty disables it.
//
// The package is read-only and stateless: Load parses once at startup and
// returns an immutable Config.
package config
