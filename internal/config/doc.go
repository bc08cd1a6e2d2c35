// Package config handles configuration loading for yopuedo-chat and
// yopuedo-devserver.
//
// # Overview
//
// Configuration is read from a YAML file, or TOML when the file name ends in
// .toml. ${VAR} references are expanded from the environment before parsing,
// and a .env file in the working directory is loaded first by the binaries.
// Durations are written as strings ("30s", "15m") and parsed after decoding.
//
// # Configuration File
//
// Default locations (in order):
//   - the --config flag
//   - $YOPUEDO_CONFIG
//   - $XDG_CONFIG_HOME/yopuedo/config.yaml
//   - ~/.config/yopuedo/config.yaml
//
// A missing file is not an error; every field has a default.
//
// # Validation
//
// The two binaries read different sections, so validation is split:
// ValidateClient checks client, clipboard and logging, and ValidateServer
// checks server, database, auth, limits, metrics, dedupe and logging.
// Both return the first problem found.
package config
