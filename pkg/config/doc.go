// Package config handles configuration management for nixroots.
// It layers embedded TOML defaults, an optional user configuration file and
// environment variables, and hands the result to the root registrar as an
// explicit roots.Environment.
package config
