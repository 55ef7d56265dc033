// Package config loads and validates the application configuration from
// struct-tag defaults, an optional YAML file, and MSOM_* environment
// variables, in that order of precedence (lowest first).
package config
