// Package file loads the engine's TOML configuration from the local
// filesystem into typed values.
package file
