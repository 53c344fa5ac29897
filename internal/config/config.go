// Package config provides the configuration defaults of the data-parser
// library. Values are resolved from built-in defaults overridden by
// environment variables; per-Source options take precedence over both.
//
// Configuration precedence (highest to lowest):
// 1. Per-Source options
// 2. Environment variables (DATAPARSER_ prefix)
// 3. Default values
package config

import (
	"runtime"
	"sync"
)

const (
	// DefaultRunner is the cluster runner used by default sessions.
	DefaultRunner string = "direct"
	// EnvWorkers overrides the local parse worker pool size.
	EnvWorkers string = "DATAPARSER_WORKERS"
	// EnvRunner overrides the cluster runner name.
	EnvRunner string = "DATAPARSER_RUNNER"
)

// Config holds the library tunables.
type Config struct {
	// Workers is the size of the worker pool used by local parses.
	Workers int
	// Runner is the cluster runner name used when no session is injected.
	Runner string
}

var (
	defaultConfig *Config
	defaultOnce   sync.Once
)

// FromEnv builds a fresh Config from defaults and environment overrides.
func FromEnv() *Config {
	cfg := &Config{
		Workers: runtime.NumCPU(),
		Runner:  DefaultRunner,
	}
	if n, ok := envInt(EnvWorkers); ok && n > 0 {
		cfg.Workers = n
	}
	if s, ok := envStr(EnvRunner); ok {
		cfg.Runner = s
	}
	return cfg
}

// Default returns the process-wide Config, built once on first use.
func Default() *Config {
	defaultOnce.Do(func() {
		defaultConfig = FromEnv()
	})
	return defaultConfig
}
