package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`

	// EngineMode selects how the inference engine is reached:
	// "server" talks to an already-running engine at EngineURL,
	// "spawn" launches EngineBin locally and waits for it to come up.
	EngineMode string `json:"engine_mode" yaml:"engine_mode" toml:"engine_mode"`
	EngineURL  string `json:"engine_url" yaml:"engine_url" toml:"engine_url"`
	EngineKey  string `json:"engine_api_key" yaml:"engine_api_key" toml:"engine_api_key"`
	EngineBin  string `json:"engine_bin" yaml:"engine_bin" toml:"engine_bin"`
	// Port range scanned for a free port in spawn mode.
	EnginePortMin int `json:"engine_port_min" yaml:"engine_port_min" toml:"engine_port_min"`
	EnginePortMax int `json:"engine_port_max" yaml:"engine_port_max" toml:"engine_port_max"`

	Model string `json:"model" yaml:"model" toml:"model"`
	// GPU toggle, recognized values: "enabled", "disabled". Empty means enabled.
	GPU string `json:"gpu" yaml:"gpu" toml:"gpu"`

	// RequestTimeoutSecs bounds a single engine call. 0 disables the bound.
	RequestTimeoutSecs int    `json:"request_timeout_secs" yaml:"request_timeout_secs" toml:"request_timeout_secs"`
	MaxBodyBytes       int64  `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	LogLevel           string `json:"log_level" yaml:"log_level" toml:"log_level"`

	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	CORSMethods []string `json:"cors_methods" yaml:"cors_methods" toml:"cors_methods"`
	CORSHeaders []string `json:"cors_headers" yaml:"cors_headers" toml:"cors_headers"`

	Sampling Sampling `json:"sampling" yaml:"sampling" toml:"sampling"`
}

// Sampling overrides the built-in decoding defaults when non-zero.
type Sampling struct {
	Temperature      float64 `json:"temperature" yaml:"temperature" toml:"temperature"`
	TopP             float64 `json:"top_p" yaml:"top_p" toml:"top_p"`
	TopK             int     `json:"top_k" yaml:"top_k" toml:"top_k"`
	MaxLength        int     `json:"max_length" yaml:"max_length" toml:"max_length"`
	FrequencyPenalty float64 `json:"frequency_penalty" yaml:"frequency_penalty" toml:"frequency_penalty"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyEnv overlays recognized environment variables onto cfg.
// Env wins over file values; flags (applied by the caller) win over env.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("DIAGNOSISD_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("DIAGNOSISD_ENGINE_URL"); v != "" {
		cfg.EngineURL = v
	}
	if v := os.Getenv("DIAGNOSISD_ENGINE_MODE"); v != "" {
		cfg.EngineMode = v
	}
	if v := os.Getenv("DIAGNOSISD_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("DIAGNOSISD_USE_GPU"); v != "" {
		cfg.GPU = v
	}
	if v := os.Getenv("DIAGNOSISD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// GPUEnabled interprets the GPU toggle. Unset defaults to enabled so a
// GPU host is used when present; the engine falls back to CPU on its own.
func (c Config) GPUEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(c.GPU)) {
	case "disabled", "0", "false", "off":
		return false
	default:
		return true
	}
}
