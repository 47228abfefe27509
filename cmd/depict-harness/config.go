package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// fileConfig represents the JSON rc file structure.
type fileConfig struct {
	URL       *string `json:"url,omitempty"`
	Host      *string `json:"host,omitempty"`
	Port      *int    `json:"port,omitempty"`
	DelayMs   *int    `json:"delay_ms,omitempty"`
	OutputDir *string `json:"output_dir,omitempty"`
	Headless  *bool   `json:"headless,omitempty"`
}

// loadConfigFile loads a .depictharnessrc file and applies it to cfg.
// It checks CWD first, then home directory. Values in the file override
// defaults but are themselves overridden by env vars and CLI flags.
func loadConfigFile(cfg *Config) {
	paths := []string{
		filepath.Join(".", ".depictharnessrc"),
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".depictharnessrc"))
	}

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		var fc fileConfig
		if err := json.Unmarshal(data, &fc); err != nil {
			continue // silently skip malformed config
		}
		applyFileConfig(cfg, &fc)
		return // use first file found
	}
}

func applyFileConfig(cfg *Config, fc *fileConfig) {
	if fc.URL != nil {
		cfg.URL = *fc.URL
	}
	if fc.Host != nil {
		cfg.Host = *fc.Host
	}
	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	if fc.DelayMs != nil {
		cfg.DelayMs = *fc.DelayMs
	}
	if fc.OutputDir != nil {
		cfg.OutputDir = *fc.OutputDir
	}
	if fc.Headless != nil {
		cfg.Headless = *fc.Headless
	}
}

// applyEnvVars applies environment variables to cfg, but only for fields
// not already set by explicit CLI flags.
func applyEnvVars(cfg *Config, explicit map[string]bool) {
	if !explicit["url"] {
		if v := os.Getenv("DEPICT_HARNESS_URL"); v != "" {
			cfg.URL = v
		}
	}
	if !explicit["host"] {
		if v := os.Getenv("DEPICT_HARNESS_HOST"); v != "" {
			cfg.Host = v
		}
	}
	if !explicit["port"] {
		if v := os.Getenv("DEPICT_HARNESS_PORT"); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				cfg.Port = i
			}
		}
	}
}

// reapplyExplicitFlags re-applies flag values that were explicitly set
// on the command line, since rc file loading may have overwritten them.
func reapplyExplicitFlags(cfg *Config, fv *flagValues, explicit map[string]bool) {
	if explicit["url"] {
		cfg.URL = fv.url
	}
	if explicit["headless"] {
		cfg.Headless = fv.headless
	}
	if explicit["attach"] {
		cfg.Attach = fv.attach
	}
	if explicit["host"] {
		cfg.Host = fv.host
	}
	if explicit["port"] {
		cfg.Port = fv.port
	}
	if explicit["scenario"] {
		cfg.Scenario = fv.scenario
	}
	if explicit["delay"] {
		cfg.DelayMs = fv.delay
	}
	if explicit["network-latency"] {
		cfg.NetworkLatencyMs = fv.netLatency
	}
	if explicit["screenshot-on-failure"] {
		cfg.ScreenshotOnFailure = fv.screenshots
	}
	if explicit["output-dir"] {
		cfg.OutputDir = fv.outputDir
	}
}
