// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"vigil.yaml",
	"vigil.yml",
	"/etc/vigil/config.yaml",
	"/etc/vigil/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "VIGIL_CONFIG"

func defaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			DataDir: "data",
		},
		Keywords: KeywordsConfig{
			BufferSize:  10,
			MaxDistance: 1,
		},
		Keys: KeysConfig{
			Source:        "stdin",
			NATSSubject:   "vigil.keys",
			BypassSubject: "vigil.bypass",
		},
		Lockdown: LockdownConfig{
			Escalation:         []time.Duration{2 * time.Hour, 4 * time.Hour, 8 * time.Hour, 16 * time.Hour},
			MaxDuration:        24 * time.Hour,
			BypassDuration:     48 * time.Hour,
			DecayAfter:         7 * 24 * time.Hour,
			DecayCheckInterval: 24 * time.Hour,
		},
		Enforcement: EnforcementConfig{
			TickInterval:    time.Second,
			Workers:         3,
			Browsers:        []string{"chrome.exe", "msedge.exe", "firefox.exe", "opera.exe", "brave.exe"},
			RestrictShell:   false,
			ShellProcess:    "explorer.exe",
			BlockedTools:    []string{"taskmgr.exe", "cmd.exe", "powershell.exe"},
			NetworkAdapters: []string{"Wi-Fi", "Ethernet"},
			FirewallRule:    "LockdownBlockAll",
			ActionTimeout:   10 * time.Second,
		},
		Journal: JournalConfig{
			Enabled:    true,
			Retention:  90 * 24 * time.Hour,
			BufferSize: 256,
		},
		Notify: NotifyConfig{
			RateLimit: time.Second,
			Timeout:   10 * time.Second,
		},
		NATS: NATSConfig{
			URL:  "nats://127.0.0.1:4222",
			Name: "vigil",
			Host: "127.0.0.1",
			Port: 4222,
		},
		Admin: AdminConfig{
			Enabled:   true,
			Listen:    "127.0.0.1:7391",
			RateLimit: 10,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the config file and the
// environment, then validates it. A non-empty path must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// applyDerived fills paths that default relative to DataDir.
func (c *Config) applyDerived() {
	if c.Agent.StateFile == "" {
		c.Agent.StateFile = filepath.Join(c.Agent.DataDir, "lockdown.json")
	}
	if c.Journal.Path == "" {
		c.Journal.Path = filepath.Join(c.Agent.DataDir, "journal")
	}
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as a single string.
var sliceConfigPaths = []string{
	"keywords.words",
	"lockdown.escalation",
	"enforcement.browsers",
	"enforcement.blocked_tools",
	"enforcement.network_adapters",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to config paths.
var envMappings = map[string]string{
	"vigil_data_dir":   "agent.data_dir",
	"vigil_state_file": "agent.state_file",

	"vigil_keywords":      "keywords.words",
	"vigil_keywords_file": "keywords.file",
	"vigil_buffer_size":   "keywords.buffer_size",
	"vigil_max_distance":  "keywords.max_distance",

	"vigil_key_source":     "keys.source",
	"vigil_nats_subject":   "keys.nats_subject",
	"vigil_bypass_subject": "keys.bypass_subject",

	"vigil_escalation":           "lockdown.escalation",
	"vigil_max_duration":         "lockdown.max_duration",
	"vigil_bypass_duration":      "lockdown.bypass_duration",
	"vigil_decay_after":          "lockdown.decay_after",
	"vigil_decay_check_interval": "lockdown.decay_check_interval",

	"vigil_tick_interval":       "enforcement.tick_interval",
	"vigil_workers":             "enforcement.workers",
	"vigil_browsers":            "enforcement.browsers",
	"vigil_restrict_shell":      "enforcement.restrict_shell",
	"vigil_shell_process":       "enforcement.shell_process",
	"vigil_blocked_tools":       "enforcement.blocked_tools",
	"vigil_network_adapters":    "enforcement.network_adapters",
	"vigil_firewall_rule":       "enforcement.firewall_rule",
	"vigil_clear_browser_cache": "enforcement.clear_browser_cache",
	"vigil_action_timeout":      "enforcement.action_timeout",

	"vigil_journal_enabled":   "journal.enabled",
	"vigil_journal_path":      "journal.path",
	"vigil_journal_retention": "journal.retention",

	"vigil_webhook_url":         "notify.webhook_url",
	"vigil_discord_webhook_url": "notify.discord_webhook_url",
	"vigil_notify_rate_limit":   "notify.rate_limit",

	"vigil_nats_url":      "nats.url",
	"vigil_nats_embedded": "nats.embedded",
	"vigil_nats_host":     "nats.host",
	"vigil_nats_port":     "nats.port",

	"vigil_admin_enabled":    "admin.enabled",
	"vigil_admin_listen":     "admin.listen",
	"vigil_admin_token_hash": "admin.token_hash",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable to its config path. Unmapped
// variables return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
