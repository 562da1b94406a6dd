// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package config

import (
	"time"
)

// Config is the complete agent configuration.
type Config struct {
	Agent       AgentConfig       `koanf:"agent"`
	Keywords    KeywordsConfig    `koanf:"keywords"`
	Keys        KeysConfig        `koanf:"keys"`
	Lockdown    LockdownConfig    `koanf:"lockdown"`
	Enforcement EnforcementConfig `koanf:"enforcement"`
	Journal     JournalConfig     `koanf:"journal"`
	Notify      NotifyConfig      `koanf:"notify"`
	NATS        NATSConfig        `koanf:"nats"`
	Admin       AdminConfig       `koanf:"admin"`
	Supervisor  SupervisorConfig  `koanf:"supervisor"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// AgentConfig holds filesystem locations.
type AgentConfig struct {
	// DataDir holds the state file and the journal unless they are set explicitly.
	// Default: data
	DataDir string `koanf:"data_dir" validate:"required"`

	// StateFile is the persisted lock record.
	// Default: <data_dir>/lockdown.json
	StateFile string `koanf:"state_file"`
}

// KeywordsConfig configures the blocklist and the keystroke buffer.
type KeywordsConfig struct {
	// Words are blocklisted keywords, matched case-insensitively.
	Words []string `koanf:"words" validate:"dive,required"`

	// File is an optional blocklist file, either a YAML list (or a mapping
	// with a "keywords" list) or plain text with one keyword per line.
	File string `koanf:"file"`

	// BufferSize is the number of committed words held before a forced
	// match pass. Default: 10
	BufferSize int `koanf:"buffer_size" validate:"gte=1,lte=1000"`

	// MaxDistance is the Levenshtein threshold for a fuzzy match. Default: 1
	MaxDistance int `koanf:"max_distance" validate:"gte=0,lte=3"`
}

// KeysConfig selects where key events come from.
type KeysConfig struct {
	// Source is stdin, nats or none. Default: stdin
	Source string `koanf:"source" validate:"oneof=stdin nats none"`

	// NATSSubject carries key events when Source is nats. Default: vigil.keys
	NATSSubject string `koanf:"nats_subject"`

	// BypassSubject carries bypass reports from the watchdog. Empty disables
	// the subscription. Default: vigil.bypass
	BypassSubject string `koanf:"bypass_subject"`
}

// LockdownConfig holds the escalation and decay policy.
type LockdownConfig struct {
	// Escalation is indexed by the current violation count (1-based).
	// Default: [2h, 4h, 8h, 16h]
	Escalation []time.Duration `koanf:"escalation" validate:"min=1,dive,gt=0"`

	// MaxDuration applies once the count runs past the escalation table.
	// Default: 24h
	MaxDuration time.Duration `koanf:"max_duration" validate:"gt=0"`

	// BypassDuration is the fixed penalty for a detected bypass. Default: 48h
	BypassDuration time.Duration `koanf:"bypass_duration" validate:"gt=0"`

	// DecayAfter is the violation-free streak that resets escalation. Default: 168h
	DecayAfter time.Duration `koanf:"decay_after" validate:"gt=0"`

	// DecayCheckInterval is the period of the independent decay timer. Default: 24h
	DecayCheckInterval time.Duration `koanf:"decay_check_interval" validate:"gte=1m"`
}

// EnforcementConfig configures the per-tick restriction work.
type EnforcementConfig struct {
	// TickInterval is the enforcement period while locked. Default: 1s
	TickInterval time.Duration `koanf:"tick_interval" validate:"gte=100ms,lte=1m"`

	// Workers bounds concurrent enforcement tasks per tick. Default: 3
	Workers int `koanf:"workers" validate:"gte=1,lte=16"`

	// Browsers are killed by image name every tick.
	Browsers []string `koanf:"browsers" validate:"min=1,dive,required"`

	// RestrictShell also kills the desktop shell and BlockedTools. Default: false
	RestrictShell bool `koanf:"restrict_shell"`

	// ShellProcess is killed under RestrictShell and relaunched on unlock.
	// Default: explorer.exe
	ShellProcess string `koanf:"shell_process" validate:"required"`

	// BlockedTools are killed under RestrictShell.
	BlockedTools []string `koanf:"blocked_tools" validate:"dive,required"`

	// NetworkAdapters are disabled on lock and re-enabled on unlock.
	NetworkAdapters []string `koanf:"network_adapters" validate:"dive,required"`

	// FirewallRule is the name of the block-all rule. Default: LockdownBlockAll
	FirewallRule string `koanf:"firewall_rule" validate:"required"`

	// ClearBrowserCache wipes browser caches before killing. Default: false
	ClearBrowserCache bool `koanf:"clear_browser_cache"`

	// ActionTimeout bounds every single OS action. Default: 10s
	ActionTimeout time.Duration `koanf:"action_timeout" validate:"gte=100ms"`
}

// JournalConfig configures the badger-backed event journal.
type JournalConfig struct {
	Enabled bool `koanf:"enabled"`

	// Path is the badger directory. Default: <data_dir>/journal
	Path string `koanf:"path"`

	// Retention bounds how long events are kept. Default: 2160h (90 days)
	Retention time.Duration `koanf:"retention" validate:"gte=1h"`

	// BufferSize is the async write queue length. Default: 256
	BufferSize int `koanf:"buffer_size" validate:"gte=1"`
}

// NotifyConfig configures guardian notifications.
type NotifyConfig struct {
	WebhookURL        string            `koanf:"webhook_url" validate:"omitempty,url"`
	DiscordWebhookURL string            `koanf:"discord_webhook_url" validate:"omitempty,url"`
	Headers           map[string]string `koanf:"headers"`

	// RateLimit is the minimum gap between two sends per notifier. Default: 1s
	RateLimit time.Duration `koanf:"rate_limit" validate:"gte=0"`

	// Timeout bounds each HTTP request. Default: 10s
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// NATSConfig configures the NATS connection used by the nats key source
// and the bypass subscription.
type NATSConfig struct {
	URL  string `koanf:"url"`
	Name string `koanf:"name"`

	// Embedded starts an in-process broker on Host:Port so a capture helper
	// can publish without an external server. URL is then derived from it.
	Embedded bool   `koanf:"embedded"`
	Host     string `koanf:"host" validate:"required_if=Embedded true"`
	Port     int    `koanf:"port" validate:"gte=0,lte=65535"`
}

// AdminConfig configures the local admin HTTP API.
type AdminConfig struct {
	Enabled bool `koanf:"enabled"`

	// Listen is the bind address. Default: 127.0.0.1:7391
	Listen string `koanf:"listen" validate:"omitempty,hostname_port"`

	// TokenHash is the bcrypt hash of the admin token. When empty, mutating
	// endpoints are refused.
	TokenHash string `koanf:"token_hash" validate:"omitempty,bcrypt"`

	// RateLimit is the number of requests per minute per client. Default: 10
	RateLimit int `koanf:"rate_limit" validate:"gte=1"`
}

// SupervisorConfig maps onto suture.Spec.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gt=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is json or console. Default: json
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}
