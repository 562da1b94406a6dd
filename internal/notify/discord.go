// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// DiscordNotifier posts messages to a Discord webhook as embeds.
type DiscordNotifier struct {
	url    string
	client *http.Client
}

// NewDiscordNotifier creates a Discord notifier.
func NewDiscordNotifier(url string, timeout time.Duration) *DiscordNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DiscordNotifier{url: url, client: &http.Client{Timeout: timeout}}
}

// Name returns the notifier name.
func (n *DiscordNotifier) Name() string {
	return "discord"
}

// Send posts msg as a single embed.
func (n *DiscordNotifier) Send(ctx context.Context, msg *Message) error {
	body, err := json.Marshal(discordWebhookPayload{
		Embeds: []discordEmbed{buildEmbed(msg)},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal Discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create Discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("discord webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func buildEmbed(msg *Message) discordEmbed {
	fields := []discordEmbedField{
		{Name: "Violations", Value: strconv.Itoa(msg.ViolationCount), Inline: true},
		{Name: "Severity", Value: string(msg.Severity), Inline: true},
	}
	if msg.Until != nil {
		fields = append(fields, discordEmbedField{
			Name:   "Locked until",
			Value:  msg.Until.Format(time.RFC1123),
			Inline: true,
		})
	}
	if msg.EpisodeID != "" {
		fields = append(fields, discordEmbedField{Name: "Episode", Value: msg.EpisodeID, Inline: true})
	}

	return discordEmbed{
		Title:       msg.Title,
		Description: msg.Text,
		Color:       severityColor(msg.Severity),
		Timestamp:   msg.Time.Format(time.RFC3339),
		Fields:      fields,
		Footer:      discordEmbedFooter{Text: "Vigil"},
	}
}

func severityColor(severity Severity) int {
	switch severity {
	case SeverityCritical:
		return 0xFF0000
	case SeverityWarning:
		return 0xFFA500
	case SeverityInfo:
		return 0x3498DB
	default:
		return 0x95A5A6
	}
}

type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Footer      discordEmbedFooter  `json:"footer,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbedFooter struct {
	Text string `json:"text,omitempty"`
}
