// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package config

import (
	"errors"
	"fmt"

	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/validation"
)

// Validate checks struct-tag rules and the cross-field rules between sections.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	validators := []func() error{
		c.validateKeywords,
		c.validateKeys,
		c.validateLockdown,
		c.validateAdmin,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateKeywords() error {
	if len(c.Keywords.Words) == 0 && c.Keywords.File == "" {
		return errors.New("keywords: at least one of keywords.words or keywords.file is required")
	}
	return nil
}

func (c *Config) validateKeys() error {
	if c.Keys.Source == "nats" {
		if c.NATS.URL == "" {
			return errors.New("keys: nats.url is required when keys.source=nats")
		}
		if c.Keys.NATSSubject == "" {
			return errors.New("keys: keys.nats_subject is required when keys.source=nats")
		}
	}
	return nil
}

func (c *Config) validateLockdown() error {
	var prev int64
	for i, d := range c.Lockdown.Escalation {
		if int64(d) < prev {
			return fmt.Errorf("lockdown: escalation[%d]=%s is shorter than the step before it", i, d)
		}
		prev = int64(d)
	}
	if last := c.Lockdown.Escalation[len(c.Lockdown.Escalation)-1]; c.Lockdown.MaxDuration < last {
		return fmt.Errorf("lockdown: max_duration %s is shorter than the last escalation step %s",
			c.Lockdown.MaxDuration, last)
	}
	return nil
}

func (c *Config) validateAdmin() error {
	if c.Admin.Enabled && c.Admin.Listen == "" {
		return errors.New("admin: admin.listen is required when the admin API is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging: unknown level %q", c.Logging.Level)
	}
	return nil
}
