// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package config loads the agent configuration with koanf v2.
//
// Sources are layered, later layers winning:
//
//  1. Built-in defaults (defaultConfig)
//  2. An optional YAML file: the explicit path passed to Load, else
//     $VIGIL_CONFIG, else the first of DefaultConfigPaths that exists
//  3. Environment variables listed in the envTransformFunc mapping table
//
// Unknown environment variables are ignored. List-valued settings accept a
// comma separated string from the environment:
//
//	VIGIL_BROWSERS=chrome.exe,firefox.exe
//	VIGIL_ESCALATION=1h,2h,4h
//
// Validate runs struct-tag rules through internal/validation and then the
// cross-field checks that tags cannot express.
package config
