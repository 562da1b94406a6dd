// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

//go:build !windows && !unix

package osactions

import "syscall"

func detachedAttr() *syscall.SysProcAttr {
	return nil
}
