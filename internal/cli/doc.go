// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

/*
Package cli implements the vigil command line.

	vigil run                 start the agent
	vigil status              show the lock status of a running agent
	vigil health              check agent liveness
	vigil unlock              lift the current lock (admin token)
	vigil bypass              report a bypass attempt (admin token)
	vigil reset               reset the escalation counter (admin token)
	vigil events [id]         query the event journal
	vigil replay [text]       test text against the blocklist offline
	vigil hash-token [token]  print the bcrypt hash for admin.token_hash
	vigil version             print the version

The client commands talk to the admin API. Its address comes from --addr,
else from admin.listen in the config file. The admin token comes from
--token or VIGIL_ADMIN_TOKEN.
*/
package cli
