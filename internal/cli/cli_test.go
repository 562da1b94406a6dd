// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/vigil/internal/api"
	"github.com/tomtom215/vigil/internal/audit"
	"github.com/tomtom215/vigil/internal/auth"
	"github.com/tomtom215/vigil/internal/config"
	"github.com/tomtom215/vigil/internal/lockdown"
	"github.com/tomtom215/vigil/internal/osactions"
)

const adminToken = "correct-horse-battery"

// agent is a controller, journal and admin API behind an httptest server.
type agent struct {
	url     string
	ctrl    *lockdown.Controller
	journal *audit.Logger
}

func startAgent(t *testing.T) *agent {
	t.Helper()

	journal := audit.NewLogger(audit.NewMemoryStore(100), audit.DefaultConfig(), zerolog.Nop())
	store := lockdown.NewFileStore(filepath.Join(t.TempDir(), "lockdown.json"))
	ctrl := lockdown.NewController(store, osactions.NewRecorder(), zerolog.Nop(),
		lockdown.WithClock(clockwork.NewFakeClockAt(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))),
		lockdown.WithObserver(journal),
	)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminToken), bcrypt.MinCost)
	require.NoError(t, err)
	authenticator, err := auth.NewTokenAuthenticator(string(hash))
	require.NoError(t, err)

	handler := api.NewHandler(ctrl, journal, "test", zerolog.Nop())
	router := api.NewRouter(api.RouterConfig{}, handler, authenticator,
		auth.NewLockout(auth.DefaultLockoutConfig(), clockwork.NewRealClock()))
	srv := httptest.NewServer(router.Handler())

	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = ctrl.Stop(ctx)
		_ = journal.Close()
	})
	return &agent{url: srv.URL, ctrl: ctrl, journal: journal}
}

func execute(t *testing.T, opts Options, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_Help(t *testing.T) {
	out, err := execute(t, Options{}, "", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "blocklisted keywords")
	for _, sub := range []string{"run", "status", "unlock", "bypass", "reset", "events", "replay", "hash-token"} {
		assert.Contains(t, out, sub)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, Options{Version: "1.2.3"}, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "vigil 1.2.3\n", out)

	out, err = execute(t, Options{Version: "1.2.3"}, "", "version", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"1.2.3"}`, out)
}

func TestStatusCommand(t *testing.T) {
	a := startAgent(t)

	out, err := execute(t, Options{}, "", "--addr", a.url, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Unlocked")
	assert.Contains(t, out, "Violation count: 1")

	out, err = execute(t, Options{}, "", "--addr", a.url, "--json", "status")
	require.NoError(t, err)
	var status api.StatusResponse
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.False(t, status.Locked)
	assert.Equal(t, 1, status.ViolationCount)
}

func TestAdminCommands(t *testing.T) {
	a := startAgent(t)
	base := []string{"--addr", a.url, "--token", adminToken}

	out, err := execute(t, Options{}, "", append(base, "bypass", "--source", "watchdog")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Bypass penalty applied")
	assert.Contains(t, out, "Locked (bypass penalty)")
	assert.True(t, a.ctrl.Status().Locked)
	assert.Equal(t, 48*time.Hour, a.ctrl.Status().Duration)

	out, err = execute(t, Options{}, "", append(base, "unlock")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Lock lifted")
	assert.False(t, a.ctrl.Status().Locked)

	out, err = execute(t, Options{}, "", append(base, "unlock")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Not locked")

	out, err = execute(t, Options{}, "", append(base, "--json", "reset")...)
	require.NoError(t, err)
	var status api.StatusResponse
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, 1, status.ViolationCount)
}

func TestAdminCommands_TokenRequired(t *testing.T) {
	a := startAgent(t)
	t.Setenv(TokenEnvVar, "")

	_, err := execute(t, Options{}, "", "--addr", a.url, "unlock")
	require.Error(t, err)
	var rerr *RemoteError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusUnauthorized, rerr.StatusCode)
	assert.Equal(t, api.CodeUnauthorized, rerr.Code)

	t.Setenv(TokenEnvVar, adminToken)
	_, err = execute(t, Options{}, "", "--addr", a.url, "reset")
	assert.NoError(t, err)
}

func TestEventsCommand(t *testing.T) {
	a := startAgent(t)
	a.ctrl.TriggerBypass(context.Background(), "test")
	a.ctrl.Unlock(context.Background())

	client := NewClient(a.url, "", time.Second)
	require.Eventually(t, func() bool {
		resp, err := client.Events(context.Background(), EventsQuery{})
		return err == nil && resp.Total == 2
	}, 2*time.Second, 10*time.Millisecond)

	out, err := execute(t, Options{}, "", "--addr", a.url, "events")
	require.NoError(t, err)
	assert.Contains(t, out, "lock.bypass")
	assert.Contains(t, out, "lock.unlocked")
	assert.Contains(t, out, "Showing 2 of 2 events")

	out, err = execute(t, Options{}, "", "--addr", a.url, "--json", "events", "--type", "lock.bypass")
	require.NoError(t, err)
	var resp api.EventsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, audit.EventTypeBypass, resp.Events[0].Type)

	out, err = execute(t, Options{}, "", "--addr", a.url, "events", resp.Events[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Event "+resp.Events[0].ID)
	assert.Contains(t, out, "Reason: test")

	_, err = execute(t, Options{}, "", "--addr", a.url, "events", "missing")
	var rerr *RemoteError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusNotFound, rerr.StatusCode)
}

func TestHealthCommand(t *testing.T) {
	a := startAgent(t)

	out, err := execute(t, Options{}, "", "--addr", a.url, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "Agent: healthy")
	assert.Contains(t, out, "Version: test")
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewClient(addr, "", 500*time.Millisecond).Status(context.Background())
	require.Error(t, err)
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(strings.TrimPrefix(srv.URL, "http://"), "", time.Second).Status(context.Background())
	var rerr *RemoteError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusBadGateway, rerr.StatusCode)
	assert.Equal(t, "bad gateway", rerr.Message)
}

func TestEventsQuery_Values(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q := EventsQuery{Types: []string{"lock.violation", "lock.bypass"}, Since: &since, Limit: 5, Offset: 10}
	v := q.values()
	assert.Equal(t, "lock.violation,lock.bypass", v.Get("type"))
	assert.Equal(t, "2026-01-01T00:00:00Z", v.Get("since"))
	assert.Equal(t, "5", v.Get("limit"))
	assert.Equal(t, "10", v.Get("offset"))
	assert.Empty(t, v.Get("until"))
	assert.Empty(t, EventsQuery{}.values().Encode())
}

func TestParseTimeFlag(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	got, err := parseTimeFlag("", now)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseTimeFlag("24h", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-24*time.Hour), *got)

	got, err = parseTimeFlag("2026-01-09T08:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 9, 8, 0, 0, 0, time.UTC), got.UTC())

	_, err = parseTimeFlag("yesterday", now)
	assert.Error(t, err)
	_, err = parseTimeFlag("-1h", now)
	assert.Error(t, err)
}

func TestHashTokenCommand(t *testing.T) {
	out, err := execute(t, Options{}, "", "hash-token", adminToken)
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(adminToken)))

	out, err = execute(t, Options{}, adminToken+"\n", "hash-token")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte(adminToken)))

	_, err = execute(t, Options{}, "", "hash-token", "short")
	assert.Error(t, err)

	_, err = execute(t, Options{}, "", "hash-token")
	assert.Error(t, err)
}

func TestHashTokenCommand_Generate(t *testing.T) {
	out, err := execute(t, Options{}, "", "--json", "hash-token", "--generate")
	require.NoError(t, err)

	var result map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NotEmpty(t, result["token"])
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(result["hash"]), []byte(result["token"])))

	_, err = execute(t, Options{}, "", "hash-token", "--generate", adminToken)
	assert.Error(t, err)
}

func TestRunCommand(t *testing.T) {
	t.Run("not available", func(t *testing.T) {
		_, err := execute(t, Options{}, "", "run")
		assert.Error(t, err)
	})

	t.Run("loads config and calls run", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "vigil.yaml")
		data := "agent:\n  data_dir: " + dir + "\nkeywords:\n  words: [casino]\nlogging:\n  level: error\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

		var got *config.Config
		var gotVersion string
		run := func(_ context.Context, cfg *config.Config, version string) error {
			got = cfg
			gotVersion = version
			return nil
		}
		_, err := execute(t, Options{Version: "9.9.9", Run: run}, "", "--config", path, "run")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, []string{"casino"}, got.Keywords.Words)
		assert.Equal(t, filepath.Join(dir, "lockdown.json"), got.Agent.StateFile)
		assert.Equal(t, "9.9.9", gotVersion)
	})

	t.Run("missing config file", func(t *testing.T) {
		run := func(context.Context, *config.Config, string) error { return nil }
		_, err := execute(t, Options{Run: run}, "", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "run")
		assert.Error(t, err)
	})
}
