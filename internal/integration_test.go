// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package internal holds end-to-end tests that wire config, storage, the
// exchange client and the session controller together against a local
// HTTP endpoint.
package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatterm/internal/config"
	"github.com/jeranaias/chatterm/internal/exchange"
	"github.com/jeranaias/chatterm/internal/model"
	"github.com/jeranaias/chatterm/internal/render"
	"github.com/jeranaias/chatterm/internal/session"
	"github.com/jeranaias/chatterm/internal/storage"
)

// =============================================================================
// TEST UTILITIES
// =============================================================================

// echoEndpoint replies "echo: <message>". Requests listed in fail get a 500.
func echoEndpoint(t *testing.T, fail ...string) *httptest.Server {
	t.Helper()
	failing := make(map[string]bool, len(fail))
	for _, f := range fail {
		failing[f] = true
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req exchange.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if failing[req.Message] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(exchange.Response{Response: "echo: " + req.Message})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// testConfig returns a config whose storage lives under a temp directory.
func testConfig(t *testing.T, endpoint, backend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Exchange.Endpoint = endpoint
	cfg.Storage.Backend = backend
	cfg.Storage.Dir = dir
	cfg.Storage.SQLitePath = filepath.Join(dir, "history.db")
	return cfg
}

// openController starts a session the way the CLI does: open storage,
// build the client, hydrate.
func openController(t *testing.T, cfg *config.Config) (*session.Controller, *storage.Store) {
	t.Helper()
	ctx := context.Background()

	store, err := storage.Open(ctx, cfg.Storage)
	require.NoError(t, err)

	policy, err := session.ParseBusyPolicy(cfg.Session.BusyPolicy)
	require.NoError(t, err)

	ctrl := session.New(session.Options{
		Store:      store,
		Exchanger:  exchange.FromConfig(cfg.Exchange),
		BusyPolicy: policy,
	})
	ctrl.Hydrate(ctrl.LoadHistory(ctx))
	return ctrl, store
}

// =============================================================================
// RESTART TESTS
// =============================================================================

func TestRestartRestoresConversation(t *testing.T) {
	for _, backend := range []string{storage.BackendFile, storage.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			srv := echoEndpoint(t)
			cfg := testConfig(t, srv.URL, backend)
			ctx := context.Background()

			ctrl, store := openController(t, cfg)
			assert.True(t, ctrl.Exchange(ctx, "first"))
			assert.True(t, ctrl.Exchange(ctx, "second"))
			before := ctrl.Snapshot()
			require.NoError(t, store.Close())

			restarted, store2 := openController(t, cfg)
			defer store2.Close()

			assert.True(t, model.Equal(before, restarted.Snapshot()))
			assert.Equal(t, session.StatusIdle, restarted.Status())

			assert.True(t, restarted.Exchange(ctx, "third"))
			assert.Equal(t, 6, restarted.Len())
			reply, _ := restarted.LastReply()
			assert.Equal(t, "echo: third", reply.Text)
		})
	}
}

func TestFailureTurnsSurviveRestart(t *testing.T) {
	srv := echoEndpoint(t, "boom")
	cfg := testConfig(t, srv.URL, storage.BackendFile)
	ctx := context.Background()

	ctrl, store := openController(t, cfg)
	ctrl.Exchange(ctx, "boom")
	ctrl.Exchange(ctx, "fine")
	require.NoError(t, store.Close())

	restarted, store2 := openController(t, cfg)
	defer store2.Close()

	turns := restarted.Snapshot()
	require.Len(t, turns, 4)
	assert.Equal(t, session.RemoteFailureText, turns[1].Text)
	assert.Equal(t, model.SpeakerAssistant, turns[1].Speaker)
	assert.Equal(t, "echo: fine", turns[3].Text)

	out := render.Transcript(turns, restarted.Status(), render.Options{})
	assert.True(t, strings.HasPrefix(out, "You: boom\n\nBot: "+session.RemoteFailureText+"\n\n"))
}

func TestConfigFileDrivesPipeline(t *testing.T) {
	srv := echoEndpoint(t)
	cfg := testConfig(t, srv.URL, storage.BackendSQLite)
	cfg.Session.BusyPolicy = "queue"

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, config.SaveTOML(cfg, path))

	loaded, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Storage.SQLitePath, loaded.Storage.SQLitePath)

	ctrl, store := openController(t, loaded)
	defer store.Close()
	assert.Equal(t, session.BusyQueue, ctrl.Policy())

	// A submit made while pending is queued and sent after the first reply.
	p, err := ctrl.Submit("one")
	require.NoError(t, err)
	_, err = ctrl.Submit("two")
	assert.ErrorIs(t, err, session.ErrQueued)

	ctx := context.Background()
	for p != nil {
		res, err := ctrl.Resolve(p.Run(ctx, ctrl.Exchanger()))
		require.NoError(t, err)
		require.NoError(t, ctrl.Persist(ctx, res.Snapshot))
		p = res.Next
	}

	data, err := storage.Export(store.Load(ctx), storage.FormatMarkdown)
	require.NoError(t, err)
	md := string(data)
	assert.Contains(t, md, "**You**:\n\none")
	assert.Contains(t, md, "**Bot**:\n\necho: two")
	assert.Less(t, strings.Index(md, "echo: one"), strings.Index(md, "\ntwo\n"))
}

// =============================================================================
// CONCURRENCY TESTS
// =============================================================================

// Sessions are independent values; several may run at once as long as each
// is driven by a single goroutine.
func TestConcurrentSessions(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var req exchange.Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		time.Sleep(time.Millisecond)
		_ = json.NewEncoder(w).Encode(exchange.Response{Response: "echo: " + req.Message})
	}))
	defer srv.Close()

	const sessions, rounds = 8, 5
	client := exchange.FromConfig(config.ExchangeConfig{Endpoint: srv.URL})

	var wg sync.WaitGroup
	ctrls := make([]*session.Controller, sessions)
	for i := range ctrls {
		ctrls[i] = session.New(session.Options{
			Store:     storage.NewStore(storage.NewMemorySlot(0), ""),
			Exchanger: client,
		})
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				ctrls[i].Exchange(context.Background(), fmt.Sprintf("s%d-r%d", i, r))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(sessions*rounds), hits.Load())
	for i, ctrl := range ctrls {
		turns := ctrl.Snapshot()
		require.Len(t, turns, 2*rounds)
		for r := 0; r < rounds; r++ {
			msg := fmt.Sprintf("s%d-r%d", i, r)
			assert.Equal(t, msg, turns[2*r].Text)
			assert.Equal(t, "echo: "+msg, turns[2*r+1].Text)
		}
	}
}

func TestCancelledExchangeLeavesSessionUsable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		_ = json.NewEncoder(w).Encode(exchange.Response{Response: "late"})
	}))
	defer srv.Close()
	defer close(release)

	ctrl := session.New(session.Options{
		Store:     storage.NewStore(storage.NewMemorySlot(0), ""),
		Exchanger: exchange.FromConfig(config.ExchangeConfig{Endpoint: srv.URL}),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.True(t, ctrl.Exchange(ctx, "slow"))

	turns := ctrl.Snapshot()
	require.Len(t, turns, 2)
	assert.Equal(t, session.TransportFailureText, turns[1].Text)
	assert.Equal(t, session.StatusIdle, ctrl.Status())
	assert.Nil(t, ctrl.InFlight())
}
