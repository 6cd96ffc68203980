// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatterm/internal/config"
)

func newTestClient(url string) *Client {
	return NewClientWithConfig(&ClientConfig{Endpoint: url})
}

// =============================================================================
// SEND TESTS
// =============================================================================

func TestClient_SendSuccess(t *testing.T) {
	var gotBody Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		data, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(data, &gotBody))
		fmt.Fprint(w, `{"response":"hello"}`)
	}))
	defer srv.Close()

	reply, err := newTestClient(srv.URL).Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", reply)
	assert.Equal(t, "hi", gotBody.Message)
}

func TestClient_SendSendsTextVerbatim(t *testing.T) {
	var raw []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"response":""}`)
	}))
	defer srv.Close()

	reply, err := newTestClient(srv.URL).Send(context.Background(), "  two\nlines ")
	require.NoError(t, err)
	assert.Equal(t, "", reply)
	assert.JSONEq(t, `{"message":"  two\nlines "}`, string(raw))
}

func TestClient_SendRemoteError(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				fmt.Fprint(w, `{"response":"ignored"}`)
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Send(context.Background(), "hi")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrRemote))

			var xerr *Error
			require.True(t, errors.As(err, &xerr))
			assert.Equal(t, status, xerr.StatusCode)
			assert.Equal(t, KindRemote, KindOf(err))
		})
	}
}

func TestClient_SendTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).Send(context.Background(), "hi")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.False(t, errors.Is(err, ErrRemote))
}

func TestClient_SendInvalidBody(t *testing.T) {
	bodies := map[string]string{
		"not json":      `oops`,
		"missing field": `{"reply":"hi"}`,
		"wrong type":    `{"response":42}`,
		"empty body":    ``,
		"array":         `["hi"]`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Send(context.Background(), "hi")
			require.Error(t, err)
			assert.Equal(t, KindInvalidResponse, KindOf(err))
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClientWithConfig(&ClientConfig{Endpoint: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := client.Send(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestClient_ContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(srv.URL).Send(ctx, "hi")
	assert.True(t, errors.Is(err, ErrTransport))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClient_NoRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Send(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_MinInterval(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":"ok"}`)
	}))
	defer srv.Close()

	client := NewClientWithConfig(&ClientConfig{Endpoint: srv.URL, MinInterval: 100 * time.Millisecond})

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Send(context.Background(), "hi")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 190*time.Millisecond)
}

// =============================================================================
// CONSTRUCTION TESTS
// =============================================================================

func TestFromConfig(t *testing.T) {
	client := FromConfig(config.ExchangeConfig{Endpoint: "http://example.com/chat", Timeout: time.Second})
	assert.Equal(t, "http://example.com/chat", client.Endpoint())
	assert.Equal(t, time.Second, client.httpClient.Timeout)
	assert.Nil(t, client.limiter)

	assert.Equal(t, config.DefaultEndpoint, NewClient().Endpoint())
	assert.Equal(t, time.Duration(0), NewClient().httpClient.Timeout)
}

func TestError_Message(t *testing.T) {
	err := &Error{Kind: KindRemote, Message: "endpoint returned 500", StatusCode: 500}
	assert.Equal(t, "endpoint returned 500 (status 500)", err.Error())
	assert.Equal(t, "remote", err.Kind.String())
	assert.Equal(t, KindTransport, KindOf(errors.New("other")))
}

func TestExchangerFunc(t *testing.T) {
	var ex Exchanger = ExchangerFunc(func(ctx context.Context, text string) (string, error) {
		return "echo: " + text, nil
	})
	reply, err := ex.Send(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "echo: x", reply)
}
