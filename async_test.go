//
// Tencent is pleased to support the open source community by making trpc-elasticsearch-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-elasticsearch-go is licensed under the Apache License Version 2.0.
//
//

package elasticsearch

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-elasticsearch-go/internal/testserver"
)

func newTestAsyncClient(t *testing.T, srv *testserver.Server, opts ...ClientBuilderOpt) *AsyncClient {
	t.Helper()
	opts = append([]ClientBuilderOpt{WithConfiguration(newTestConfiguration(t, srv))}, opts...)
	client, err := NewAsync(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewAsyncRequiresConfiguration(t *testing.T) {
	_, err := NewAsync()
	require.ErrorIs(t, err, ErrConfigurationRequired)
}

func TestAsyncCallbackRunsOffCallerGoroutine(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()
	client := newTestAsyncClient(t, srv)

	type outcome struct {
		err        error
		goroutine  uint64
		delivering chan struct{}
	}
	res := &outcome{delivering: make(chan struct{})}

	callerID := goroutineID()
	require.NoError(t, client.Ping(context.Background(), func(err error) {
		res.err = err
		res.goroutine = goroutineID()
		close(res.delivering)
	}))

	select {
	case <-res.delivering:
	case <-time.After(5 * time.Second):
		t.Fatal("callback was not invoked")
	}
	require.NoError(t, res.err)
	require.NotEqual(t, callerID, res.goroutine)
}

func TestAsyncDocumentRoundTrip(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()
	client := newTestAsyncClient(t, srv)
	ctx := context.Background()

	done := make(chan struct{})
	require.NoError(t, client.IndexDocument(ctx, "orders", "1", map[string]any{"n": 1}, func(err error) {
		require.NoError(t, err)
		close(done)
	}))
	<-done

	type getResult struct {
		body []byte
		err  error
	}
	got := make(chan getResult, 1)
	require.NoError(t, client.GetDocument(ctx, "orders", "1", func(body []byte, err error) {
		got <- getResult{body: body, err: err}
	}))
	res := <-got
	require.NoError(t, res.err)

	var decoded struct {
		Source json.RawMessage `json:"_source"`
	}
	require.NoError(t, json.Unmarshal(res.body, &decoded))
	require.JSONEq(t, `{"n":1}`, string(decoded.Source))
}

func TestAsyncSearchFrom(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()
	srv.PutDoc("orders", "1", []byte(`{"n":1}`))
	srv.PutDoc("orders", "2", []byte(`{"n":2}`))
	client := newTestAsyncClient(t, srv)

	got := make(chan []byte, 1)
	query := map[string]any{"query": map[string]any{"match_all": map[string]any{}}}
	require.NoError(t, client.SearchFrom(context.Background(), "orders", query, 1, 1,
		func(body []byte, err error) {
			require.NoError(t, err)
			got <- body
		}))

	var decoded struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	require.NoError(t, json.Unmarshal(<-got, &decoded))
	require.Len(t, decoded.Hits.Hits, 1)
	require.Equal(t, "2", decoded.Hits.Hits[0].ID)
}

func TestAsyncPoolBoundsConcurrency(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()
	srv.SetSearchDelay(100 * time.Millisecond)
	client := newTestAsyncClient(t, srv, WithAsyncPoolSize(2))

	const calls = 6
	var mu sync.Mutex
	var inFlight, maxInFlight int
	var wg sync.WaitGroup
	wg.Add(calls)
	query := map[string]any{"query": map[string]any{"match_all": map[string]any{}}}

	for i := 0; i < calls; i++ {
		go func() {
			_ = client.Search(context.Background(), "orders", query, func([]byte, error) {
				mu.Lock()
				inFlight++
				if inFlight > maxInFlight {
					maxInFlight = inFlight
				}
				mu.Unlock()

				time.Sleep(20 * time.Millisecond)

				mu.Lock()
				inFlight--
				mu.Unlock()
				wg.Done()
			})
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, maxInFlight, 2)
}

func TestAsyncCloseIsTerminal(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()

	client, err := NewAsync(WithConfiguration(newTestConfiguration(t, srv)))
	require.NoError(t, err)
	require.NoError(t, client.Close())

	err = client.Ping(context.Background(), func(error) {})
	require.Error(t, err)
}

func TestAsyncUnderlying(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()
	client := newTestAsyncClient(t, srv)
	require.NotNil(t, client.Underlying())
	require.NoError(t, client.Underlying().Ping(context.Background()))
}

// goroutineID parses the current goroutine id from the runtime stack header.
func goroutineID() uint64 {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	// Header form: "goroutine 12 [running]:"
	fields := strings.Fields(string(buf))
	if len(fields) < 2 {
		return 0
	}
	id, _ := strconv.ParseUint(fields[1], 10, 64)
	return id
}
