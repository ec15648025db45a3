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
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-elasticsearch-go/log"
)

func TestClientBuilderOpts(t *testing.T) {
	cfg, err := NewConfigurationBuilder().ConnectedTo("localhost:9200").Build()
	require.NoError(t, err)

	rt := http.RoundTripper(http.DefaultTransport)
	o := newClientBuilderOpts([]ClientBuilderOpt{
		WithConfiguration(cfg),
		WithVersion(ESVersionV8),
		WithLogger(log.Default),
		WithTransport(rt),
		WithCompressRequestBody(true),
		WithRetryOnStatus([]int{502, 503}),
		WithMaxRetries(3),
		WithTraceLogging(true),
		WithAsyncPoolSize(4),
		WithExtraOptions("extra", 42),
	})

	require.Same(t, cfg, o.Configuration)
	require.Equal(t, ESVersionV8, o.Version)
	require.NotNil(t, o.Logger)
	require.Equal(t, rt, o.Transport)
	require.True(t, o.CompressRequestBody)
	require.Equal(t, []int{502, 503}, o.RetryOnStatus)
	require.Equal(t, 3, o.MaxRetries)
	require.True(t, o.EnableTraceLogging)
	require.Equal(t, 4, o.AsyncPoolSize)
	require.Equal(t, []any{"extra", 42}, o.ExtraOptions)
}

func TestClientBuilderOptsDefaults(t *testing.T) {
	o := newClientBuilderOpts(nil)
	require.Equal(t, ESVersionUnspecified, o.Version)
	require.NotNil(t, o.Logger)
	require.Nil(t, o.Transport)
	require.Zero(t, o.AsyncPoolSize)
}

func TestRegisterInstance(t *testing.T) {
	cfg, err := NewConfigurationBuilder().ConnectedTo("localhost:9200").Build()
	require.NoError(t, err)

	RegisterInstance("orders", WithConfiguration(cfg), WithVersion(ESVersionV7))

	opts, ok := GetInstance("orders")
	require.True(t, ok)
	require.Len(t, opts, 2)

	o := newClientBuilderOpts(opts)
	require.Same(t, cfg, o.Configuration)
	require.Equal(t, ESVersionV7, o.Version)

	_, ok = GetInstance("missing")
	require.False(t, ok)
}

func TestSetClientBuilder(t *testing.T) {
	original := GetClientBuilder()
	defer SetClientBuilder(original)

	stub := &stubClient{}
	SetClientBuilder(func(builderOpts ...ClientBuilderOpt) (Client, error) {
		return stub, nil
	})

	client, err := New()
	require.NoError(t, err)
	require.Same(t, Client(stub), client)
}

// stubClient satisfies Client for builder indirection tests.
type stubClient struct{ Client }
