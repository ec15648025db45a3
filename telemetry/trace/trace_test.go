//
// Tencent is pleased to support the open source community by making trpc-elasticsearch-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-elasticsearch-go is licensed under the Apache License Version 2.0.
//
//

package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTracesEndpoint(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		require.Equal(t, "localhost:4317", tracesEndpoint())
	})
	t.Run("generic env", func(t *testing.T) {
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
		require.Equal(t, "collector:4317", tracesEndpoint())
	})
	t.Run("traces env wins", func(t *testing.T) {
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
		t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "traces:4317")
		require.Equal(t, "traces:4317", tracesEndpoint())
	})
}

func TestOptions(t *testing.T) {
	opts := &options{}
	WithEndpoint("collector:4317")(opts)
	WithProtocol("http")(opts)
	WithHeaders(map[string]string{"Authorization": "Bearer token"})(opts)
	WithServiceName("orders-search")(opts)
	require.Equal(t, "collector:4317", opts.tracesEndpoint)
	require.Equal(t, "http", opts.protocol)
	require.Equal(t, "Bearer token", opts.headers["Authorization"])
	require.Equal(t, "orders-search", opts.serviceName)
}

func TestTracerIsNoopBeforeStart(t *testing.T) {
	require.NotNil(t, Tracer)
	_, span := Tracer.Start(context.Background(), "noop")
	require.NotNil(t, span)
	span.End()
}
