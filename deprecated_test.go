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
	"testing"

	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-elasticsearch-go/internal/testserver"
)

func TestNewTransportClientValidation(t *testing.T) {
	tests := []struct {
		name     string
		settings TransportClientSettings
		wantErr  string
	}{
		{
			name:     "missing cluster name",
			settings: TransportClientSettings{Nodes: []string{"localhost:9200"}},
			wantErr:  "cluster name is required",
		},
		{
			name:     "missing nodes",
			settings: TransportClientSettings{ClusterName: "prod"},
			wantErr:  "at least one node address is required",
		},
		{
			name:     "malformed node",
			settings: TransportClientSettings{ClusterName: "prod", Nodes: []string{"localhost"}},
			wantErr:  "not in host:port form",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransportClient(tt.settings)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTransportClientConnect(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()
	srv.SetClusterName("prod")

	client, err := NewTransportClient(TransportClientSettings{
		ClusterName: "prod",
		Nodes:       []string{srv.Endpoint()},
	})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Connect(context.Background()))
	// Idempotent: a second call does not hit the cluster again.
	before := len(srv.Requests())
	require.NoError(t, client.Connect(context.Background()))
	require.Len(t, srv.Requests(), before)
}

func TestTransportClientConnectClusterNameMismatch(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()
	srv.SetClusterName("staging")

	client, err := NewTransportClient(TransportClientSettings{
		ClusterName: "prod",
		Nodes:       []string{srv.Endpoint()},
	})
	require.NoError(t, err)
	defer client.Close()

	err = client.Connect(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), `connected to cluster "staging", want "prod"`)
}

func TestTransportClientRequiresConnect(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()

	client, err := NewTransportClient(TransportClientSettings{
		ClusterName: "prod",
		Nodes:       []string{srv.Endpoint()},
	})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.GetDocument(context.Background(), "orders", "1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not connected")

	err = client.IndexDocument(context.Background(), "orders", "1", map[string]any{"n": 1})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not connected")
}

func TestTransportClientDocumentRoundTrip(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()
	srv.SetClusterName("prod")

	client, err := NewTransportClient(TransportClientSettings{
		ClusterName: "prod",
		Nodes:       []string{srv.Endpoint()},
	})
	require.NoError(t, err)
	defer client.Close()
	ctx := context.Background()

	require.NoError(t, client.Connect(ctx))
	require.NoError(t, client.IndexDocument(ctx, "orders", "1", map[string]any{"n": 1}))

	body, err := client.GetDocument(ctx, "orders", "1")
	require.NoError(t, err)
	require.Contains(t, string(body), `"found":true`)

	// Close resets the connection gate.
	require.NoError(t, client.Close())
	_, err = client.GetDocument(ctx, "orders", "1")
	require.Error(t, err)
}
