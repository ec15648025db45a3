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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	esv7 "github.com/elastic/go-elasticsearch/v7"
)

// TransportClientSettings configures the legacy TransportClient.
type TransportClientSettings struct {
	// ClusterName must match the name reported by the remote cluster;
	// Connect fails on mismatch.
	ClusterName string
	// Nodes is the static list of host:port node addresses. No discovery is
	// performed beyond this list.
	Nodes []string
}

// TransportClient is the legacy, address-list-based blocking client. It
// requires an explicit cluster name, performs no node discovery and offers no
// trace logging.
//
// Deprecated: TransportClient is scheduled for removal. Use New with a
// Configuration instead.
type TransportClient struct {
	settings TransportClientSettings
	esClient *esv7.Client

	mu        sync.Mutex
	connected bool
}

// NewTransportClient creates a legacy client from explicit settings.
//
// Deprecated: use New with a Configuration instead.
func NewTransportClient(settings TransportClientSettings) (*TransportClient, error) {
	if settings.ClusterName == "" {
		return nil, errors.New("elasticsearch: cluster name is required")
	}
	if len(settings.Nodes) == 0 {
		return nil, errors.New("elasticsearch: at least one node address is required")
	}
	addresses := make([]string, 0, len(settings.Nodes))
	for _, node := range settings.Nodes {
		if err := validateEndpoint(node); err != nil {
			return nil, fmt.Errorf("elasticsearch: node %q: %v", node, err)
		}
		addresses = append(addresses, "http://"+node)
	}
	esClient, err := esv7.NewClient(esv7.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create transport client: %w", err)
	}
	return &TransportClient{settings: settings, esClient: esClient}, nil
}

// Connect verifies the remote cluster identity. It must be called before any
// document operation and is idempotent.
func (t *TransportClient) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connected {
		return nil
	}

	res, err := t.esClient.Info(t.esClient.Info.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch cluster info failed: %s", res.Status())
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	var info struct {
		ClusterName string `json:"cluster_name"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return fmt.Errorf("elasticsearch: decode cluster info: %w", err)
	}
	if info.ClusterName != t.settings.ClusterName {
		return fmt.Errorf("elasticsearch: connected to cluster %q, want %q",
			info.ClusterName, t.settings.ClusterName)
	}
	t.connected = true
	return nil
}

// ensureConnected guards document operations.
func (t *TransportClient) ensureConnected() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return errors.New("elasticsearch: transport client is not connected, call Connect first")
	}
	return nil
}

// GetDocument retrieves a document by identifier and returns the raw body.
func (t *TransportClient) GetDocument(ctx context.Context, indexName, id string) ([]byte, error) {
	if err := t.ensureConnected(); err != nil {
		return nil, err
	}
	res, err := t.esClient.Get(indexName, id, t.esClient.Get.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch get document failed: %s: %s", res.Status(), string(body))
	}
	return body, nil
}

// IndexDocument indexes a document with the given identifier.
func (t *TransportClient) IndexDocument(ctx context.Context, indexName, id string, document any) error {
	if err := t.ensureConnected(); err != nil {
		return err
	}
	documentBytes, err := json.Marshal(document)
	if err != nil {
		return err
	}
	res, err := t.esClient.Index(
		indexName,
		bytes.NewReader(documentBytes),
		t.esClient.Index.WithContext(ctx),
		t.esClient.Index.WithDocumentID(id),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch index document failed: %s", res.Status())
	}
	return nil
}

// Close releases resources held by the client.
func (t *TransportClient) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = false
	return nil
}
