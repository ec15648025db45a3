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
	"fmt"
	"io"
	"net/http"

	esv7 "github.com/elastic/go-elasticsearch/v7"
	esapiv7 "github.com/elastic/go-elasticsearch/v7/esapi"

	"trpc.group/trpc-go/trpc-elasticsearch-go/log"
)

var _ Client = (*clientV7)(nil)

// newClientV7 builds a v7 client from the configuration and builder options.
func newClientV7(o *ClientBuilderOpts) (Client, error) {
	cfg := o.Configuration
	rt, err := newTransport(cfg, o)
	if err != nil {
		return nil, err
	}
	username, password := cfg.transportCredentials()
	esClient, err := esv7.NewClient(esv7.Config{
		Addresses:           cfg.addresses(),
		Username:            username,
		Password:            password,
		Header:              cfg.DefaultHeaders(),
		Transport:           rt,
		CompressRequestBody: o.CompressRequestBody,
		RetryOnStatus:       o.RetryOnStatus,
		MaxRetries:          o.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create v7 client: %w", err)
	}
	return &clientV7{esClient: esClient, config: cfg, logger: o.Logger}, nil
}

// clientV7 implements the Client interface for the v7 SDK.
type clientV7 struct {
	esClient *esv7.Client
	config   *Configuration
	logger   log.Logger
}

// Ping checks if Elasticsearch is available.
func (c *clientV7) Ping(ctx context.Context) error {
	res, err := c.esClient.Ping(c.esClient.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}
	return nil
}

// CreateIndex creates an index with mapping.
func (c *clientV7) CreateIndex(ctx context.Context, indexName string, mapping map[string]any) error {
	mappingBytes, err := json.Marshal(mapping)
	if err != nil {
		return err
	}
	res, err := c.esClient.Indices.Create(
		indexName,
		c.esClient.Indices.Create.WithContext(ctx),
		c.esClient.Indices.Create.WithBody(bytes.NewReader(mappingBytes)),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch create index failed: %s", res.Status())
	}
	return nil
}

// DeleteIndex deletes an index.
func (c *clientV7) DeleteIndex(ctx context.Context, indexName string) error {
	res, err := c.esClient.Indices.Delete(
		[]string{indexName},
		c.esClient.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch delete index failed: %s", res.Status())
	}
	return nil
}

// IndexExists checks if an index exists.
func (c *clientV7) IndexExists(ctx context.Context, indexName string) (bool, error) {
	res, err := c.esClient.Indices.Exists(
		[]string{indexName},
		c.esClient.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()
	return res.StatusCode == http.StatusOK, nil
}

// IndexDocument indexes a document.
func (c *clientV7) IndexDocument(ctx context.Context, indexName, id string, document any) error {
	documentBytes, err := json.Marshal(document)
	if err != nil {
		return err
	}
	res, err := c.esClient.Index(
		indexName,
		bytes.NewReader(documentBytes),
		c.esClient.Index.WithContext(ctx),
		c.esClient.Index.WithDocumentID(id),
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

// GetDocument retrieves a document by ID.
func (c *clientV7) GetDocument(ctx context.Context, indexName, id string) ([]byte, error) {
	res, err := c.esClient.Get(
		indexName,
		id,
		c.esClient.Get.WithContext(ctx),
	)
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

// UpdateDocument updates a document.
func (c *clientV7) UpdateDocument(ctx context.Context, indexName, id string, document any) error {
	updateBytes, err := json.Marshal(updateRequest{Doc: document})
	if err != nil {
		return err
	}
	res, err := c.esClient.Update(
		indexName,
		id,
		bytes.NewReader(updateBytes),
		c.esClient.Update.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch update document failed: %s", res.Status())
	}
	return nil
}

// DeleteDocument deletes a document.
func (c *clientV7) DeleteDocument(ctx context.Context, indexName, id string) error {
	res, err := c.esClient.Delete(
		indexName,
		id,
		c.esClient.Delete.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch delete document failed: %s", res.Status())
	}
	return nil
}

// Search performs a search query with the server default offset and limit.
func (c *clientV7) Search(ctx context.Context, indexName string, query map[string]any) ([]byte, error) {
	return c.SearchFrom(ctx, indexName, query, -1, -1)
}

// SearchFrom performs a search query bound to an explicit offset and limit.
func (c *clientV7) SearchFrom(ctx context.Context, indexName string, query map[string]any, from, size int) ([]byte, error) {
	queryBytes, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	searchOpts := []func(*esapiv7.SearchRequest){
		c.esClient.Search.WithContext(ctx),
		c.esClient.Search.WithIndex(indexName),
		c.esClient.Search.WithBody(bytes.NewReader(queryBytes)),
	}
	if from >= 0 {
		searchOpts = append(searchOpts, c.esClient.Search.WithFrom(from))
	}
	if size >= 0 {
		searchOpts = append(searchOpts, c.esClient.Search.WithSize(size))
	}
	res, err := c.esClient.Search(searchOpts...)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search failed: %s: %s", res.Status(), string(body))
	}
	return body, nil
}

// BulkIndex performs bulk indexing operations.
func (c *clientV7) BulkIndex(ctx context.Context, indexName string, documents []BulkDocument) error {
	if len(documents) == 0 {
		return nil
	}
	bulkBody, err := encodeBulkBody(indexName, documents)
	if err != nil {
		return err
	}
	res, err := c.esClient.Bulk(
		bytes.NewReader(bulkBody),
		c.esClient.Bulk.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch bulk failed: %s", res.Status())
	}
	return nil
}

// Close closes the client connection.
func (c *clientV7) Close() error { return nil }

// GetRawClient returns the underlying *esv7.Client.
func (c *clientV7) GetRawClient() any { return c.esClient }
