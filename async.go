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
	"fmt"

	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/trpc-elasticsearch-go/log"
)

// DefaultAsyncPoolSize bounds the callback pool when WithAsyncPoolSize is not
// used.
const DefaultAsyncPoolSize = 16

// AsyncClient issues Elasticsearch operations without blocking the caller.
// Every operation submits work to a bounded goroutine pool owned by the client
// and returns immediately; completion is reported through the callback, which
// runs on a pool goroutine. Callers must synchronize any state they touch from
// callbacks.
type AsyncClient struct {
	client Client
	pool   *ants.Pool
	logger log.Logger
}

// NewAsync builds an asynchronous, callback-based client from builder options.
// It accepts the same Configuration as New; the proxy setting is honored.
func NewAsync(opts ...ClientBuilderOpt) (*AsyncClient, error) {
	o := newClientBuilderOpts(opts)
	client, err := New(opts...)
	if err != nil {
		return nil, err
	}
	size := o.AsyncPoolSize
	if size <= 0 {
		size = DefaultAsyncPoolSize
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create async pool: %w", err)
	}
	return &AsyncClient{client: client, pool: pool, logger: o.Logger}, nil
}

// submit hands a job to the pool, blocking when all workers are busy.
func (a *AsyncClient) submit(job func()) error {
	if err := a.pool.Submit(job); err != nil {
		return fmt.Errorf("elasticsearch: submit async task: %w", err)
	}
	return nil
}

// Ping checks availability and reports the outcome via callback.
func (a *AsyncClient) Ping(ctx context.Context, callback func(err error)) error {
	return a.submit(func() { callback(a.client.Ping(ctx)) })
}

// CreateIndex creates an index and reports the outcome via callback.
func (a *AsyncClient) CreateIndex(ctx context.Context, indexName string, mapping map[string]any, callback func(err error)) error {
	return a.submit(func() { callback(a.client.CreateIndex(ctx, indexName, mapping)) })
}

// DeleteIndex deletes an index and reports the outcome via callback.
func (a *AsyncClient) DeleteIndex(ctx context.Context, indexName string, callback func(err error)) error {
	return a.submit(func() { callback(a.client.DeleteIndex(ctx, indexName)) })
}

// IndexExists reports whether the index exists via callback.
func (a *AsyncClient) IndexExists(ctx context.Context, indexName string, callback func(exists bool, err error)) error {
	return a.submit(func() { callback(a.client.IndexExists(ctx, indexName)) })
}

// IndexDocument indexes a document and reports the outcome via callback.
func (a *AsyncClient) IndexDocument(ctx context.Context, indexName, id string, document any, callback func(err error)) error {
	return a.submit(func() { callback(a.client.IndexDocument(ctx, indexName, id, document)) })
}

// GetDocument retrieves a document and delivers the raw body via callback.
func (a *AsyncClient) GetDocument(ctx context.Context, indexName, id string, callback func(body []byte, err error)) error {
	return a.submit(func() { callback(a.client.GetDocument(ctx, indexName, id)) })
}

// UpdateDocument applies a partial update and reports the outcome via callback.
func (a *AsyncClient) UpdateDocument(ctx context.Context, indexName, id string, document any, callback func(err error)) error {
	return a.submit(func() { callback(a.client.UpdateDocument(ctx, indexName, id, document)) })
}

// DeleteDocument deletes a document and reports the outcome via callback.
func (a *AsyncClient) DeleteDocument(ctx context.Context, indexName, id string, callback func(err error)) error {
	return a.submit(func() { callback(a.client.DeleteDocument(ctx, indexName, id)) })
}

// Search executes a query and delivers the raw response body via callback.
func (a *AsyncClient) Search(ctx context.Context, indexName string, query map[string]any, callback func(body []byte, err error)) error {
	return a.submit(func() { callback(a.client.Search(ctx, indexName, query)) })
}

// SearchFrom executes a query bound to an explicit offset and limit and
// delivers the raw response body via callback.
func (a *AsyncClient) SearchFrom(ctx context.Context, indexName string, query map[string]any, from, size int, callback func(body []byte, err error)) error {
	return a.submit(func() { callback(a.client.SearchFrom(ctx, indexName, query, from, size)) })
}

// BulkIndex performs bulk operations and reports the outcome via callback.
func (a *AsyncClient) BulkIndex(ctx context.Context, indexName string, documents []BulkDocument, callback func(err error)) error {
	return a.submit(func() { callback(a.client.BulkIndex(ctx, indexName, documents)) })
}

// Underlying returns the blocking client the async client delegates to.
func (a *AsyncClient) Underlying() Client { return a.client }

// Close releases the pool and the underlying client. Submitting after Close
// returns an error.
func (a *AsyncClient) Close() error {
	a.pool.Release()
	return a.client.Close()
}
