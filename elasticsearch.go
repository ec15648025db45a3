//
// Tencent is pleased to support the open source community by making trpc-elasticsearch-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-elasticsearch-go is licensed under the Apache License Version 2.0.
//
//

// Package elasticsearch provides an Elasticsearch client configuration contract
// and client implementations over it.
//
// A Configuration is built once via ConfigurationBuilder and shared read-only by
// every client variant: the blocking Client returned by New, the callback-based
// AsyncClient returned by NewAsync, and the reactive client in the reactive
// subpackage. The variants differ only in their concurrency contract, not in
// wire semantics.
package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
)

// Client defines the blocking interface for Elasticsearch operations. Every
// call suspends the calling goroutine until a response or failure is available;
// cancellation and deadlines are driven by the supplied context.
type Client interface {
	// Ping checks if Elasticsearch is available.
	Ping(ctx context.Context) error
	// CreateIndex creates an index with the provided mapping.
	CreateIndex(ctx context.Context, indexName string, mapping map[string]any) error
	// DeleteIndex deletes the specified index.
	DeleteIndex(ctx context.Context, indexName string) error
	// IndexExists returns whether the specified index exists.
	IndexExists(ctx context.Context, indexName string) (bool, error)
	// IndexDocument indexes a document with the given identifier.
	IndexDocument(ctx context.Context, indexName, id string, document any) error
	// GetDocument retrieves a document by identifier and returns the raw body.
	GetDocument(ctx context.Context, indexName, id string) ([]byte, error)
	// UpdateDocument applies a partial update to the document by identifier.
	UpdateDocument(ctx context.Context, indexName, id string, document any) error
	// DeleteDocument deletes a document by identifier.
	DeleteDocument(ctx context.Context, indexName, id string) error
	// Search executes a query and returns the raw response body.
	Search(ctx context.Context, indexName string, query map[string]any) ([]byte, error)
	// SearchFrom executes a query bound to an explicit offset and limit.
	// Negative values leave the server defaults in place.
	SearchFrom(ctx context.Context, indexName string, query map[string]any, from, size int) ([]byte, error)
	// BulkIndex performs bulk operations for indexing, updating, or deleting.
	BulkIndex(ctx context.Context, indexName string, documents []BulkDocument) error
	// Close releases resources held by the client.
	Close() error
	// GetRawClient exposes the underlying version-specific SDK client
	// (*esv7.Client, *esv8.Client or *esv9.Client).
	GetRawClient() any
}

// BulkDocument represents a document for bulk operations.
type BulkDocument struct {
	// ID is the document identifier.
	ID string
	// Document is the document payload to index or update.
	Document any
	// Action is the bulk action, one of: index, update, delete.
	Action string
}

// Bulk action constants.
const (
	// BulkActionIndex represents the index action.
	BulkActionIndex = "index"
	// BulkActionUpdate represents the update action.
	BulkActionUpdate = "update"
	// BulkActionDelete represents the delete action.
	BulkActionDelete = "delete"
)

// updateRequest wraps a partial update request body.
type updateRequest struct {
	Doc any `json:"doc"`
}

// bulkMeta represents a bulk API metadata line.
type bulkMeta struct {
	Index  *bulkTarget `json:"index,omitempty"`
	Update *bulkTarget `json:"update,omitempty"`
	Delete *bulkTarget `json:"delete,omitempty"`
}

// bulkTarget represents the target index and id for bulk operations.
type bulkTarget struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

// encodeBulkBody renders the newline-delimited bulk request body.
func encodeBulkBody(indexName string, documents []BulkDocument) ([]byte, error) {
	var bulkBody []byte
	for _, doc := range documents {
		meta := bulkMeta{}
		target := &bulkTarget{Index: indexName, ID: doc.ID}
		switch doc.Action {
		case BulkActionIndex:
			meta.Index = target
		case BulkActionUpdate:
			meta.Update = target
		case BulkActionDelete:
			meta.Delete = target
		default:
			meta.Index = target
		}
		actionBytes, err := json.Marshal(meta)
		if err != nil {
			return nil, err
		}
		bulkBody = append(bulkBody, actionBytes...)
		bulkBody = append(bulkBody, '\n')

		if doc.Action != BulkActionDelete {
			docBytes, err := json.Marshal(doc.Document)
			if err != nil {
				return nil, err
			}
			bulkBody = append(bulkBody, docBytes...)
			bulkBody = append(bulkBody, '\n')
		}
	}
	return bulkBody, nil
}

// New builds a blocking client from builder options using the global client
// builder. A Configuration is required; the Elasticsearch major version
// defaults to v9.
func New(opts ...ClientBuilderOpt) (Client, error) {
	return globalBuilder(opts...)
}

// defaultClientBuilder selects an implementation by Version and builds a client.
func defaultClientBuilder(builderOpts ...ClientBuilderOpt) (Client, error) {
	o := newClientBuilderOpts(builderOpts)
	if o.Configuration == nil {
		return nil, ErrConfigurationRequired
	}

	switch o.Version {
	case ESVersionV7:
		return newClientV7(o)
	case ESVersionV8:
		return newClientV8(o)
	case ESVersionV9, ESVersionUnspecified:
		return newClientV9(o)
	default:
		return nil, fmt.Errorf("elasticsearch: unknown version %s", o.Version)
	}
}
