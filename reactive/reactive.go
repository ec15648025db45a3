//
// Tencent is pleased to support the open source community by making trpc-elasticsearch-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-elasticsearch-go is licensed under the Apache License Version 2.0.
//
//

// Package reactive provides the reactive-stream Elasticsearch client variant.
//
// Operations return lazily-subscribed Single or Stream sources: no request is
// issued until Subscribe is called, each subscription issues its own request,
// and unsubscribing (cancelling the subscription context) aborts in-flight
// work best-effort. Unlike the async variant there is no goroutine-pool
// hand-off; the subscription's own goroutine drives the request and delivers
// results at the pace the consumer demands them.
//
// The reactive variant does not support proxy configuration; New rejects a
// Configuration that carries one.
package reactive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	esv9 "github.com/elastic/go-elasticsearch/v9"
	esapiv9 "github.com/elastic/go-elasticsearch/v9/esapi"

	elasticsearch "trpc.group/trpc-go/trpc-elasticsearch-go"
	"trpc.group/trpc-go/trpc-elasticsearch-go/log"
)

// Hit is a single search hit.
type Hit struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Score  float64         `json:"_score"`
	Source json.RawMessage `json:"_source"`
}

// Document is the outcome of a get operation.
type Document struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Found  bool            `json:"found"`
	Source json.RawMessage `json:"_source"`
}

// searchResponse is the subset of the search reply the stream decodes.
type searchResponse struct {
	Hits struct {
		Hits []Hit `json:"hits"`
	} `json:"hits"`
}

// writeResponse is the subset of index/delete replies the singles decode.
type writeResponse struct {
	Result string `json:"result"`
}

// Client is the reactive-stream client variant. It is safe for concurrent use;
// each subscription is independent.
type Client struct {
	esClient *esv9.Client
	logger   log.Logger
}

// New builds a reactive client from builder options. It accepts the same
// Configuration as elasticsearch.New with two restrictions: the proxy setting
// is not supported (elasticsearch.ErrProxyNotSupported) and only the v9 SDK
// backs this variant.
func New(opts ...elasticsearch.ClientBuilderOpt) (*Client, error) {
	o := &elasticsearch.ClientBuilderOpts{}
	for _, opt := range opts {
		opt(o)
	}
	if o.Configuration == nil {
		return nil, elasticsearch.ErrConfigurationRequired
	}
	if o.Configuration.Proxy() != "" {
		return nil, elasticsearch.ErrProxyNotSupported
	}
	switch o.Version {
	case "", elasticsearch.ESVersionUnspecified, elasticsearch.ESVersionV9:
	default:
		return nil, fmt.Errorf("elasticsearch: reactive client requires the v9 SDK, got version %s", o.Version)
	}

	blocking, err := elasticsearch.New(opts...)
	if err != nil {
		return nil, err
	}
	esClient, ok := blocking.GetRawClient().(*esv9.Client)
	if !ok {
		return nil, fmt.Errorf("elasticsearch: unexpected raw client type %T", blocking.GetRawClient())
	}
	logger := o.Logger
	if logger == nil {
		logger = log.Default
	}
	return &Client{esClient: esClient, logger: logger}, nil
}

// Ping emits nil on success or the failure as a terminal error.
func (c *Client) Ping() *Single[struct{}] {
	return newSingle(func(ctx context.Context) (struct{}, error) {
		res, err := c.esClient.Ping(c.esClient.Ping.WithContext(ctx))
		if err != nil {
			return struct{}{}, err
		}
		defer res.Body.Close()
		if res.IsError() {
			return struct{}{}, fmt.Errorf("elasticsearch ping failed: %s", res.Status())
		}
		return struct{}{}, nil
	})
}

// Get emits the document with the given identifier.
func (c *Client) Get(indexName, id string) *Single[Document] {
	return newSingle(func(ctx context.Context) (Document, error) {
		var doc Document
		res, err := c.esClient.Get(indexName, id, c.esClient.Get.WithContext(ctx))
		if err != nil {
			return doc, err
		}
		defer res.Body.Close()
		body, err := io.ReadAll(res.Body)
		if err != nil {
			return doc, err
		}
		if res.IsError() && res.StatusCode != 404 {
			return doc, fmt.Errorf("elasticsearch get document failed: %s: %s", res.Status(), string(body))
		}
		if err := json.Unmarshal(body, &doc); err != nil {
			return doc, fmt.Errorf("elasticsearch: decode get response: %w", err)
		}
		return doc, nil
	})
}

// Index emits the server-reported result ("created" or "updated") of indexing
// the document under the given identifier.
func (c *Client) Index(indexName, id string, document any) *Single[string] {
	return newSingle(func(ctx context.Context) (string, error) {
		documentBytes, err := json.Marshal(document)
		if err != nil {
			return "", err
		}
		res, err := c.esClient.Index(
			indexName,
			bytes.NewReader(documentBytes),
			c.esClient.Index.WithContext(ctx),
			c.esClient.Index.WithDocumentID(id),
		)
		if err != nil {
			return "", err
		}
		defer res.Body.Close()
		body, err := io.ReadAll(res.Body)
		if err != nil {
			return "", err
		}
		if res.IsError() {
			return "", fmt.Errorf("elasticsearch index document failed: %s: %s", res.Status(), string(body))
		}
		var write writeResponse
		if err := json.Unmarshal(body, &write); err != nil {
			return "", fmt.Errorf("elasticsearch: decode index response: %w", err)
		}
		return write.Result, nil
	})
}

// Delete emits the server-reported result ("deleted") of removing the document.
func (c *Client) Delete(indexName, id string) *Single[string] {
	return newSingle(func(ctx context.Context) (string, error) {
		res, err := c.esClient.Delete(indexName, id, c.esClient.Delete.WithContext(ctx))
		if err != nil {
			return "", err
		}
		defer res.Body.Close()
		body, err := io.ReadAll(res.Body)
		if err != nil {
			return "", err
		}
		if res.IsError() {
			return "", fmt.Errorf("elasticsearch delete document failed: %s: %s", res.Status(), string(body))
		}
		var write writeResponse
		if err := json.Unmarshal(body, &write); err != nil {
			return "", fmt.Errorf("elasticsearch: decode delete response: %w", err)
		}
		return write.Result, nil
	})
}

// Search emits the hits of a query bound to an explicit offset and limit, in
// response order. Negative from or size leave the server defaults in place.
// The stream never paginates past the bound window.
func (c *Client) Search(indexName string, query map[string]any, from, size int) *Stream[Hit] {
	return newStream(func(ctx context.Context, emit func(Hit) bool) error {
		queryBytes, err := json.Marshal(query)
		if err != nil {
			return err
		}
		searchOpts := []func(*esapiv9.SearchRequest){
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
			return err
		}
		defer res.Body.Close()
		body, err := io.ReadAll(res.Body)
		if err != nil {
			return err
		}
		if res.IsError() {
			return fmt.Errorf("elasticsearch search failed: %s: %s", res.Status(), string(body))
		}
		var decoded searchResponse
		if err := json.Unmarshal(body, &decoded); err != nil {
			return fmt.Errorf("elasticsearch: decode search response: %w", err)
		}
		for _, hit := range decoded.Hits.Hits {
			if !emit(hit) {
				return nil
			}
		}
		return nil
	})
}
