//
// Tencent is pleased to support the open source community by making trpc-elasticsearch-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-elasticsearch-go is licensed under the Apache License Version 2.0.
//
//

// Package testserver provides an in-process fake Elasticsearch node for tests.
// It implements just enough of the REST API for the client packages: cluster
// info, index lifecycle, document CRUD, search with from/size and bulk.
package testserver

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// Request is one recorded client request.
type Request struct {
	Method     string
	Path       string
	RequestURI string
	Header     http.Header
	Body       []byte
}

// Server is a fake Elasticsearch node backed by httptest.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	clusterName string
	pathPrefix  string
	searchDelay time.Duration
	indices     map[string]map[string][]byte
	requests    []Request
}

// New starts a fake node. Callers must Close it.
func New() *Server {
	s := &Server{
		clusterName: "trpc-test-cluster",
		indices:     make(map[string]map[string][]byte),
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleInfo).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/_bulk", s.handleBulk).Methods(http.MethodPost)
	r.HandleFunc("/{index}", s.handleCreateIndex).Methods(http.MethodPut)
	r.HandleFunc("/{index}", s.handleDeleteIndex).Methods(http.MethodDelete)
	r.HandleFunc("/{index}", s.handleIndexExists).Methods(http.MethodHead)
	r.HandleFunc("/{index}/_search", s.handleSearch).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/{index}/_doc/{id}", s.handlePutDoc).Methods(http.MethodPut, http.MethodPost)
	r.HandleFunc("/{index}/_doc/{id}", s.handleGetDoc).Methods(http.MethodGet)
	r.HandleFunc("/{index}/_doc/{id}", s.handleDeleteDoc).Methods(http.MethodDelete)
	r.HandleFunc("/{index}/_update/{id}", s.handleUpdateDoc).Methods(http.MethodPost)

	s.Server = httptest.NewServer(s.record(s.stripPrefix(r)))
	return s
}

// Endpoint returns the node address in host:port form, as consumed by
// ConfigurationBuilder.ConnectedTo.
func (s *Server) Endpoint() string {
	return strings.TrimPrefix(s.Server.URL, "http://")
}

// SetClusterName changes the name reported by the info endpoint.
func (s *Server) SetClusterName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clusterName = name
}

// SetPathPrefix makes the node expect every request path under prefix, the way
// a reverse proxy route would.
func (s *Server) SetPathPrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pathPrefix = prefix
}

// SetSearchDelay delays search responses, for cancellation tests.
func (s *Server) SetSearchDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchDelay = d
}

// Requests returns a copy of all recorded requests.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent recorded request, or nil.
func (s *Server) LastRequest() *Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	r := s.requests[len(s.requests)-1]
	return &r
}

// Doc returns the stored document body, if any.
func (s *Server) Doc(index, id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, ok := s.indices[index]
	if !ok {
		return nil, false
	}
	body, ok := docs[id]
	return body, ok
}

// PutDoc stores a document directly, bypassing the API.
func (s *Server) PutDoc(index, id string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indices[index] == nil {
		s.indices[index] = make(map[string][]byte)
	}
	s.indices[index][id] = body
}

// record captures every request and stamps the product header the client SDKs
// verify on responses.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:     r.Method,
			Path:       r.URL.Path,
			RequestURI: r.RequestURI,
			Header:     r.Header.Clone(),
			Body:       body,
		})
		s.mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		next.ServeHTTP(w, r)
	})
}

// stripPrefix removes the configured path prefix before routing and rejects
// requests that miss it.
func (s *Server) stripPrefix(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		prefix := s.pathPrefix
		s.mu.Unlock()
		if prefix == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !strings.HasPrefix(r.URL.Path, prefix) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "unknown path prefix"})
			return
		}
		r2 := r.Clone(r.Context())
		r2.URL.Path = strings.TrimPrefix(r.URL.Path, prefix)
		if r2.URL.Path == "" {
			r2.URL.Path = "/"
		}
		next.ServeHTTP(w, r2)
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	name := s.clusterName
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"name":         "testserver-node-1",
		"cluster_name": name,
		"version":      map[string]any{"number": "9.1.0"},
		"tagline":      "You Know, for Search",
	})
}

func (s *Server) handleCreateIndex(w http.ResponseWriter, r *http.Request) {
	index := mux.Vars(r)["index"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indices[index]; ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{"type": "resource_already_exists_exception"},
		})
		return
	}
	s.indices[index] = make(map[string][]byte)
	writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true, "index": index})
}

func (s *Server) handleDeleteIndex(w http.ResponseWriter, r *http.Request) {
	index := mux.Vars(r)["index"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indices[index]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": map[string]any{"type": "index_not_found_exception"},
		})
		return
	}
	delete(s.indices, index)
	writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true})
}

func (s *Server) handleIndexExists(w http.ResponseWriter, r *http.Request) {
	index := mux.Vars(r)["index"]
	s.mu.Lock()
	_, ok := s.indices[index]
	s.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handlePutDoc(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	index, id := vars["index"], vars["id"]
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	if s.indices[index] == nil {
		s.indices[index] = make(map[string][]byte)
	}
	_, existed := s.indices[index][id]
	s.indices[index][id] = body
	s.mu.Unlock()

	result := "created"
	status := http.StatusCreated
	if existed {
		result = "updated"
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]any{"_index": index, "_id": id, "result": result})
}

func (s *Server) handleGetDoc(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	index, id := vars["index"], vars["id"]

	s.mu.Lock()
	body, ok := s.indices[index][id]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"_index": index, "_id": id, "found": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"_index": index, "_id": id, "found": true, "_source": json.RawMessage(body),
	})
}

func (s *Server) handleUpdateDoc(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	index, id := vars["index"], vars["id"]
	body, _ := io.ReadAll(r.Body)

	var update struct {
		Doc map[string]any `json:"doc"`
	}
	if err := json.Unmarshal(body, &update); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed update body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.indices[index][id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": map[string]any{"type": "document_missing_exception"},
		})
		return
	}
	var merged map[string]any
	if err := json.Unmarshal(existing, &merged); err != nil {
		merged = make(map[string]any)
	}
	for k, v := range update.Doc {
		merged[k] = v
	}
	mergedBytes, _ := json.Marshal(merged)
	s.indices[index][id] = mergedBytes
	writeJSON(w, http.StatusOK, map[string]any{"_index": index, "_id": id, "result": "updated"})
}

func (s *Server) handleDeleteDoc(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	index, id := vars["index"], vars["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indices[index][id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"_index": index, "_id": id, "result": "not_found"})
		return
	}
	delete(s.indices[index], id)
	writeJSON(w, http.StatusOK, map[string]any{"_index": index, "_id": id, "result": "deleted"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	index := mux.Vars(r)["index"]

	s.mu.Lock()
	delay := s.searchDelay
	s.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	from, size := 0, -1
	if v := r.URL.Query().Get("from"); v != "" {
		from, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("size"); v != "" {
		size, _ = strconv.Atoi(v)
	}

	s.mu.Lock()
	docs := s.indices[index]
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	hits := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		hits = append(hits, map[string]any{
			"_index": index, "_id": id, "_score": 1.0,
			"_source": json.RawMessage(docs[id]),
		})
	}
	s.mu.Unlock()

	total := len(hits)
	if from > len(hits) {
		from = len(hits)
	}
	hits = hits[from:]
	if size >= 0 && size < len(hits) {
		hits = hits[:size]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"took":      1,
		"timed_out": false,
		"hits": map[string]any{
			"total": map[string]any{"value": total, "relation": "eq"},
			"hits":  hits,
		},
	})
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	scanner := bufio.NewScanner(r.Body)
	scanner.Buffer(make([]byte, 0, 1<<16), 1<<20)

	type action struct {
		kind  string
		index string
		id    string
	}
	var pending *action
	var items []map[string]any

	apply := func(act action, doc []byte) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.indices[act.index] == nil {
			s.indices[act.index] = make(map[string][]byte)
		}
		switch act.kind {
		case "delete":
			delete(s.indices[act.index], act.id)
		case "update":
			var update struct {
				Doc map[string]any `json:"doc"`
			}
			if err := json.Unmarshal(doc, &update); err == nil {
				var merged map[string]any
				if existing, ok := s.indices[act.index][act.id]; ok {
					_ = json.Unmarshal(existing, &merged)
				}
				if merged == nil {
					merged = make(map[string]any)
				}
				for k, v := range update.Doc {
					merged[k] = v
				}
				mergedBytes, _ := json.Marshal(merged)
				s.indices[act.index][act.id] = mergedBytes
			}
		default:
			s.indices[act.index][act.id] = doc
		}
		items = append(items, map[string]any{
			act.kind: map[string]any{"_index": act.index, "_id": act.id, "status": 200},
		})
	}

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if pending == nil {
			var meta map[string]struct {
				Index string `json:"_index"`
				ID    string `json:"_id"`
			}
			if err := json.Unmarshal(line, &meta); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed bulk metadata"})
				return
			}
			for kind, target := range meta {
				pending = &action{kind: kind, index: target.Index, id: target.ID}
			}
			if pending == nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "empty bulk metadata"})
				return
			}
			if pending.kind == "delete" {
				apply(*pending, nil)
				pending = nil
			}
			continue
		}
		doc := make([]byte, len(line))
		copy(doc, line)
		apply(*pending, doc)
		pending = nil
	}
	if pending != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bulk action missing document line"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"took": 1, "errors": false, "items": items})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Response already committed; nothing sensible to do.
		_ = fmt.Errorf("encode response: %w", err)
	}
}
