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
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Default timeouts applied when the builder leaves them unset.
const (
	// DefaultConnectTimeout bounds connection establishment.
	DefaultConnectTimeout = 10 * time.Second
	// DefaultSocketTimeout bounds waiting for a response on an established connection.
	DefaultSocketTimeout = 5 * time.Second
)

// Configuration is an immutable description of how clients connect to one or
// more Elasticsearch nodes. It is built once via ConfigurationBuilder and may
// then be shared, without synchronization, across goroutines and across every
// client variant.
type Configuration struct {
	endpoints      []string
	useSSL         bool
	proxy          string
	pathPrefix     string
	connectTimeout time.Duration
	socketTimeout  time.Duration
	defaultHeaders http.Header
	username       string
	password       string
	hasBasicAuth   bool
}

// Endpoints returns the configured host:port endpoints in the order they were
// added. The returned slice is a copy.
func (c *Configuration) Endpoints() []string {
	out := make([]string, len(c.endpoints))
	copy(out, c.endpoints)
	return out
}

// UseSSL reports whether connections are encrypted.
func (c *Configuration) UseSSL() bool { return c.useSSL }

// Proxy returns the forward proxy endpoint, or the empty string when unset.
func (c *Configuration) Proxy() string { return c.proxy }

// PathPrefix returns the prefix prepended to all request paths, or the empty
// string when unset. A non-empty prefix always starts with a slash.
func (c *Configuration) PathPrefix() string { return c.pathPrefix }

// ConnectTimeout returns the connection establishment timeout.
func (c *Configuration) ConnectTimeout() time.Duration { return c.connectTimeout }

// SocketTimeout returns the response wait timeout.
func (c *Configuration) SocketTimeout() time.Duration { return c.socketTimeout }

// DefaultHeaders returns a copy of the headers merged into every outgoing
// request.
func (c *Configuration) DefaultHeaders() http.Header {
	out := make(http.Header, len(c.defaultHeaders))
	for k, vs := range c.defaultHeaders {
		cp := make([]string, len(vs))
		copy(cp, vs)
		out[k] = cp
	}
	return out
}

// BasicAuth returns the configured credentials and whether they were set.
func (c *Configuration) BasicAuth() (username, password string, ok bool) {
	return c.username, c.password, c.hasBasicAuth
}

// addresses renders the endpoints as URLs with the scheme implied by UseSSL.
func (c *Configuration) addresses() []string {
	scheme := "http"
	if c.useSSL {
		scheme = "https"
	}
	out := make([]string, 0, len(c.endpoints))
	for _, ep := range c.endpoints {
		out = append(out, scheme+"://"+ep)
	}
	return out
}

// transportCredentials returns the basic-auth credentials the transport should
// apply. An explicit Authorization default header takes precedence over
// WithBasicAuth, matching the underlying transport behavior.
func (c *Configuration) transportCredentials() (username, password string) {
	if !c.hasBasicAuth {
		return "", ""
	}
	if c.defaultHeaders.Get("Authorization") != "" {
		return "", ""
	}
	return c.username, c.password
}

// ConfigurationBuilder accumulates connection options and produces an immutable
// Configuration. All With* methods return the builder for chaining; malformed
// input is recorded and reported collectively by Build as a *ConfigurationError.
// The builder itself is not safe for concurrent use.
type ConfigurationBuilder struct {
	endpoints      []string
	useSSL         bool
	proxy          string
	pathPrefix     string
	connectTimeout *time.Duration
	socketTimeout  *time.Duration
	defaultHeaders http.Header
	username       string
	password       string
	hasBasicAuth   bool
	violations     []string
}

// NewConfigurationBuilder creates an empty builder.
func NewConfigurationBuilder() *ConfigurationBuilder {
	return &ConfigurationBuilder{defaultHeaders: make(http.Header)}
}

// ConnectedTo appends one or more host:port endpoints.
func (b *ConfigurationBuilder) ConnectedTo(endpoints ...string) *ConfigurationBuilder {
	for _, ep := range endpoints {
		if err := validateEndpoint(ep); err != nil {
			b.violations = append(b.violations, fmt.Sprintf("endpoint %q: %v", ep, err))
			continue
		}
		b.endpoints = append(b.endpoints, ep)
	}
	return b
}

// WithProxy routes connections through the given host:port forward proxy. Not
// every client variant honors the setting; the reactive variant rejects it at
// construction time.
func (b *ConfigurationBuilder) WithProxy(endpoint string) *ConfigurationBuilder {
	if err := validateEndpoint(endpoint); err != nil {
		b.violations = append(b.violations, fmt.Sprintf("proxy %q: %v", endpoint, err))
		return b
	}
	b.proxy = endpoint
	return b
}

// WithPathPrefix prepends prefix to all request paths, for clusters behind a
// reverse proxy.
func (b *ConfigurationBuilder) WithPathPrefix(prefix string) *ConfigurationBuilder {
	if prefix == "" {
		b.violations = append(b.violations, "path prefix must not be empty")
		return b
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	b.pathPrefix = strings.TrimSuffix(prefix, "/")
	return b
}

// WithConnectTimeout overrides DefaultConnectTimeout.
func (b *ConfigurationBuilder) WithConnectTimeout(d time.Duration) *ConfigurationBuilder {
	if d < 0 {
		b.violations = append(b.violations, fmt.Sprintf("connect timeout must not be negative, got %v", d))
		return b
	}
	b.connectTimeout = &d
	return b
}

// WithSocketTimeout overrides DefaultSocketTimeout.
func (b *ConfigurationBuilder) WithSocketTimeout(d time.Duration) *ConfigurationBuilder {
	if d < 0 {
		b.violations = append(b.violations, fmt.Sprintf("socket timeout must not be negative, got %v", d))
		return b
	}
	b.socketTimeout = &d
	return b
}

// UseSSL enables encrypted connections.
func (b *ConfigurationBuilder) UseSSL() *ConfigurationBuilder {
	b.useSSL = true
	return b
}

// WithDefaultHeaders merges headers into the defaults sent with every request.
// A later call overwrites earlier values for the same key.
func (b *ConfigurationBuilder) WithDefaultHeaders(headers http.Header) *ConfigurationBuilder {
	for k, vs := range headers {
		cp := make([]string, len(vs))
		copy(cp, vs)
		b.defaultHeaders[http.CanonicalHeaderKey(k)] = cp
	}
	return b
}

// WithBasicAuth sets the credentials encoded into the Authorization header.
func (b *ConfigurationBuilder) WithBasicAuth(username, password string) *ConfigurationBuilder {
	b.username = username
	b.password = password
	b.hasBasicAuth = true
	return b
}

// Build validates the accumulated state and returns an immutable Configuration.
// On failure it returns a *ConfigurationError listing every violation collected
// since the builder was created.
func (b *ConfigurationBuilder) Build() (*Configuration, error) {
	violations := make([]string, len(b.violations))
	copy(violations, b.violations)
	if len(b.endpoints) == 0 {
		violations = append(violations, "at least one endpoint is required")
	}
	if len(violations) > 0 {
		return nil, &ConfigurationError{Violations: violations}
	}

	cfg := &Configuration{
		endpoints:      make([]string, len(b.endpoints)),
		useSSL:         b.useSSL,
		proxy:          b.proxy,
		pathPrefix:     b.pathPrefix,
		connectTimeout: DefaultConnectTimeout,
		socketTimeout:  DefaultSocketTimeout,
		defaultHeaders: make(http.Header, len(b.defaultHeaders)),
		username:       b.username,
		password:       b.password,
		hasBasicAuth:   b.hasBasicAuth,
	}
	copy(cfg.endpoints, b.endpoints)
	if b.connectTimeout != nil {
		cfg.connectTimeout = *b.connectTimeout
	}
	if b.socketTimeout != nil {
		cfg.socketTimeout = *b.socketTimeout
	}
	for k, vs := range b.defaultHeaders {
		cp := make([]string, len(vs))
		copy(cp, vs)
		cfg.defaultHeaders[k] = cp
	}
	return cfg, nil
}

// validateEndpoint checks the host:port form.
func validateEndpoint(endpoint string) error {
	host, port, err := net.SplitHostPort(endpoint)
	if err != nil {
		return errors.New("not in host:port form")
	}
	if host == "" {
		return errors.New("host must not be empty")
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return errors.New("port must be a number between 1 and 65535")
	}
	return nil
}
