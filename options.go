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

	"trpc.group/trpc-go/trpc-elasticsearch-go/log"
)

// Registry and builder alignment to match other trpc storage modules.

func init() {
	instanceRegistry = make(map[string][]ClientBuilderOpt)
}

// instanceRegistry stores named client instance builder options.
var instanceRegistry map[string][]ClientBuilderOpt

// clientBuilder builds a blocking Client from builder options.
type clientBuilder func(builderOpts ...ClientBuilderOpt) (Client, error)

// globalBuilder is the function used by New to build clients.
var globalBuilder clientBuilder = defaultClientBuilder

// SetClientBuilder sets the global client builder.
func SetClientBuilder(builder clientBuilder) {
	globalBuilder = builder
}

// GetClientBuilder gets the global client builder.
func GetClientBuilder() clientBuilder {
	return globalBuilder
}

// RegisterInstance registers builder options under an instance name.
func RegisterInstance(name string, opts ...ClientBuilderOpt) {
	instanceRegistry[name] = append(instanceRegistry[name], opts...)
}

// GetInstance gets the registered options for a named instance.
func GetInstance(name string) ([]ClientBuilderOpt, bool) {
	if _, ok := instanceRegistry[name]; !ok {
		return nil, false
	}
	return instanceRegistry[name], true
}

// ClientBuilderOpt is the option for the client builder.
type ClientBuilderOpt func(*ClientBuilderOpts)

// ClientBuilderOpts is the options for the client builder.
type ClientBuilderOpts struct {
	// Configuration carries the connection settings shared by all variants.
	Configuration *Configuration

	// Version selects the target Elasticsearch major version.
	// Defaults to ESVersionUnspecified which implies v9.
	Version ESVersion

	// Logger receives client and transport log output. Defaults to log.Default.
	Logger log.Logger

	// Transport replaces the transport built from the Configuration. When set,
	// proxy, SSL and timeout settings of the Configuration are not applied.
	Transport http.RoundTripper

	// CompressRequestBody enables HTTP request body compression.
	CompressRequestBody bool
	// RetryOnStatus is the list of HTTP status codes to retry on.
	RetryOnStatus []int
	// MaxRetries is the maximum number of retries.
	MaxRetries int

	// EnableTraceLogging logs raw request and response payloads at debug level.
	EnableTraceLogging bool

	// AsyncPoolSize bounds the callback goroutine pool of the async variant.
	// Defaults to DefaultAsyncPoolSize.
	AsyncPoolSize int

	// ExtraOptions allows custom builders to accept extra parameters.
	ExtraOptions []any
}

// newClientBuilderOpts applies opts over defaults.
func newClientBuilderOpts(opts []ClientBuilderOpt) *ClientBuilderOpts {
	o := &ClientBuilderOpts{Version: ESVersionUnspecified, Logger: log.Default}
	for _, opt := range opts {
		opt(o)
	}
	if o.Logger == nil {
		o.Logger = log.Default
	}
	if o.Version == "" {
		o.Version = ESVersionUnspecified
	}
	return o
}

// WithConfiguration sets the connection configuration.
func WithConfiguration(cfg *Configuration) ClientBuilderOpt {
	return func(o *ClientBuilderOpts) { o.Configuration = cfg }
}

// WithVersion sets the preferred Elasticsearch major version.
func WithVersion(v ESVersion) ClientBuilderOpt {
	return func(o *ClientBuilderOpts) { o.Version = v }
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) ClientBuilderOpt {
	return func(o *ClientBuilderOpts) { o.Logger = logger }
}

// WithTransport replaces the HTTP transport.
func WithTransport(rt http.RoundTripper) ClientBuilderOpt {
	return func(o *ClientBuilderOpts) { o.Transport = rt }
}

// WithCompressRequestBody toggles request body compression.
func WithCompressRequestBody(enabled bool) ClientBuilderOpt {
	return func(o *ClientBuilderOpts) { o.CompressRequestBody = enabled }
}

// WithRetryOnStatus sets HTTP retry status codes.
func WithRetryOnStatus(codes []int) ClientBuilderOpt {
	return func(o *ClientBuilderOpts) { o.RetryOnStatus = codes }
}

// WithMaxRetries sets max retries.
func WithMaxRetries(n int) ClientBuilderOpt {
	return func(o *ClientBuilderOpts) { o.MaxRetries = n }
}

// WithTraceLogging toggles raw payload logging on the transport.
func WithTraceLogging(enabled bool) ClientBuilderOpt {
	return func(o *ClientBuilderOpts) { o.EnableTraceLogging = enabled }
}

// WithAsyncPoolSize bounds the async callback pool.
func WithAsyncPoolSize(n int) ClientBuilderOpt {
	return func(o *ClientBuilderOpts) { o.AsyncPoolSize = n }
}

// WithExtraOptions adds extra, builder-specific options.
func WithExtraOptions(extraOptions ...any) ClientBuilderOpt {
	return func(o *ClientBuilderOpts) {
		o.ExtraOptions = append(o.ExtraOptions, extraOptions...)
	}
}

// ESVersion represents the Elasticsearch major version.
type ESVersion string

const (
	// ESVersionUnspecified means no explicit version preference.
	ESVersionUnspecified ESVersion = "0"
	// ESVersionV7 selects Elasticsearch v7.
	ESVersionV7 ESVersion = "v7"
	// ESVersionV8 selects Elasticsearch v8.
	ESVersionV8 ESVersion = "v8"
	// ESVersionV9 selects Elasticsearch v9.
	ESVersionV9 ESVersion = "v9"
)
