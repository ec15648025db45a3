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
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	itelemetry "trpc.group/trpc-go/trpc-elasticsearch-go/internal/telemetry"
	tmetric "trpc.group/trpc-go/trpc-elasticsearch-go/telemetry/metric"
	ttrace "trpc.group/trpc-go/trpc-elasticsearch-go/telemetry/trace"
)

// newTransport builds the HTTP transport for a client from its Configuration
// and builder options. The base transport honors proxy, SSL and timeout
// settings unless replaced via WithTransport; middlewares for path prefixing,
// request correlation, payload logging and telemetry are layered on top.
func newTransport(cfg *Configuration, o *ClientBuilderOpts) (http.RoundTripper, error) {
	rt := o.Transport
	if rt == nil {
		base := &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: cfg.ConnectTimeout(),
			}).DialContext,
			ResponseHeaderTimeout: cfg.SocketTimeout(),
			MaxIdleConnsPerHost:   10,
			ForceAttemptHTTP2:     true,
		}
		if cfg.UseSSL() {
			base.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		if proxy := cfg.Proxy(); proxy != "" {
			proxyURL, err := url.Parse("http://" + proxy)
			if err != nil {
				return nil, fmt.Errorf("elasticsearch: parse proxy %q: %w", proxy, err)
			}
			base.Proxy = http.ProxyURL(proxyURL)
		}
		rt = base
	}

	if prefix := cfg.PathPrefix(); prefix != "" {
		rt = &pathPrefixTransport{next: rt, prefix: prefix}
	}
	if o.EnableTraceLogging {
		rt = &traceTransport{next: rt, logger: o.Logger}
	}
	rt = &opaqueIDTransport{next: rt}
	return newInstrumentedTransport(rt), nil
}

// pathPrefixTransport prepends a fixed prefix to every request path, so a
// cluster behind a reverse proxy can be addressed transparently.
type pathPrefixTransport struct {
	next   http.RoundTripper
	prefix string
}

// RoundTrip implements http.RoundTripper.
func (t *pathPrefixTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.URL.Path = t.prefix + clone.URL.Path
	if clone.URL.RawPath != "" {
		clone.URL.RawPath = t.prefix + clone.URL.RawPath
	}
	return t.next.RoundTrip(clone)
}

// opaqueIDTransport assigns an X-Opaque-Id to requests that do not carry one,
// so individual calls can be correlated in cluster task and slow logs.
type opaqueIDTransport struct {
	next http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *opaqueIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("X-Opaque-Id") == "" {
		clone := req.Clone(req.Context())
		clone.Header.Set("X-Opaque-Id", uuid.NewString())
		req = clone
	}
	return t.next.RoundTrip(req)
}

// instrumentedTransport records a client span plus request count and duration
// metrics for every call. Instruments are bound at client construction time,
// so telemetry should be started before clients are built.
type instrumentedTransport struct {
	next     http.RoundTripper
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newInstrumentedTransport(next http.RoundTripper) *instrumentedTransport {
	requests, _ := tmetric.Meter.Int64Counter(
		itelemetry.MetricRequests,
		metric.WithDescription("Number of Elasticsearch requests issued."),
	)
	duration, _ := tmetric.Meter.Float64Histogram(
		itelemetry.MetricRequestDuration,
		metric.WithDescription("Elasticsearch request duration."),
		metric.WithUnit("s"),
	)
	return &instrumentedTransport{next: next, requests: requests, duration: duration}
}

// RoundTrip implements http.RoundTripper.
func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, span := ttrace.Tracer.Start(req.Context(), itelemetry.SpanNameRequest,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "elasticsearch"),
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.URL.Path),
			attribute.String("server.address", req.URL.Host),
		),
	)
	defer span.End()

	start := time.Now()
	res, err := t.next.RoundTrip(req.WithContext(ctx))
	elapsed := time.Since(start).Seconds()

	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", req.Method),
		attribute.String("server.address", req.URL.Host),
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		attrs = append(attrs, attribute.String("error.type", "transport"))
	} else {
		span.SetAttributes(attribute.Int("http.response.status_code", res.StatusCode))
		attrs = append(attrs, attribute.Int("http.response.status_code", res.StatusCode))
	}
	t.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	t.duration.Record(ctx, elapsed, metric.WithAttributes(attrs...))
	return res, err
}
