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
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigurationBuilderDefaults(t *testing.T) {
	cfg, err := NewConfigurationBuilder().
		ConnectedTo("es1.example.com:9200").
		Build()
	require.NoError(t, err)

	require.Equal(t, []string{"es1.example.com:9200"}, cfg.Endpoints())
	require.False(t, cfg.UseSSL())
	require.Empty(t, cfg.Proxy())
	require.Empty(t, cfg.PathPrefix())
	require.Equal(t, DefaultConnectTimeout, cfg.ConnectTimeout())
	require.Equal(t, DefaultSocketTimeout, cfg.SocketTimeout())
	require.Empty(t, cfg.DefaultHeaders())
	_, _, ok := cfg.BasicAuth()
	require.False(t, ok)
}

func TestConfigurationBuilderEndpointOrder(t *testing.T) {
	cfg, err := NewConfigurationBuilder().
		ConnectedTo("es1.example.com:9200", "es2.example.com:9200").
		ConnectedTo("es3.example.com:9200").
		Build()
	require.NoError(t, err)
	require.Equal(t,
		[]string{"es1.example.com:9200", "es2.example.com:9200", "es3.example.com:9200"},
		cfg.Endpoints())
}

func TestConfigurationBuilderExampleScenario(t *testing.T) {
	headers := http.Header{}
	headers.Set("X-Team", "search-infra")

	cfg, err := NewConfigurationBuilder().
		ConnectedTo("es1.example.com:9200", "es2.example.com:9200").
		UseSSL().
		WithPathPrefix("/es").
		WithConnectTimeout(2 * time.Second).
		WithSocketTimeout(30 * time.Second).
		WithDefaultHeaders(headers).
		WithBasicAuth("svc-user", "secret").
		Build()
	require.NoError(t, err)

	require.True(t, cfg.UseSSL())
	require.Equal(t, "/es", cfg.PathPrefix())
	require.Equal(t, 2*time.Second, cfg.ConnectTimeout())
	require.Equal(t, 30*time.Second, cfg.SocketTimeout())
	require.Equal(t, "search-infra", cfg.DefaultHeaders().Get("X-Team"))
	user, pass, ok := cfg.BasicAuth()
	require.True(t, ok)
	require.Equal(t, "svc-user", user)
	require.Equal(t, "secret", pass)
	require.Equal(t,
		[]string{"https://es1.example.com:9200", "https://es2.example.com:9200"},
		cfg.addresses())
}

func TestConfigurationBuilderRejectsMalformedEndpoints(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
	}{
		{name: "no port", endpoint: "es1.example.com"},
		{name: "empty host", endpoint: ":9200"},
		{name: "port zero", endpoint: "es1.example.com:0"},
		{name: "port out of range", endpoint: "es1.example.com:70000"},
		{name: "port not a number", endpoint: "es1.example.com:http"},
		{name: "empty", endpoint: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfigurationBuilder().ConnectedTo(tt.endpoint).Build()
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestConfigurationBuilderRequiresEndpoint(t *testing.T) {
	_, err := NewConfigurationBuilder().Build()
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Contains(t, cfgErr.Violations, "at least one endpoint is required")
}

func TestConfigurationBuilderRejectsNegativeTimeouts(t *testing.T) {
	_, err := NewConfigurationBuilder().
		ConnectedTo("es1.example.com:9200").
		WithConnectTimeout(-1 * time.Second).
		WithSocketTimeout(-1 * time.Millisecond).
		Build()
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Len(t, cfgErr.Violations, 2)
}

func TestConfigurationBuilderAggregatesViolations(t *testing.T) {
	_, err := NewConfigurationBuilder().
		ConnectedTo("bad-endpoint").
		WithProxy("also-bad").
		WithConnectTimeout(-1).
		Build()
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	// Malformed endpoint, malformed proxy, negative timeout, plus the missing
	// endpoint since the malformed one was never accepted.
	require.Len(t, cfgErr.Violations, 4)
	require.Contains(t, err.Error(), "invalid client configuration")
}

func TestConfigurationBuilderZeroTimeoutIsValid(t *testing.T) {
	cfg, err := NewConfigurationBuilder().
		ConnectedTo("es1.example.com:9200").
		WithConnectTimeout(0).
		WithSocketTimeout(0).
		Build()
	require.NoError(t, err)
	require.Equal(t, time.Duration(0), cfg.ConnectTimeout())
	require.Equal(t, time.Duration(0), cfg.SocketTimeout())
}

func TestConfigurationBuilderPathPrefixNormalization(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{name: "leading slash kept", prefix: "/es", want: "/es"},
		{name: "missing slash added", prefix: "es", want: "/es"},
		{name: "trailing slash trimmed", prefix: "/es/", want: "/es"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewConfigurationBuilder().
				ConnectedTo("es1.example.com:9200").
				WithPathPrefix(tt.prefix).
				Build()
			require.NoError(t, err)
			require.Equal(t, tt.want, cfg.PathPrefix())
		})
	}
}

func TestConfigurationBuilderHeaderOverwriteLastWins(t *testing.T) {
	first := http.Header{}
	first.Set("X-Team", "one")
	first.Set("X-Keep", "kept")
	second := http.Header{}
	second.Set("X-Team", "two")

	cfg, err := NewConfigurationBuilder().
		ConnectedTo("es1.example.com:9200").
		WithDefaultHeaders(first).
		WithDefaultHeaders(second).
		Build()
	require.NoError(t, err)
	require.Equal(t, "two", cfg.DefaultHeaders().Get("X-Team"))
	require.Equal(t, "kept", cfg.DefaultHeaders().Get("X-Keep"))
}

func TestConfigurationImmutableAfterBuild(t *testing.T) {
	headers := http.Header{}
	headers.Set("X-Team", "original")

	builder := NewConfigurationBuilder().
		ConnectedTo("es1.example.com:9200").
		WithDefaultHeaders(headers)
	cfg, err := builder.Build()
	require.NoError(t, err)

	// Mutating the source header map, the builder afterwards, or the getters'
	// return values must not affect the built configuration.
	headers.Set("X-Team", "mutated")
	builder.ConnectedTo("es2.example.com:9200").UseSSL()
	cfg.Endpoints()[0] = "overwritten:1"
	cfg.DefaultHeaders().Set("X-Team", "overwritten")

	require.Equal(t, []string{"es1.example.com:9200"}, cfg.Endpoints())
	require.Equal(t, "original", cfg.DefaultHeaders().Get("X-Team"))
	require.False(t, cfg.UseSSL())
}

func TestConfigurationBuilderReusableAfterBuild(t *testing.T) {
	builder := NewConfigurationBuilder().ConnectedTo("es1.example.com:9200")
	first, err := builder.Build()
	require.NoError(t, err)

	second, err := builder.ConnectedTo("es2.example.com:9200").Build()
	require.NoError(t, err)

	require.Equal(t, []string{"es1.example.com:9200"}, first.Endpoints())
	require.Equal(t, []string{"es1.example.com:9200", "es2.example.com:9200"}, second.Endpoints())
}

func TestTransportCredentialsAuthorizationHeaderWins(t *testing.T) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer token")

	cfg, err := NewConfigurationBuilder().
		ConnectedTo("es1.example.com:9200").
		WithBasicAuth("svc-user", "secret").
		WithDefaultHeaders(headers).
		Build()
	require.NoError(t, err)

	user, pass := cfg.transportCredentials()
	require.Empty(t, user)
	require.Empty(t, pass)
}

func TestTransportCredentialsBasicAuth(t *testing.T) {
	cfg, err := NewConfigurationBuilder().
		ConnectedTo("es1.example.com:9200").
		WithBasicAuth("svc-user", "secret").
		Build()
	require.NoError(t, err)

	user, pass := cfg.transportCredentials()
	require.Equal(t, "svc-user", user)
	require.Equal(t, "secret", pass)
}

func TestConfigurationErrorSentinels(t *testing.T) {
	require.False(t, errors.Is(ErrConfigurationRequired, ErrProxyNotSupported))
	require.Contains(t, ErrConfigurationRequired.Error(), "configuration")
}
