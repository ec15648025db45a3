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
	"strings"
)

// Sentinel errors returned by client constructors.
var (
	// ErrConfigurationRequired is returned when a client is built without
	// WithConfiguration.
	ErrConfigurationRequired = errors.New("elasticsearch: configuration is required")
	// ErrProxyNotSupported is returned by client variants that cannot honor a
	// proxy setting.
	ErrProxyNotSupported = errors.New("elasticsearch: proxy is not supported by this client variant")
)

// ConfigurationError reports every constraint violated by a
// ConfigurationBuilder at Build time.
type ConfigurationError struct {
	// Violations holds one human-readable message per violated constraint.
	Violations []string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return "elasticsearch: invalid client configuration: " + strings.Join(e.Violations, "; ")
}
