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
	"net/http/httputil"

	"trpc.group/trpc-go/trpc-elasticsearch-go/log"
)

// traceTransport dumps raw request and response payloads at debug level.
// Enabled via WithTraceLogging; the deprecated TransportClient never carries
// this middleware.
type traceTransport struct {
	next   http.RoundTripper
	logger log.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *traceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if dump, err := httputil.DumpRequestOut(req, true); err == nil {
		t.logger.Debugf("elasticsearch request:\n%s", dump)
	}
	res, err := t.next.RoundTrip(req)
	if err != nil {
		t.logger.Debugf("elasticsearch transport error: %v", err)
		return nil, err
	}
	if dump, dumpErr := httputil.DumpResponse(res, true); dumpErr == nil {
		t.logger.Debugf("elasticsearch response:\n%s", dump)
	}
	return res, nil
}
