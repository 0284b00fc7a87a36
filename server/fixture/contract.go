// SPDX-License-Identifier: ice License 1.0

package fixture

import (
	"context"
	"io"
	"net/http"
	"testing"
)

// Public API.

type (
	RespStatusCode   = int
	ReqBody          = io.Reader
	URL              = string
	ExpectedRespBody = string
	ActualRespBody   = string

	HTTPTestClient interface {
		Get(ctx context.Context, tb testing.TB, u URL, headers ...http.Header) (ActualRespBody, RespStatusCode, http.Header)
		Delete(ctx context.Context, tb testing.TB, u URL, headers ...http.Header) (ActualRespBody, RespStatusCode, http.Header)
		Patch(ctx context.Context, tb testing.TB, u URL, body ReqBody, headers ...http.Header) (ActualRespBody, RespStatusCode, http.Header)
		Put(ctx context.Context, tb testing.TB, u URL, body ReqBody, headers ...http.Header) (ActualRespBody, RespStatusCode, http.Header)
		Post(ctx context.Context, tb testing.TB, u URL, body ReqBody, headers ...http.Header) (ActualRespBody, RespStatusCode, http.Header)
		// PostJSON posts jsonData with the JSON Content-Type.
		PostJSON(ctx context.Context, tb testing.TB, u URL, jsonData string, headers ...http.Header) (ActualRespBody, RespStatusCode, http.Header)

		TestHealthCheck(ctx context.Context, tb testing.TB)
		AssertUnauthorized(tb testing.TB, actual ActualRespBody, respCode RespStatusCode)
	}
)

// Private API.

const (
	jsonContentType      = "application/json"
	unauthorizedRespBody = `{"error":"invalid or expired token","code":"INVALID_TOKEN"}`
)

type (
	httpTestClient struct {
		client  *http.Client
		baseURL string
	}
)
