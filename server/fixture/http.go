// SPDX-License-Identifier: ice License 1.0

package fixture

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewHTTPTestClient sends every request to baseURL (an httptest.Server URL for instance).
func NewHTTPTestClient(baseURL string, client *http.Client) HTTPTestClient {
	if client == nil {
		client = http.DefaultClient
	}

	return &httpTestClient{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

func Bearer(token string) http.Header {
	headers := make(http.Header)
	if token != "" {
		headers.Set("Authorization", "Bearer "+token)
	}

	return headers
}

func (tc *httpTestClient) Get(ctx context.Context, tb testing.TB, url string, headers ...http.Header) (respBody string, statusCode int, header http.Header) {
	tb.Helper()

	return tc.doRequest(ctx, tb, http.MethodGet, url, nil, headers...)
}

func (tc *httpTestClient) Delete(ctx context.Context, tb testing.TB, url string, headers ...http.Header) (respBody string, statusCode int, header http.Header) {
	tb.Helper()

	return tc.doRequest(ctx, tb, http.MethodDelete, url, nil, headers...)
}

func (tc *httpTestClient) Post(
	ctx context.Context,
	tb testing.TB,
	url string,
	body io.Reader,
	headers ...http.Header,
) (respBody string, statusCode int, header http.Header) {
	tb.Helper()

	return tc.doRequest(ctx, tb, http.MethodPost, url, body, headers...)
}

func (tc *httpTestClient) PostJSON(
	ctx context.Context,
	tb testing.TB,
	url string,
	jsonData string,
	headers ...http.Header,
) (respBody string, statusCode int, header http.Header) {
	tb.Helper()

	return tc.doRequest(ctx, tb, http.MethodPost, url, strings.NewReader(jsonData), append(headers, http.Header{"Content-Type": []string{jsonContentType}})...)
}

func (tc *httpTestClient) Put(
	ctx context.Context,
	tb testing.TB,
	url string,
	body io.Reader,
	headers ...http.Header,
) (respBody string, statusCode int, header http.Header) {
	tb.Helper()

	return tc.doRequest(ctx, tb, http.MethodPut, url, body, headers...)
}

func (tc *httpTestClient) Patch(
	ctx context.Context,
	tb testing.TB,
	url string,
	body io.Reader,
	headers ...http.Header,
) (respBody string, statusCode int, header http.Header) {
	tb.Helper()

	return tc.doRequest(ctx, tb, http.MethodPatch, url, body, headers...)
}

//nolint:revive // Looks alot better.
func (tc *httpTestClient) doRequest(
	ctx context.Context,
	tb testing.TB,
	method,
	url string,
	body io.Reader,
	headers ...http.Header,
) (respBody string, statusCode int, header http.Header) {
	tb.Helper()

	r, err := http.NewRequestWithContext(ctx, method, tc.baseURL+url, body)
	require.NoError(tb, err)
	addHeaders(headers, r)
	resp, err := tc.client.Do(r)
	require.NoError(tb, err)
	defer func() { assert.NoError(tb, resp.Body.Close()) }()

	b, err := io.ReadAll(resp.Body)
	require.NoError(tb, err)
	respBody = string(b)

	return respBody, resp.StatusCode, resp.Header
}

func (tc *httpTestClient) TestHealthCheck(ctx context.Context, tb testing.TB) {
	tb.Helper()

	body, status, headers := tc.Get(ctx, tb, "/health-check", http.Header{"CF-Connecting-IP": []string{"1.2.3.4"}})
	assert.JSONEq(tb, `{"clientIp":"1.2.3.4"}`, body)
	assert.Equal(tb, http.StatusOK, status)
	assert.Equal(tb, "application/json; charset=utf-8", headers.Get("Content-Type"))
}

func addHeaders(headers []http.Header, r *http.Request) {
	for _, hdrs := range headers {
		for k, vs := range hdrs {
			for _, v := range vs {
				r.Header.Add(k, v)
			}
		}
	}
}

// AssertUnauthorized checks the one response every refused token gets, whatever the reason.
func (*httpTestClient) AssertUnauthorized(tb testing.TB, body string, status int) {
	tb.Helper()

	assert.JSONEq(tb, unauthorizedRespBody, body)
	assert.Equal(tb, http.StatusUnauthorized, status)
}
