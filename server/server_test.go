// SPDX-License-Identifier: ice License 1.0

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	stdlibtime "time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ice-blockchain/warden/auth"
	"github.com/ice-blockchain/warden/ratelimit"
	"github.com/ice-blockchain/warden/server/fixture"
	wardentesting "github.com/ice-blockchain/warden/testing"
	"github.com/ice-blockchain/warden/time"
	"github.com/ice-blockchain/warden/users"
)

const testApplicationYAMLKey = "self"

type (
	testState struct {
		limiter ratelimit.Limiter
		healthy atomic.Bool
	}
	getAccountArg struct {
		UserID int64 `uri:"userId" owner:"true" required:"true"`
	}
	publicArg struct {
		Name string `json:"name" required:"true" allowUnauthorized:"true"`
	}
	account struct {
		UserID    int64 `json:"userId"`
		CallerID  int64 `json:"callerId"`
		CallerCtx int64 `json:"callerCtx"`
	}
)

func (*testState) Init(context.Context, context.CancelFunc) {}

func (*testState) Close(context.Context) error { return nil }

func (s *testState) CheckHealth(context.Context) error {
	if !s.healthy.Load() {
		return errors.New("unhealthy")
	}

	return nil
}

func (s *testState) RegisterRoutes(r *Router) {
	r.GET("/v1/accounts/:userId", RootHandler(func(ctx context.Context, req *Request[getAccountArg, account]) (*Response[account], *Response[ErrorResponse]) {
		return OK(&account{UserID: req.Data.UserID, CallerID: req.AuthenticatedUser.UserID, CallerCtx: RequestingUserID(ctx)}), nil
	}))
	r.POST("/v1/public", RootHandler(func(_ context.Context, req *Request[publicArg, map[string]string]) (*Response[map[string]string], *Response[ErrorResponse]) {
		if req.Data.Name == "missing" {
			return nil, NotFound(errors.New("no such name"), "NAME_NOT_FOUND")
		}

		return OK(&map[string]string{"name": req.Data.Name}), nil
	}))
	r.Group("/v1/limited", RateLimit(s.limiter)).
		POST("", RootHandler(func(_ context.Context, _ *Request[publicArg, any]) (*Response[any], *Response[ErrorResponse]) {
			return NoContent(), nil
		}))
}

func startTestServer(t *testing.T, state *testState, client auth.Client) fixture.HTTPTestClient {
	t.Helper()
	ts := httptest.NewServer(New(state, testApplicationYAMLKey, client).Handler(t.Context()))
	t.Cleanup(ts.Close)

	return fixture.NewHTTPTestClient(ts.URL, ts.Client())
}

//nolint:funlen // A lot of cases.
func TestServer(t *testing.T) {
	t.Parallel()
	client := auth.New(testApplicationYAMLKey, users.NewInMemory())
	clock := wardentesting.NewClock(stdlibtime.Now())
	limiter := ratelimit.NewInMemory(2, stdlibtime.Minute, clock.Now)
	t.Cleanup(func() { require.NoError(t, limiter.Close()) })
	state := &testState{limiter: limiter}
	state.healthy.Store(true)
	httpClient := startTestServer(t, state, client)

	userToken, err := client.GenerateAccessToken(time.Now(), "jdoe@example.com", auth.RoleUser, 7)
	require.NoError(t, err)
	adminToken, err := client.GenerateAccessToken(time.Now(), "admin@example.com", auth.RoleAdmin, 1)
	require.NoError(t, err)
	refreshToken, err := client.GenerateRefreshToken(time.Now(), "jdoe@example.com")
	require.NoError(t, err)

	t.Run("owner", func(t *testing.T) {
		body, code, _ := httpClient.Get(t.Context(), t, "/v1/accounts/7", fixture.Bearer(userToken))
		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"userId":7,"callerId":7,"callerCtx":7}`, body)
	})
	t.Run("admin", func(t *testing.T) {
		body, code, _ := httpClient.Get(t.Context(), t, "/v1/accounts/7", fixture.Bearer(adminToken))
		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"userId":7,"callerId":1,"callerCtx":1}`, body)
	})
	t.Run("forbidden", func(t *testing.T) {
		body, code, _ := httpClient.Get(t.Context(), t, "/v1/accounts/8", fixture.Bearer(userToken))
		assert.Equal(t, http.StatusForbidden, code)
		assert.Contains(t, body, "OPERATION_NOT_ALLOWED")
	})
	t.Run("uniform unauthorized", func(t *testing.T) {
		for _, token := range []string{"", "garbage", refreshToken, userToken + "x"} {
			body, code, _ := httpClient.Get(t.Context(), t, "/v1/accounts/7", fixture.Bearer(token))
			httpClient.AssertUnauthorized(t, body, code)
		}
	})
	t.Run("binding", func(t *testing.T) {
		body, code, _ := httpClient.Get(t.Context(), t, "/v1/accounts/abc", fixture.Bearer(userToken))
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Contains(t, body, "STRUCTURE_VALIDATION_FAILED")
		body, code, _ = httpClient.PostJSON(t.Context(), t, "/v1/public", `{}`)
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Contains(t, body, "MISSING_PROPERTIES")
		body, code, _ = httpClient.PostJSON(t.Context(), t, "/v1/public", `{"name":"bob"}`)
		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"name":"bob"}`, body)
		body, code, _ = httpClient.PostJSON(t.Context(), t, "/v1/public", `{"name":"missing"}`)
		assert.Equal(t, http.StatusNotFound, code)
		assert.JSONEq(t, `{"error":"no such name","code":"NAME_NOT_FOUND"}`, body)
	})
	t.Run("rate limit", func(t *testing.T) {
		for i, remaining := range []string{"1", "0"} {
			_, code, headers := httpClient.PostJSON(t.Context(), t, "/v1/limited", `{"name":"bob"}`)
			assert.Equal(t, http.StatusNoContent, code, i)
			assert.Equal(t, "2", headers.Get(RateLimitLimitHeader))
			assert.Equal(t, "60", headers.Get(RateLimitWindowHeader))
			assert.Equal(t, remaining, headers.Get(RateLimitRemainingHeader))
			assert.Equal(t, "60", headers.Get(RateLimitResetHeader))
		}
		body, code, headers := httpClient.PostJSON(t.Context(), t, "/v1/limited", `{"name":"bob"}`)
		assert.Equal(t, http.StatusTooManyRequests, code)
		assert.Equal(t, "0", headers.Get(RateLimitRemainingHeader))
		assert.JSONEq(t, `{"error":"rate limit exceeded","code":"RATE_LIMIT_EXCEEDED","data":{"limit":2,"windowSeconds":60,"remaining":0,"resetSeconds":60}}`, body) //nolint:lll // .

		clock.Advance(stdlibtime.Minute + stdlibtime.Second)
		_, code, _ = httpClient.PostJSON(t.Context(), t, "/v1/limited", `{"name":"bob"}`)
		assert.Equal(t, http.StatusNoContent, code)
	})
	t.Run("health check", func(t *testing.T) {
		httpClient.TestHealthCheck(t.Context(), t)
		state.healthy.Store(false)
		_, code, _ := httpClient.Get(t.Context(), t, "/health-check")
		assert.Equal(t, http.StatusInternalServerError, code)
	})
}
