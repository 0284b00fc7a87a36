// SPDX-License-Identifier: ice License 1.0

package server

import (
	"context"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ice-blockchain/warden/auth"
)

// Public API.

const (
	RateLimitLimitHeader     = "X-RateLimit-Limit"
	RateLimitWindowHeader    = "X-RateLimit-Window"
	RateLimitRemainingHeader = "X-RateLimit-Remaining"
	RateLimitResetHeader     = "X-RateLimit-Reset"
)

type (
	Router = gin.Engine
	Server interface {
		// ListenAndServe starts everything and blocks indefinitely.
		ListenAndServe(ctx context.Context, cancel context.CancelFunc)
		// Handler builds the routes of an already initialized State without listening.
		Handler(ctx context.Context) http.Handler
	}
	// AuthenticatedUser is the payload structure extracted from the Authorization header, after a successful authentication.
	AuthenticatedUser struct {
		auth.Token
	}
	// State is the actual custom behaviour that has to be implemented by users of this package to customize their http server`s lifecycle.
	State interface {
		Init(ctx context.Context, cancel context.CancelFunc)
		Close(ctx context.Context) error
		RegisterRoutes(r *Router)
		CheckHealth(ctx context.Context) error
	}
	// Request is bound from the REQ struct tags: `json`, `uri`, `form` and `header` select the bindings,
	// `required:"true"` fields must be non zero, `allowUnauthorized:"true"` skips the access token and
	// `owner:"true"` marks the int64 user id the caller must be allowed to manage.
	Request[REQ any, RESP any] struct {
		Data              *REQ                        `json:"data,omitempty"`
		ginCtx            *gin.Context                //nolint:structcheck // Wrong.
		AuthenticatedUser AuthenticatedUser           `json:"authenticatedUser,omitempty"`
		ClientIP          net.IP                      `json:"clientIp,omitempty"`
		bindings          map[requestBinding]struct{} //nolint:structcheck // Wrong.
		ownerField        string                      //nolint:structcheck // Wrong.
		requiredFields    []string                    //nolint:structcheck // Wrong.
		allowUnauthorized bool                        //nolint:structcheck // Wrong.
	}
	Response[RESP any] struct {
		Data    *RESP
		Headers map[string]string
		Code    int
	}
	// ErrorResponse is the struct that is eventually serialized as a negative response back to the user.
	ErrorResponse struct {
		error `json:"-"`
		Data  map[string]any `json:"data,omitempty"`
		Error string         `json:"error"`
		Code  string         `json:"code,omitempty"`
	}
	Config struct {
		HTTPServer struct {
			CertPath string `yaml:"certPath" mapstructure:"certPath"`
			KeyPath  string `yaml:"keyPath" mapstructure:"keyPath"`
			Port     uint16 `yaml:"port" mapstructure:"port"`
		} `yaml:"httpServer" mapstructure:"httpServer"`
		DefaultEndpointTimeout time.Duration `yaml:"defaultEndpointTimeout" mapstructure:"defaultEndpointTimeout"`
	}
)

// Private API.

const (
	json requestBinding = iota
	uri
	query
	header

	defaultEndpointTimeout = 30 * time.Second
	invalidTokenMessage    = "invalid or expired token"
)

const (
	requestingUserIDCtxValueKey = "requestingUserIDCtxValueKey"

	authClientCtxValueKey = "authClientCtxValueKey"
)

var (
	//nolint:gochecknoglobals // Because its loaded once, at runtime.
	development bool
	//nolint:gochecknoglobals // Because its loaded once, at runtime.
	cfg Config
	//nolint:gochecknoglobals // Config and gin modes are process wide.
	setupOnce sync.Once
)

type (
	healthCheck struct {
		_ struct{} `allowUnauthorized:"true"` //nolint:revive // It's processed by the router.
	}
	requestBinding uint8
	// | srv is the internal representation of everything needed to bootstrap the http server.
	srv struct {
		State
		authClient auth.Client
		server     *http.Server
		router     *Router
		quit       chan<- os.Signal
	}
)
