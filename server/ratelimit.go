// SPDX-License-Identifier: ice License 1.0

package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/ice-blockchain/warden/log"
	"github.com/ice-blockchain/warden/ratelimit"
	"github.com/ice-blockchain/warden/terror"
)

// RateLimit counts requests per client ip and route, and refuses the ones over the limit with 429.
// The X-RateLimit-* headers are set on every response. A failing limiter fails closed.
func RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(ginCtx *gin.Context) {
		md, err := limiter.Check(ginCtx.Request.Context(), ginCtx.ClientIP()+ginCtx.FullPath())
		if md != nil {
			ginCtx.Header(RateLimitLimitHeader, strconv.Itoa(md.Limit))
			ginCtx.Header(RateLimitWindowHeader, strconv.Itoa(md.WindowSeconds))
			ginCtx.Header(RateLimitRemainingHeader, strconv.Itoa(md.Remaining))
			ginCtx.Header(RateLimitResetHeader, strconv.Itoa(md.ResetSeconds))
		}
		switch {
		case err == nil:
			ginCtx.Next()
		case errors.Is(err, ratelimit.ErrRateLimited):
			log.Warn("rate limit exceeded", "clientIp", ginCtx.ClientIP(), "path", ginCtx.FullPath())
			resp := TooManyRequests(err, terror.DataOf(err))
			ginCtx.AbortWithStatusJSON(resp.Code, resp.Data)
		default:
			log.Error(errors.Wrap(err, "rate limit check failed"), "clientIp", ginCtx.ClientIP())
			ginCtx.AbortWithStatusJSON(http.StatusServiceUnavailable, &ErrorResponse{Error: "please try again later"})
		}
	}
}
