// SPDX-License-Identifier: ice License 1.0

package server

import (
	"net/http"

	"github.com/pkg/errors"
)

func BadRequest(err error, code string, dataArg ...map[string]any) *Response[ErrorResponse] {
	return errorResponse(http.StatusBadRequest, err, code, dataArg...)
}

func UnprocessableEntity(err error, code string, dataArg ...map[string]any) *Response[ErrorResponse] {
	return errorResponse(http.StatusUnprocessableEntity, err, code, dataArg...)
}

func Conflict(err error, code string, dataArg ...map[string]any) *Response[ErrorResponse] {
	return errorResponse(http.StatusConflict, err, code, dataArg...)
}

func NotFound(err error, code string, dataArg ...map[string]any) *Response[ErrorResponse] {
	return errorResponse(http.StatusNotFound, err, code, dataArg...)
}

func TooManyRequests(err error, dataArg ...map[string]any) *Response[ErrorResponse] {
	return errorResponse(http.StatusTooManyRequests, err, "RATE_LIMIT_EXCEEDED", dataArg...)
}

func Unexpected(err error) *Response[ErrorResponse] {
	return &Response[ErrorResponse]{
		Code: -1,
		Data: &ErrorResponse{
			error: err,
			Error: err.Error(),
		},
	}
}

// Unauthorized never tells the caller why the token was refused, the cause is only logged.
func Unauthorized(err error) *Response[ErrorResponse] {
	return &Response[ErrorResponse]{
		Code: http.StatusUnauthorized,
		Data: &ErrorResponse{
			error: errors.Wrapf(err, "authorization failed"),
			Error: invalidTokenMessage,
			Code:  "INVALID_TOKEN",
		},
	}
}

// Unauthenticated refuses credentials other than bearer tokens, e.g. a password or a missing second factor.
func Unauthenticated(err error, code string, dataArg ...map[string]any) *Response[ErrorResponse] {
	return errorResponse(http.StatusUnauthorized, err, code, dataArg...)
}

func Forbidden(err error, dataArg ...map[string]any) *Response[ErrorResponse] {
	return errorResponse(http.StatusForbidden, err, "OPERATION_NOT_ALLOWED", dataArg...)
}

func errorResponse(status int, err error, code string, dataArg ...map[string]any) *Response[ErrorResponse] {
	var data map[string]any
	if len(dataArg) == 1 {
		data = dataArg[0]
	}

	return &Response[ErrorResponse]{
		Data: &ErrorResponse{
			error: err,
			Error: err.Error(),
			Code:  code,
			Data:  data,
		},
		Code: status,
	}
}

func NoContent() *Response[any] {
	return &Response[any]{Code: http.StatusNoContent}
}

func Created[RESP any](resp *RESP) *Response[RESP] {
	return &Response[RESP]{Code: http.StatusCreated, Data: resp}
}

func OK[RESP any](responses ...*RESP) *Response[RESP] {
	var resp *RESP
	if len(responses) == 1 {
		resp = responses[0]
	}

	return &Response[RESP]{Code: http.StatusOK, Data: resp}
}

func (e *ErrorResponse) Fail(err error) *ErrorResponse {
	e.error = err

	return e
}

func (e *ErrorResponse) InternalErr() error {
	return e.error
}
