package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/scibridge/scibridge/core"
	"github.com/scibridge/scibridge/core/account"
)

var errMalformedBody = errors.New("request body is not valid JSON")

// bind decodes the request body into dst. Malformed payloads are client errors.
func bind(ctx echo.Context, dst interface{}) error {
	if err := ctx.Bind(dst); err != nil {
		if _, ok := err.(*echo.HTTPError); ok {
			return core.NewValidationError(errMalformedBody)
		}
		return errors.Wrap(err, "binding request body")
	}
	return nil
}

type (
	verifyRequest struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}

	resendRequest struct {
		Email string `json:"email"`
	}

	loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	messageResponse struct {
		Message string `json:"message"`
	}

	loginResponse struct {
		Message string          `json:"message"`
		User    account.Profile `json:"user"`
		Token   string          `json:"token"`
	}
)
