package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/scibridge/scibridge/core"
	"github.com/scibridge/scibridge/core/account"
	"github.com/scibridge/scibridge/core/authz"
	"github.com/scibridge/scibridge/core/console"
	"github.com/scibridge/scibridge/core/forum"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "Sign in to continue.")
	errLoginNotFound = echo.NewHTTPError(http.StatusNotFound, "Account not found. Please register first.")
)

type errorResponse struct {
	target  error
	code    int
	message string
}

// errorResponses maps domain errors to what clients see.
var errorResponses = []errorResponse{
	{account.ErrEmailExists, http.StatusConflict, "An account with this email already exists."},
	{account.ErrNotFound, http.StatusNotFound, "Account not found."},
	{account.ErrAlreadyVerified, http.StatusConflict, "Account already verified. You can sign in."},
	{account.ErrInvalidCode, http.StatusBadRequest, "Invalid verification code. Try again."},
	{account.ErrCodeExpired, http.StatusBadRequest, "Verification code expired. Request a new one."},
	{account.ErrNotVerified, http.StatusForbidden, "Please verify your email before signing in."},
	{account.ErrInvalidCredentials, http.StatusUnauthorized, "Incorrect email or password."},
	{account.ErrAccountBanned, http.StatusForbidden, "This account has been banned."},
	{account.ErrResendTooSoon, http.StatusTooManyRequests, "Please wait a minute before requesting another code."},
	{account.ErrDeliveryFailed, http.StatusInternalServerError, "Could not send verification email. Try again later."},
	{account.ErrStaleAccount, http.StatusConflict, "The account changed while saving. Try again."},
	{account.ErrInvalidStatus, http.StatusBadRequest, "Invalid status."},
	{authz.ErrInvalidRole, http.StatusBadRequest, "Invalid role."},
	{authz.ErrForbidden, http.StatusForbidden, "You do not have permission to perform this action."},
	{console.ErrCannotModerateSelf, http.StatusForbidden, "You cannot change your own role or status."},
	{forum.ErrPostNotFound, http.StatusNotFound, "Post not found."},
}

func lookupErrorResponse(err error) (errorResponse, bool) {
	for _, resp := range errorResponses {
		if errors.Is(err, resp.target) {
			return resp, true
		}
	}
	return errorResponse{}, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		body := echo.Map{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				body["message"] = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if msg, ok := origErr.Message.(string); ok {
				body["message"] = msg
			} else {
				body["message"] = fmt.Sprint(origErr.Message)
			}
		case *core.ValidationError:
			code = http.StatusBadRequest
			body["message"] = origErr.Error()
			if fields := origErr.FieldMap(); fields != nil {
				body["fields"] = fields
			}
		default:
			if resp, ok := lookupErrorResponse(err); ok {
				code = resp.code
				body["message"] = resp.message
				if code == http.StatusInternalServerError {
					logger.Error(resp.message, append([]interface{}{err}, actorLogArgs(ctx)...)...)
				}
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			body["message"] = msg
			logger.Error(msg, append([]interface{}{errors.Wrap(err, msg)}, actorLogArgs(ctx)...)...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code >= http.StatusInternalServerError {
			body["error"] = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// actorLogArgs returns the calling account for log enrichment, if one was resolved.
func actorLogArgs(ctx echo.Context) []interface{} {
	if acc, err := getContextActor(ctx); err == nil {
		return []interface{}{acc}
	}
	if claims, err := getContextClaims(ctx); err == nil {
		return []interface{}{map[string]interface{}{"account_id": claims.Subject}}
	}
	return nil
}
