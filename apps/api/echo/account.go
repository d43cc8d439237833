package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/scibridge/scibridge/core/account"
	"github.com/scibridge/scibridge/services/metrics"
)

const (
	msgRegistered = "Account created. Please check your email for the verification code."
	msgVerified   = "Email verified. You can now sign in."
	msgResent     = "A new verification code is on its way."
	msgSignedIn   = "Signed in successfully."
)

type authApi struct {
	svc    AccountService
	tokens *tokenIssuer
}

func registerAuthAPI(g *echo.Group, svc AccountService, tokens *tokenIssuer) {
	api := authApi{svc: svc, tokens: tokens}

	ag := g.Group("/auth")
	ag.POST("/register", api.register)
	ag.POST("/verify", api.verify)
	ag.POST("/resend", api.resend)
	ag.POST("/login", api.login)
}

func (api *authApi) register(ctx echo.Context) error {
	var data account.NewAccount
	if err := bind(ctx, &data); err != nil {
		return err
	}

	_, err := api.svc.Register(ctx.Request().Context(), data)
	metrics.AuthEvent("register", err)
	if err != nil {
		return errors.Wrap(err, "registering account")
	}
	return ctx.JSON(http.StatusCreated, messageResponse{Message: msgRegistered})
}

func (api *authApi) verify(ctx echo.Context) error {
	var data verifyRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}

	_, err := api.svc.Verify(ctx.Request().Context(), data.Email, data.Code)
	metrics.AuthEvent("verify", err)
	if err != nil {
		return errors.Wrap(err, "verifying account")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: msgVerified})
}

func (api *authApi) resend(ctx echo.Context) error {
	var data resendRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}

	err := api.svc.ResendCode(ctx.Request().Context(), data.Email)
	metrics.AuthEvent("resend", err)
	if err != nil {
		return errors.Wrap(err, "resending verification code")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: msgResent})
}

func (api *authApi) login(ctx echo.Context) error {
	var data loginRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}

	prof, err := api.svc.Login(ctx.Request().Context(), data.Email, data.Password)
	metrics.AuthEvent("login", err)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return errLoginNotFound
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.tokens.GenerateToken(prof)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, loginResponse{Message: msgSignedIn, User: prof, Token: token})
}
