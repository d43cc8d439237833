package echoapi

import (
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/scibridge/scibridge/core"
	"github.com/scibridge/scibridge/core/account"
	"github.com/scibridge/scibridge/core/authz"
)

const (
	contextTokenKey = "accountToken"
	contextActorKey = "actor"

	// headerUserEmail carries the caller's email when the deployment trusts the client to identify itself.
	headerUserEmail = "X-User-Email"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Email string     `json:"email,omitempty"`
	Role  authz.Role `json:"role,omitempty"`
}

var _ jwt.Claims = (*Claims)(nil)

type tokenIssuer struct {
	issuer     string
	method     jwt.SigningMethod
	key        []byte
	expiration time.Duration
}

func newTokenIssuer(conf *core.Config, jwtConf middleware.JWTConfig) *tokenIssuer {
	key, _ := jwtConf.SigningKey.([]byte)
	return &tokenIssuer{
		issuer:     conf.AppName,
		method:     jwt.GetSigningMethod(jwtConf.SigningMethod),
		key:        key,
		expiration: conf.Server.JWTExpiration,
	}
}

func (ti *tokenIssuer) claims(prof account.Profile) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    ti.issuer,
			Subject:   prof.ID,
			ExpiresAt: now.Add(ti.expiration).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: prof.Email,
		Role:  prof.Role,
	}
}

// GenerateToken returns a signed JWT for the account.
func (ti *tokenIssuer) GenerateToken(prof account.Profile) (string, error) {
	token := jwt.NewWithClaims(ti.method, ti.claims(prof))
	ss, err := token.SignedString(ti.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func noBearerToken(ctx echo.Context) bool {
	return strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderAuthorization)) == ""
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// actorMiddleware resolves the calling account from the bearer token or, when trusted, the identity header.
// The account is reloaded on every request so role and status changes apply at once.
func actorMiddleware(svc AccountService, trustHeader bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			reqCtx := ctx.Request().Context()

			var (
				acc account.Account
				err error
			)
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				acc, err = svc.GetByID(reqCtx, claims.Subject)
			} else if email := core.NormalizeEmail(ctx.Request().Header.Get(headerUserEmail)); trustHeader && email != "" {
				acc, err = svc.GetByEmail(reqCtx, email)
			} else {
				return errUnauthorized
			}
			if err != nil {
				if errors.Cause(err) == account.ErrNotFound {
					return errUnauthorized
				}
				return errors.Wrap(err, "loading actor")
			}

			ctx.Set(contextActorKey, acc)
			return next(ctx)
		}
	}
}

func getContextActor(ctx echo.Context) (account.Account, error) {
	if acc, ok := ctx.Get(contextActorKey).(account.Account); ok {
		return acc, nil
	}
	return account.Account{}, errUnauthorized
}
