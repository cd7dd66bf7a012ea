package middleware

import (
	"strings"

	"securelogin/internal/domain/service"
	"securelogin/internal/usecase"

	domainerrors "securelogin/internal/domain/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// contextKeyClaims is the echo.Context key the validated claims are stored
// under.
const contextKeyClaims = "authClaims"

// AuthMiddleware gates routes on a bearer token. Three gates exist: a plain
// access token, a fresh access token for sensitive operations, and a
// refresh token for the rotation endpoint. Every gate also runs the
// revocation check.
type AuthMiddleware struct {
	tokenService service.TokenService
	sessions     usecase.SessionTokenUsecase
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenService service.TokenService, sessions usecase.SessionTokenUsecase) *AuthMiddleware {
	return &AuthMiddleware{tokenService: tokenService, sessions: sessions}
}

// RequireAccess admits requests carrying a valid access token.
func (m *AuthMiddleware) RequireAccess() echo.MiddlewareFunc {
	return m.gate(service.TokenTypeAccess, false)
}

// RequireFreshAccess admits only access tokens minted by a login, not by a
// refresh. A valid but non-fresh token fails with a distinct error so
// clients know to re-authenticate rather than refresh.
func (m *AuthMiddleware) RequireFreshAccess() echo.MiddlewareFunc {
	return m.gate(service.TokenTypeAccess, true)
}

// RequireRefresh admits requests carrying a valid refresh token.
func (m *AuthMiddleware) RequireRefresh() echo.MiddlewareFunc {
	return m.gate(service.TokenTypeRefresh, false)
}

func (m *AuthMiddleware) gate(tokenType string, requireFresh bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c)
			if err != nil {
				return err
			}

			claims, err := m.tokenService.ValidateToken(tokenString)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					if tokenType == service.TokenTypeRefresh {
						return domainerrors.ErrRefreshTokenExpired.WrapMessage("token gate")
					}

					return domainerrors.ErrAccessTokenExpired.WrapMessage("token gate")
				}

				return domainerrors.ErrTokenInvalid.WrapMessage("token gate")
			}

			if claims.Type != tokenType {
				return domainerrors.ErrTokenInvalid.WrapMessage("wrong token type")
			}

			if requireFresh && !claims.Fresh {
				return domainerrors.ErrFreshTokenRequired.WrapMessage("token gate")
			}

			revoked, err := m.sessions.IsRevoked(c.Request().Context(), claims)
			if err != nil {
				return errors.WithStack(err)
			}
			if revoked {
				return domainerrors.ErrTokenRevoked.WrapMessage("token gate")
			}

			c.Set(contextKeyClaims, claims)

			return next(c)
		}
	}
}

// GetClaims returns the validated claims stored by a token gate.
func GetClaims(c echo.Context) (*service.Claims, bool) {
	claims, ok := c.Get(contextKeyClaims).(*service.Claims)

	return claims, ok
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", domainerrors.ErrTokenInvalid.WrapMessage("authorization header missing")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || tokenString == "" {
		return "", domainerrors.ErrTokenInvalid.WrapMessage("authorization header is not a bearer token")
	}

	return tokenString, nil
}
