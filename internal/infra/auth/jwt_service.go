// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"securelogin/config"
	"securelogin/internal/domain/service"
)

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	accessSecret  string        // Secret key for signing access tokens.
	refreshSecret string        // Secret key for signing refresh tokens.
	accessTTL     time.Duration // Time-to-live for access tokens.
	refreshTTL    time.Duration // Time-to-live for refresh tokens.
}

// NewJWTService is the constructor for jwtService.
// It takes configuration values to create a new token service instance.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Access == "" || cfg.SecretKey.Refresh == "" {
		return nil, errors.New("jwt secrets must be provided")
	}

	return &jwtService{
		accessSecret:  cfg.SecretKey.Access,
		refreshSecret: cfg.SecretKey.Refresh,
		accessTTL:     cfg.Token.AccessTTL,
		refreshTTL:    cfg.Token.RefreshTTL,
	}, nil
}

// GeneratePair creates an access/refresh token pair bound to one session.
// The returned claims are the refresh token's; the session row mirrors its
// jti and timestamps.
func (s *jwtService) GeneratePair(userID, sessionID uuid.UUID, fresh bool) (*service.TokenPair, *service.Claims, error) {
	now := time.Now()

	accessToken, err := s.signToken(&service.Claims{
		UserID: userID,
		JTI:    uuid.New(),
		Fresh:  fresh,
		Type:   service.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}, s.accessSecret)
	if err != nil {
		return nil, nil, err
	}

	refreshClaims := &service.Claims{
		UserID:    userID,
		SessionID: sessionID,
		JTI:       uuid.New(),
		Type:      service.TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	}

	refreshToken, err := s.signToken(refreshClaims, s.refreshSecret)
	if err != nil {
		return nil, nil, err
	}

	return &service.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, refreshClaims, nil
}

// ValidateToken checks the signature and expiry of a token string.
// Expired tokens return jwt.ErrTokenExpired in the error chain so the
// boundary can report expiry distinctly from forgery.
func (s *jwtService) ValidateToken(tokenString string) (*service.Claims, error) {
	return s.parseToken(tokenString, jwt.WithExpirationRequired())
}

// DecodeToken parses a token string, accepting an expired one. The signature
// must still verify; only the exp check is relaxed.
func (s *jwtService) DecodeToken(tokenString string) (*service.Claims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil && errors.Is(err, jwt.ErrTokenExpired) {
		return claims, nil
	}

	return claims, err
}

// AccessTokenDuration returns the configured access token lifetime.
func (s *jwtService) AccessTokenDuration() time.Duration {
	return s.accessTTL
}

// RefreshTokenDuration returns the configured refresh token lifetime.
func (s *jwtService) RefreshTokenDuration() time.Duration {
	return s.refreshTTL
}

// tokenClaims is the JWT wire representation of service.Claims.
type tokenClaims struct {
	SessionID string `json:"sid,omitempty"`
	JTI       string `json:"jti"`
	Fresh     bool   `json:"fresh,omitempty"`
	Type      string `json:"type"`
	jwt.RegisteredClaims
}

func (s *jwtService) signToken(claims *service.Claims, secret string) (string, error) {
	wire := &tokenClaims{
		JTI:              claims.JTI.String(),
		Fresh:            claims.Fresh,
		Type:             claims.Type,
		RegisteredClaims: claims.RegisteredClaims,
	}
	if claims.Type == service.TokenTypeRefresh {
		wire.SessionID = claims.SessionID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, wire)

	return token.SignedString([]byte(secret))
}

// parseToken tries the access secret first, then the refresh secret, and
// cross-checks the recovered "type" claim against the secret that verified.
func (s *jwtService) parseToken(tokenString string, opts ...jwt.ParserOption) (*service.Claims, error) {
	var lastErr error
	for _, candidate := range []struct {
		secret    string
		tokenType string
	}{
		{s.accessSecret, service.TokenTypeAccess},
		{s.refreshSecret, service.TokenTypeRefresh},
	} {
		wire := new(tokenClaims)
		_, err := jwt.ParseWithClaims(tokenString, wire, func(token *jwt.Token) (any, error) {
			// Ensure the signing method is what we expect.
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}

			return []byte(candidate.secret), nil
		}, opts...)
		if err != nil && !errors.Is(err, jwt.ErrTokenExpired) {
			lastErr = err

			continue
		}

		if wire.Type != candidate.tokenType {
			lastErr = jwt.ErrTokenInvalidClaims

			continue
		}

		claims, convErr := fromWireClaims(wire)
		if convErr != nil {
			return nil, convErr
		}

		return claims, err
	}

	return nil, lastErr
}

func fromWireClaims(wire *tokenClaims) (*service.Claims, error) {
	userID, err := uuid.Parse(wire.Subject)
	if err != nil {
		return nil, jwt.ErrTokenInvalidSubject
	}

	jti, err := uuid.Parse(wire.JTI)
	if err != nil {
		return nil, jwt.ErrTokenInvalidId
	}

	claims := &service.Claims{
		UserID:           userID,
		JTI:              jti,
		Fresh:            wire.Fresh,
		Type:             wire.Type,
		RegisteredClaims: wire.RegisteredClaims,
	}

	if wire.SessionID != "" {
		sid, err := uuid.Parse(wire.SessionID)
		if err != nil {
			return nil, jwt.ErrTokenInvalidClaims
		}
		claims.SessionID = sid
	}

	return claims, nil
}
