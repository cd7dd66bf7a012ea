// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"

	deliverycontext "securelogin/internal/delivery/context"
	"securelogin/internal/domain/entity"
	domainerrors "securelogin/internal/domain/errors"
	"securelogin/internal/domain/repository"
	"securelogin/internal/domain/service"
	"securelogin/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// sessionTokenService implements the SessionTokenUsecase interface.
type sessionTokenService struct {
	txManager       repository.TransactionManager
	sessionRepo     repository.SessionRepository
	tokenService    service.TokenService
	revocationCache service.RevocationCache
	logger          *slog.Logger
}

// SessionTokenServiceParams holds dependencies for sessionTokenService, injected by Fx.
type SessionTokenServiceParams struct {
	fx.In

	TxManager       repository.TransactionManager
	SessionRepo     repository.SessionRepository
	TokenService    service.TokenService
	RevocationCache service.RevocationCache `optional:"true"`
	Logger          *slog.Logger
}

// NewSessionTokenService is the constructor for sessionTokenService.
func NewSessionTokenService(params SessionTokenServiceParams) usecase.SessionTokenUsecase {
	return &sessionTokenService{
		txManager:       params.TxManager,
		sessionRepo:     params.SessionRepo,
		tokenService:    params.TokenService,
		revocationCache: params.RevocationCache,
		logger:          params.Logger,
	}
}

func (srv *sessionTokenService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// StartNewSession mints a fresh token pair under a new session identifier
// and persists the session row. Every login gets its own session; an old
// session of the same user is never resurrected.
func (srv *sessionTokenService) StartNewSession(ctx context.Context, userID uuid.UUID) (*service.TokenPair, error) {
	sessionID := uuid.New()

	pair, refreshClaims, err := srv.tokenService.GeneratePair(userID, sessionID, true)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate token pair")
	}

	session := &entity.Session{
		SessionID: sessionID,
		UserID:    userID,
		JTI:       refreshClaims.JTI,
		Active:    true,
		CreatedAt: refreshClaims.IssuedAt.Time,
		ExpiresAt: refreshClaims.ExpiresAt.Time,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.SessionRepo().Create(ctx, session); err != nil {
			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to persist new session", "error", err, "userID", userID)

		return nil, errors.Wrap(err, "failed to persist new session")
	}

	srv.log(ctx).Debug("Session started", "userID", userID, "sessionID", sessionID)

	return pair, nil
}

// Refresh rotates the refresh token inside a single transaction. The row
// lock serializes concurrent refreshes of the same session: the loser
// re-reads the winner's jti and fails the obsolete-token check.
func (srv *sessionTokenService) Refresh(ctx context.Context, claims *service.Claims) (*service.TokenPair, error) {
	if claims.Type != service.TokenTypeRefresh {
		return nil, domainerrors.ErrTokenInvalid.WrapMessage("refresh requires a refresh token")
	}

	var pair *service.TokenPair

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		sessionRepo := repoFactory.SessionRepo()

		session, err := sessionRepo.FindBySessionIDForUpdate(ctx, claims.SessionID)
		if err := refreshSanityCheck(session, err, claims); err != nil {
			return err
		}

		newPair, newRefreshClaims, err := srv.tokenService.GeneratePair(claims.UserID, claims.SessionID, false)
		if err != nil {
			return errors.Wrap(err, "failed to generate rotated token pair")
		}

		session.JTI = newRefreshClaims.JTI
		session.CreatedAt = newRefreshClaims.IssuedAt.Time
		session.ExpiresAt = newRefreshClaims.ExpiresAt.Time

		if err := sessionRepo.UpdateRotation(ctx, session); err != nil {
			return errors.WithStack(err)
		}
		pair = newPair

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Token refresh rejected", "error", err, "sessionID", claims.SessionID)

		return nil, err
	}

	srv.log(ctx).Debug("Token rotated", "userID", claims.UserID, "sessionID", claims.SessionID)

	return pair, nil
}

// Logout deactivates the session named by the refresh token. The refresh
// token may already be expired; the session row is the source of truth.
func (srv *sessionTokenService) Logout(ctx context.Context, refreshToken string, accessClaims *service.Claims) error {
	refreshClaims, err := srv.tokenService.DecodeToken(refreshToken)
	if err != nil || refreshClaims.Type != service.TokenTypeRefresh {
		return domainerrors.ErrTokenInvalid.WrapMessage("logout requires a refresh token")
	}

	if accessClaims != nil && accessClaims.UserID != refreshClaims.UserID {
		return domainerrors.ErrLogoutInvalidUserID.WrapMessage("logout rejected")
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		sessionRepo := repoFactory.SessionRepo()

		session, err := sessionRepo.FindBySessionID(ctx, refreshClaims.SessionID)
		if err := refreshSanityCheck(session, err, refreshClaims); err != nil {
			return err
		}

		if err := sessionRepo.Deactivate(ctx, session.SessionID); err != nil {
			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Logout rejected", "error", err, "sessionID", refreshClaims.SessionID)

		return err
	}

	srv.log(ctx).Info("Session logged out", "userID", refreshClaims.UserID, "sessionID", refreshClaims.SessionID)

	return nil
}

// LogoutAllOtherSessions deactivates every session of the user except the
// one named by the refresh token. Row mutations are idempotent, so a crash
// mid-loop is safe to retry.
func (srv *sessionTokenService) LogoutAllOtherSessions(ctx context.Context, accessClaims *service.Claims, refreshToken string) error {
	refreshClaims, err := srv.tokenService.DecodeToken(refreshToken)
	if err != nil || refreshClaims.Type != service.TokenTypeRefresh {
		return domainerrors.ErrTokenInvalid.WrapMessage("kickout requires a refresh token")
	}

	if accessClaims != nil && accessClaims.UserID != refreshClaims.UserID {
		return domainerrors.ErrKickoutInvalidUserID.WrapMessage("kickout rejected")
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		sessionRepo := repoFactory.SessionRepo()

		sessions, err := sessionRepo.FindByUserID(ctx, refreshClaims.UserID)
		if err != nil {
			return errors.WithStack(err)
		}

		for _, session := range sessions {
			if session.SessionID == refreshClaims.SessionID || !session.Active {
				continue
			}
			if err := sessionRepo.Deactivate(ctx, session.SessionID); err != nil {
				srv.log(ctx).Warn("Failed to deactivate session", "sessionID", session.SessionID, "error", err)
			}
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Kickout failed", "error", err, "userID", refreshClaims.UserID)

		return errors.Wrap(err, "failed to logout other sessions")
	}

	srv.log(ctx).Info("Other sessions logged out", "userID", refreshClaims.UserID, "currentSessionID", refreshClaims.SessionID)

	return nil
}

// IsRevoked reports whether the token is revoked. Refresh tokens check the
// session row; access tokens consult the optional revocation cache and are
// otherwise valid until expiry.
func (srv *sessionTokenService) IsRevoked(ctx context.Context, claims *service.Claims) (bool, error) {
	if claims.Type != service.TokenTypeRefresh {
		if srv.revocationCache == nil {
			return false, nil
		}

		revoked, err := srv.revocationCache.IsRevoked(ctx, claims.JTI)
		if err != nil {
			return false, errors.Wrap(err, "failed to consult revocation cache")
		}

		return revoked, nil
	}

	session, err := srv.sessionRepo.FindBySessionID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return true, nil
		}

		return false, errors.WithStack(err)
	}

	if session.JTI != claims.JTI || !session.Active {
		return true, nil
	}

	return false, nil
}

// PurgeExpiredSessions removes session rows whose refresh token expired.
func (srv *sessionTokenService) PurgeExpiredSessions(ctx context.Context) error {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.SessionRepo().DeleteExpired(ctx); err != nil {
			return errors.WithStack(err)
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to purge expired sessions", "error", err)

		return errors.Wrap(err, "failed to purge expired sessions")
	}

	return nil
}

// refreshSanityCheck validates a presented refresh token against its session
// row. The order is deliberate: missing login, superseded token, wrong
// owner, logged-out session. Each check only reveals what the coarser one
// already would.
func refreshSanityCheck(session *entity.Session, lookupErr error, claims *service.Claims) error {
	if lookupErr != nil {
		if errors.Is(lookupErr, repository.ErrSessionNotFound) {
			return domainerrors.ErrAccountNoLogin.WrapMessage("refresh token has no session")
		}

		return errors.WithStack(lookupErr)
	}

	if session.JTI != claims.JTI {
		return domainerrors.ErrAccountObsoleteToken.WrapMessage("refresh token superseded")
	}

	if session.UserID != claims.UserID {
		return domainerrors.ErrAccountInvalidSession.WrapMessage("session owner mismatch")
	}

	if !session.Active {
		return domainerrors.ErrAccountInactiveToken.WrapMessage("session already logged out")
	}

	return nil
}
