package impl

import (
	"context"
	"testing"
	"time"

	domainerrors "securelogin/internal/domain/errors"
	"securelogin/internal/domain/entity"
	"securelogin/internal/domain/service"
	"securelogin/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineFixtures struct {
	engine       usecase.SessionTokenUsecase
	store        *memoryStore
	tokenService service.TokenService
	cache        *stubRevocationCache
}

func createTestEngine(t *testing.T) engineFixtures {
	t.Helper()

	store := newMemoryStore()
	tokenService := newTestTokenService()
	cache := newStubRevocationCache()

	engine := NewSessionTokenService(SessionTokenServiceParams{
		TxManager:       &memoryTxManager{store: store},
		SessionRepo:     store.sessionRepo(),
		TokenService:    tokenService,
		RevocationCache: cache,
		Logger:          newDiscardLogger(),
	})

	return engineFixtures{
		engine:       engine,
		store:        store,
		tokenService: tokenService,
		cache:        cache,
	}
}

// refreshClaims parses the refresh token of a pair back into claims.
func (fx engineFixtures) refreshClaims(t *testing.T, pair *service.TokenPair) *service.Claims {
	t.Helper()

	claims, err := fx.tokenService.ValidateToken(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, service.TokenTypeRefresh, claims.Type)

	return claims
}

func (fx engineFixtures) accessClaims(t *testing.T, pair *service.TokenPair) *service.Claims {
	t.Helper()

	claims, err := fx.tokenService.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, service.TokenTypeAccess, claims.Type)

	return claims
}

func TestSessionTokenService_StartNewSession(t *testing.T) {
	fx := createTestEngine(t)
	ctx := context.Background()
	userID := uuid.New()

	pair, err := fx.engine.StartNewSession(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	access := fx.accessClaims(t, pair)
	assert.True(t, access.Fresh, "login must issue a fresh access token")
	assert.Equal(t, userID, access.UserID)

	refresh := fx.refreshClaims(t, pair)
	session, err := fx.store.sessionRepo().FindBySessionID(ctx, refresh.SessionID)
	require.NoError(t, err)
	assert.Equal(t, refresh.JTI, session.JTI, "session row mirrors the refresh jti")
	assert.Equal(t, userID, session.UserID)
	assert.True(t, session.Active)
}

func TestSessionTokenService_RefreshRotates(t *testing.T) {
	fx := createTestEngine(t)
	ctx := context.Background()
	userID := uuid.New()

	pair, err := fx.engine.StartNewSession(ctx, userID)
	require.NoError(t, err)
	oldClaims := fx.refreshClaims(t, pair)

	newPair, err := fx.engine.Refresh(ctx, oldClaims)
	require.NoError(t, err)

	newRefresh := fx.refreshClaims(t, newPair)
	assert.Equal(t, oldClaims.SessionID, newRefresh.SessionID, "the session identifier survives rotation")
	assert.NotEqual(t, oldClaims.JTI, newRefresh.JTI)

	newAccess := fx.accessClaims(t, newPair)
	assert.False(t, newAccess.Fresh, "a refresh issues a non-fresh access token")

	session, err := fx.store.sessionRepo().FindBySessionID(ctx, oldClaims.SessionID)
	require.NoError(t, err)
	assert.Equal(t, newRefresh.JTI, session.JTI)
	assert.True(t, session.Active)
}

func TestSessionTokenService_RefreshIsSingleUse(t *testing.T) {
	fx := createTestEngine(t)
	ctx := context.Background()

	pair, err := fx.engine.StartNewSession(ctx, uuid.New())
	require.NoError(t, err)
	oldClaims := fx.refreshClaims(t, pair)

	_, err = fx.engine.Refresh(ctx, oldClaims)
	require.NoError(t, err)

	// The superseded token still verifies cryptographically, but the stored
	// jti has moved on.
	_, err = fx.engine.Refresh(ctx, oldClaims)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrAccountObsoleteToken))
}

func TestSessionTokenService_RefreshSanityCheck(t *testing.T) {
	fx := createTestEngine(t)
	ctx := context.Background()

	pair, err := fx.engine.StartNewSession(ctx, uuid.New())
	require.NoError(t, err)
	valid := fx.refreshClaims(t, pair)

	t.Run("no session row", func(t *testing.T) {
		orphan := *valid
		orphan.SessionID = uuid.New()

		_, err := fx.engine.Refresh(ctx, &orphan)
		assert.True(t, errors.Is(err, domainerrors.ErrAccountNoLogin))
	})

	t.Run("session owner mismatch", func(t *testing.T) {
		forged := *valid
		forged.UserID = uuid.New()

		_, err := fx.engine.Refresh(ctx, &forged)
		assert.True(t, errors.Is(err, domainerrors.ErrAccountInvalidSession))
	})

	t.Run("access token rejected", func(t *testing.T) {
		access := fx.accessClaims(t, pair)

		_, err := fx.engine.Refresh(ctx, access)
		assert.True(t, errors.Is(err, domainerrors.ErrTokenInvalid))
	})

	t.Run("logged-out session", func(t *testing.T) {
		require.NoError(t, fx.engine.Logout(ctx, pair.RefreshToken, nil))

		_, err := fx.engine.Refresh(ctx, valid)
		assert.True(t, errors.Is(err, domainerrors.ErrAccountInactiveToken))
	})
}

func TestSessionTokenService_LogoutIsIdempotentToFailure(t *testing.T) {
	fx := createTestEngine(t)
	ctx := context.Background()

	pair, err := fx.engine.StartNewSession(ctx, uuid.New())
	require.NoError(t, err)
	access := fx.accessClaims(t, pair)

	require.NoError(t, fx.engine.Logout(ctx, pair.RefreshToken, access))

	err = fx.engine.Logout(ctx, pair.RefreshToken, access)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrAccountInactiveToken))
}

func TestSessionTokenService_LogoutSubjectMismatch(t *testing.T) {
	fx := createTestEngine(t)
	ctx := context.Background()

	pair, err := fx.engine.StartNewSession(ctx, uuid.New())
	require.NoError(t, err)

	otherPair, err := fx.engine.StartNewSession(ctx, uuid.New())
	require.NoError(t, err)
	otherAccess := fx.accessClaims(t, otherPair)

	err = fx.engine.Logout(ctx, pair.RefreshToken, otherAccess)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrLogoutInvalidUserID))

	// The session stays usable after the rejected logout.
	_, err = fx.engine.Refresh(ctx, fx.refreshClaims(t, pair))
	assert.NoError(t, err)
}

func TestSessionTokenService_LogoutGarbageToken(t *testing.T) {
	fx := createTestEngine(t)

	err := fx.engine.Logout(context.Background(), "not-a-token", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrTokenInvalid))
}

func TestSessionTokenService_SessionsAreIndependent(t *testing.T) {
	fx := createTestEngine(t)
	ctx := context.Background()
	userID := uuid.New()

	pairA, err := fx.engine.StartNewSession(ctx, userID)
	require.NoError(t, err)
	pairB, err := fx.engine.StartNewSession(ctx, userID)
	require.NoError(t, err)

	claimsA := fx.refreshClaims(t, pairA)
	claimsB := fx.refreshClaims(t, pairB)
	assert.NotEqual(t, claimsA.SessionID, claimsB.SessionID)
	assert.NotEqual(t, claimsA.JTI, claimsB.JTI)

	// Logging out A leaves B valid.
	require.NoError(t, fx.engine.Logout(ctx, pairA.RefreshToken, nil))

	_, err = fx.engine.Refresh(ctx, claimsB)
	assert.NoError(t, err)
}

func TestSessionTokenService_LogoutAllOtherSessions(t *testing.T) {
	fx := createTestEngine(t)
	ctx := context.Background()
	userID := uuid.New()

	pairA, err := fx.engine.StartNewSession(ctx, userID)
	require.NoError(t, err)
	pairB, err := fx.engine.StartNewSession(ctx, userID)
	require.NoError(t, err)
	pairC, err := fx.engine.StartNewSession(ctx, userID)
	require.NoError(t, err)

	accessA := fx.accessClaims(t, pairA)

	require.NoError(t, fx.engine.LogoutAllOtherSessions(ctx, accessA, pairA.RefreshToken))

	// The invoking session survives.
	_, err = fx.engine.Refresh(ctx, fx.refreshClaims(t, pairA))
	assert.NoError(t, err)

	// Every other session is gone.
	for _, pair := range []*service.TokenPair{pairB, pairC} {
		_, err = fx.engine.Refresh(ctx, fx.refreshClaims(t, pair))
		assert.True(t, errors.Is(err, domainerrors.ErrAccountInactiveToken))
	}
}

func TestSessionTokenService_LogoutAllOtherSessionsSubjectMismatch(t *testing.T) {
	fx := createTestEngine(t)
	ctx := context.Background()

	pair, err := fx.engine.StartNewSession(ctx, uuid.New())
	require.NoError(t, err)

	otherPair, err := fx.engine.StartNewSession(ctx, uuid.New())
	require.NoError(t, err)
	otherAccess := fx.accessClaims(t, otherPair)

	err = fx.engine.LogoutAllOtherSessions(ctx, otherAccess, pair.RefreshToken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrKickoutInvalidUserID))
}

func TestSessionTokenService_IsRevoked(t *testing.T) {
	fx := createTestEngine(t)
	ctx := context.Background()

	pair, err := fx.engine.StartNewSession(ctx, uuid.New())
	require.NoError(t, err)
	refresh := fx.refreshClaims(t, pair)
	access := fx.accessClaims(t, pair)

	t.Run("live refresh token", func(t *testing.T) {
		revoked, err := fx.engine.IsRevoked(ctx, refresh)
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("access token without revocation mark", func(t *testing.T) {
		revoked, err := fx.engine.IsRevoked(ctx, access)
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("access token with revocation mark", func(t *testing.T) {
		require.NoError(t, fx.cache.Revoke(ctx, access.JTI))

		revoked, err := fx.engine.IsRevoked(ctx, access)
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("unknown session", func(t *testing.T) {
		orphan := *refresh
		orphan.SessionID = uuid.New()

		revoked, err := fx.engine.IsRevoked(ctx, &orphan)
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("superseded refresh token", func(t *testing.T) {
		_, err := fx.engine.Refresh(ctx, refresh)
		require.NoError(t, err)

		revoked, err := fx.engine.IsRevoked(ctx, refresh)
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("logged-out session", func(t *testing.T) {
		// The session was rotated above; deactivate it directly.
		require.NoError(t, fx.store.sessionRepo().Deactivate(ctx, refresh.SessionID))

		session, err := fx.store.sessionRepo().FindBySessionID(ctx, refresh.SessionID)
		require.NoError(t, err)

		current := *refresh
		current.JTI = session.JTI

		revoked, err := fx.engine.IsRevoked(ctx, &current)
		require.NoError(t, err)
		assert.True(t, revoked)
	})
}

func TestSessionTokenService_IsRevokedWithoutCache(t *testing.T) {
	store := newMemoryStore()

	engine := NewSessionTokenService(SessionTokenServiceParams{
		TxManager:    &memoryTxManager{store: store},
		SessionRepo:  store.sessionRepo(),
		TokenService: newTestTokenService(),
		Logger:       newDiscardLogger(),
	})

	claims := &service.Claims{UserID: uuid.New(), JTI: uuid.New(), Type: service.TokenTypeAccess}

	revoked, err := engine.IsRevoked(context.Background(), claims)
	require.NoError(t, err)
	assert.False(t, revoked, "without a cache access tokens are valid until expiry")
}

func TestSessionTokenService_PurgeExpiredSessions(t *testing.T) {
	fx := createTestEngine(t)
	ctx := context.Background()

	pair, err := fx.engine.StartNewSession(ctx, uuid.New())
	require.NoError(t, err)
	live := fx.refreshClaims(t, pair)

	expired := &entity.Session{
		SessionID: uuid.New(),
		UserID:    uuid.New(),
		JTI:       uuid.New(),
		Active:    true,
		CreatedAt: time.Now().Add(-48 * time.Hour),
		ExpiresAt: time.Now().Add(-24 * time.Hour),
	}
	require.NoError(t, fx.store.sessionRepo().Create(ctx, expired))

	require.NoError(t, fx.engine.PurgeExpiredSessions(ctx))

	_, err = fx.store.sessionRepo().FindBySessionID(ctx, expired.SessionID)
	assert.Error(t, err)

	_, err = fx.store.sessionRepo().FindBySessionID(ctx, live.SessionID)
	assert.NoError(t, err)
}
