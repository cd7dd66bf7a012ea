package impl

import (
	"context"
	"testing"
	"time"

	"securelogin/internal/domain/entity"
	domainerrors "securelogin/internal/domain/errors"
	"securelogin/internal/domain/service"
	"securelogin/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accountFixtures struct {
	accounts     usecase.AccountUsecase
	engine       usecase.SessionTokenUsecase
	store        *memoryStore
	sender       *stubSMSSender
	gateway      *stubSMSGateway
	tokenService service.TokenService
}

func createTestAccounts(t *testing.T) accountFixtures {
	t.Helper()

	store := newMemoryStore()
	tokenService := newTestTokenService()
	sender := &stubSMSSender{code: "123456"}
	gateway := &stubSMSGateway{sender: sender}
	logger := newDiscardLogger()

	engine := NewSessionTokenService(SessionTokenServiceParams{
		TxManager:    &memoryTxManager{store: store},
		SessionRepo:  store.sessionRepo(),
		TokenService: tokenService,
		Logger:       logger,
	})

	accounts := NewAccountService(AccountServiceParams{
		TxManager:  &memoryTxManager{store: store},
		UserRepo:   store.userRepo(),
		Hasher:     stubHasher{},
		SMSGateway: gateway,
		Sessions:   engine,
		Logger:     logger,
	})

	return accountFixtures{
		accounts:     accounts,
		engine:       engine,
		store:        store,
		sender:       sender,
		gateway:      gateway,
		tokenService: tokenService,
	}
}

// seedUser inserts a user directly into the store, bypassing registration.
func (fx accountFixtures) seedUser(t *testing.T, user entity.User) *entity.User {
	t.Helper()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.PublicID == uuid.Nil {
		user.PublicID = uuid.New()
	}
	if user.Status == "" {
		user.Status = entity.UserStatusActive
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	fx.store.mu.Lock()
	fx.store.users[user.ID] = user
	fx.store.mu.Unlock()

	return &user
}

func (fx accountFixtures) closeAccount(t *testing.T, id uuid.UUID) {
	t.Helper()

	fx.store.mu.Lock()
	defer fx.store.mu.Unlock()

	user, ok := fx.store.users[id]
	require.True(t, ok)
	user.Status = entity.UserStatusClosed
	fx.store.users[id] = user
}

func passwordRegisterInput(email string) *usecase.RegisterInput {
	return &usecase.RegisterInput{
		Username: "alice",
		AuthType: entity.AuthTypePassword,
		Email:    email,
		Password: "s3cret-password",
	}
}

func phoneRegisterInput(phone string) *usecase.RegisterInput {
	return &usecase.RegisterInput{
		Username: "bob",
		AuthType: entity.AuthTypePhone,
		Phone:    phone,
	}
}

func TestAccountService_RegisterWithPassword(t *testing.T) {
	fx := createTestAccounts(t)
	ctx := context.Background()

	out, err := fx.accounts.Register(ctx, passwordRegisterInput("alice@example.com"))
	require.NoError(t, err)
	require.NotNil(t, out.User)
	require.NotNil(t, out.Tokens, "password registration logs the account in")

	assert.Equal(t, entity.AuthTypePassword, out.User.AuthType)
	assert.Equal(t, "hashed:s3cret-password", out.User.PasswordHash)
	assert.NotEqual(t, uuid.Nil, out.User.PublicID)

	claims, err := fx.tokenService.ValidateToken(out.Tokens.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.Fresh)
	assert.Equal(t, out.User.ID, claims.UserID)
}

func TestAccountService_RegisterWithPhone(t *testing.T) {
	fx := createTestAccounts(t)

	out, err := fx.accounts.Register(context.Background(), phoneRegisterInput("+886912345678"))
	require.NoError(t, err)
	require.NotNil(t, out.User)

	assert.Nil(t, out.Tokens, "phone registration issues no tokens before OTP verification")
	assert.Equal(t, entity.AuthTypePhone, out.User.AuthType)
}

func TestAccountService_RegisterUnsupportedAuthType(t *testing.T) {
	fx := createTestAccounts(t)

	input := passwordRegisterInput("alice@example.com")
	input.AuthType = entity.AuthTypeGoogleID

	_, err := fx.accounts.Register(context.Background(), input)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrUnsupportedAuthType))
}

func TestAccountService_RegisterDuplicateIdentifier(t *testing.T) {
	fx := createTestAccounts(t)
	ctx := context.Background()

	first, err := fx.accounts.Register(ctx, passwordRegisterInput("alice@example.com"))
	require.NoError(t, err)

	_, err = fx.accounts.Register(ctx, passwordRegisterInput("alice@example.com"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrAccountAlreadyExist))

	// Closing the account frees the identifier for a new registration.
	fx.closeAccount(t, first.User.ID)

	second, err := fx.accounts.Register(ctx, passwordRegisterInput("alice@example.com"))
	require.NoError(t, err)
	assert.NotEqual(t, first.User.ID, second.User.ID)

	// Only the new account can log in with it.
	login, err := fx.accounts.LoginWithPassword(ctx, &usecase.PasswordLoginInput{
		Email:    "alice@example.com",
		Password: "s3cret-password",
	})
	require.NoError(t, err)
	assert.Equal(t, second.User.ID, login.User.ID)
}

func TestAccountService_UsernameIsNotUnique(t *testing.T) {
	fx := createTestAccounts(t)
	ctx := context.Background()

	first, err := fx.accounts.Register(ctx, passwordRegisterInput("alice@example.com"))
	require.NoError(t, err)

	input := passwordRegisterInput("alice2@example.com")
	input.Username = first.User.Username

	_, err = fx.accounts.Register(ctx, input)
	assert.NoError(t, err, "two accounts may share a display name")
}

func TestAccountService_LoginWithPassword(t *testing.T) {
	fx := createTestAccounts(t)
	ctx := context.Background()

	registered, err := fx.accounts.Register(ctx, passwordRegisterInput("alice@example.com"))
	require.NoError(t, err)

	out, err := fx.accounts.LoginWithPassword(ctx, &usecase.PasswordLoginInput{
		Email:    "alice@example.com",
		Password: "s3cret-password",
	})
	require.NoError(t, err)
	require.NotNil(t, out.Tokens)
	assert.Equal(t, registered.User.ID, out.User.ID)

	// Each login is its own session.
	registeredClaims, err := fx.tokenService.ValidateToken(registered.Tokens.RefreshToken)
	require.NoError(t, err)
	loginClaims, err := fx.tokenService.ValidateToken(out.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, registeredClaims.SessionID, loginClaims.SessionID)
}

func TestAccountService_LoginWithPasswordSanityCheck(t *testing.T) {
	fx := createTestAccounts(t)
	ctx := context.Background()

	registered, err := fx.accounts.Register(ctx, passwordRegisterInput("alice@example.com"))
	require.NoError(t, err)

	// A phone account that happens to carry an email, to exercise the
	// auth-type check.
	fx.seedUser(t, entity.User{
		AuthType: entity.AuthTypePhone,
		Email:    "phone-account@example.com",
		Phone:    "+886900000000",
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := fx.accounts.LoginWithPassword(ctx, &usecase.PasswordLoginInput{
			Email:    "nobody@example.com",
			Password: "whatever",
		})
		assert.True(t, errors.Is(err, domainerrors.ErrAccountNotExist))
	})

	t.Run("wrong auth type", func(t *testing.T) {
		_, err := fx.accounts.LoginWithPassword(ctx, &usecase.PasswordLoginInput{
			Email:    "phone-account@example.com",
			Password: "whatever",
		})
		assert.True(t, errors.Is(err, domainerrors.ErrAccountInvalidAuthType))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := fx.accounts.LoginWithPassword(ctx, &usecase.PasswordLoginInput{
			Email:    "alice@example.com",
			Password: "wrong-password",
		})
		assert.True(t, errors.Is(err, domainerrors.ErrAccountInvalidPassword))
	})

	t.Run("closed account", func(t *testing.T) {
		fx.closeAccount(t, registered.User.ID)

		_, err := fx.accounts.LoginWithPassword(ctx, &usecase.PasswordLoginInput{
			Email:    "alice@example.com",
			Password: "s3cret-password",
		})
		assert.True(t, errors.Is(err, domainerrors.ErrAccountInactive))
	})
}

func TestAccountService_LoginWithPhone(t *testing.T) {
	fx := createTestAccounts(t)
	ctx := context.Background()
	const phone = "+886912345678"

	registered, err := fx.accounts.Register(ctx, phoneRegisterInput(phone))
	require.NoError(t, err)

	out, err := fx.accounts.LoginWithPhone(ctx, &usecase.PhoneLoginInput{Phone: phone})
	require.NoError(t, err)
	assert.Nil(t, out.Tokens, "no tokens before the code is verified")
	assert.Equal(t, registered.User.PublicID, out.User.PublicID)
	assert.Equal(t, []string{phone}, fx.sender.sent)
}

func TestAccountService_LoginWithPhoneSendFailure(t *testing.T) {
	fx := createTestAccounts(t)
	ctx := context.Background()
	const phone = "+886912345678"

	_, err := fx.accounts.Register(ctx, phoneRegisterInput(phone))
	require.NoError(t, err)

	t.Run("vendor dispatch fails", func(t *testing.T) {
		fx.sender.sendErr = errors.New("vendor unavailable")
		defer func() { fx.sender.sendErr = nil }()

		_, err := fx.accounts.LoginWithPhone(ctx, &usecase.PhoneLoginInput{Phone: phone})
		assert.True(t, errors.Is(err, domainerrors.ErrSMSSendFailure))
	})

	t.Run("no vendor for phone", func(t *testing.T) {
		fx.gateway.err = errors.New("no sender configured")
		defer func() { fx.gateway.err = nil }()

		_, err := fx.accounts.LoginWithPhone(ctx, &usecase.PhoneLoginInput{Phone: phone})
		assert.True(t, errors.Is(err, domainerrors.ErrSMSSendFailure))
	})
}

func TestAccountService_VerifyPhoneLogin(t *testing.T) {
	fx := createTestAccounts(t)
	ctx := context.Background()
	const phone = "+886912345678"

	registered, err := fx.accounts.Register(ctx, phoneRegisterInput(phone))
	require.NoError(t, err)

	out, err := fx.accounts.VerifyPhoneLogin(ctx, &usecase.VerifyPhoneLoginInput{
		UserID: registered.User.PublicID,
		Phone:  phone,
		Code:   "123456",
	})
	require.NoError(t, err)
	require.NotNil(t, out.Tokens)

	claims, err := fx.tokenService.ValidateToken(out.Tokens.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.Fresh)
	assert.Equal(t, registered.User.ID, claims.UserID)
}

func TestAccountService_VerifyPhoneLoginRejections(t *testing.T) {
	fx := createTestAccounts(t)
	ctx := context.Background()
	const phone = "+886912345678"

	registered, err := fx.accounts.Register(ctx, phoneRegisterInput(phone))
	require.NoError(t, err)

	t.Run("wrong code", func(t *testing.T) {
		_, err := fx.accounts.VerifyPhoneLogin(ctx, &usecase.VerifyPhoneLoginInput{
			UserID: registered.User.PublicID,
			Phone:  phone,
			Code:   "000000",
		})
		assert.True(t, errors.Is(err, domainerrors.ErrSMSVerifyFailure))
	})

	t.Run("public id names another account", func(t *testing.T) {
		_, err := fx.accounts.VerifyPhoneLogin(ctx, &usecase.VerifyPhoneLoginInput{
			UserID: uuid.New(),
			Phone:  phone,
			Code:   "123456",
		})
		assert.True(t, errors.Is(err, domainerrors.ErrSMSVerifyFailure))
	})

	t.Run("unknown phone", func(t *testing.T) {
		_, err := fx.accounts.VerifyPhoneLogin(ctx, &usecase.VerifyPhoneLoginInput{
			UserID: registered.User.PublicID,
			Phone:  "+886987654321",
			Code:   "123456",
		})
		assert.True(t, errors.Is(err, domainerrors.ErrAccountNotExist))
	})
}

func TestAccountService_ChangePassword(t *testing.T) {
	fx := createTestAccounts(t)
	ctx := context.Background()

	registered, err := fx.accounts.Register(ctx, passwordRegisterInput("alice@example.com"))
	require.NoError(t, err)

	err = fx.accounts.ChangePassword(ctx, &usecase.ChangePasswordInput{
		UserID:      registered.User.ID,
		OldPassword: "s3cret-password",
		NewPassword: "new-password",
	})
	require.NoError(t, err)

	// The old password no longer works; the new one does.
	_, err = fx.accounts.LoginWithPassword(ctx, &usecase.PasswordLoginInput{
		Email:    "alice@example.com",
		Password: "s3cret-password",
	})
	assert.True(t, errors.Is(err, domainerrors.ErrAccountInvalidPassword))

	_, err = fx.accounts.LoginWithPassword(ctx, &usecase.PasswordLoginInput{
		Email:    "alice@example.com",
		Password: "new-password",
	})
	assert.NoError(t, err)
}

func TestAccountService_ChangePasswordRejections(t *testing.T) {
	fx := createTestAccounts(t)
	ctx := context.Background()

	registered, err := fx.accounts.Register(ctx, passwordRegisterInput("alice@example.com"))
	require.NoError(t, err)

	phoneUser := fx.seedUser(t, entity.User{
		AuthType: entity.AuthTypePhone,
		Phone:    "+886900000000",
	})

	t.Run("wrong old password", func(t *testing.T) {
		err := fx.accounts.ChangePassword(ctx, &usecase.ChangePasswordInput{
			UserID:      registered.User.ID,
			OldPassword: "wrong-password",
			NewPassword: "new-password",
		})
		assert.True(t, errors.Is(err, domainerrors.ErrChangePasswordFailed))
	})

	t.Run("phone account has no password", func(t *testing.T) {
		err := fx.accounts.ChangePassword(ctx, &usecase.ChangePasswordInput{
			UserID:      phoneUser.ID,
			OldPassword: "whatever",
			NewPassword: "new-password",
		})
		assert.True(t, errors.Is(err, domainerrors.ErrAccountInvalidAuthType))
	})

	t.Run("unknown user", func(t *testing.T) {
		err := fx.accounts.ChangePassword(ctx, &usecase.ChangePasswordInput{
			UserID:      uuid.New(),
			OldPassword: "whatever",
			NewPassword: "new-password",
		})
		assert.True(t, errors.Is(err, domainerrors.ErrAccountNotExist))
	})
}
