package impl

import (
	"context"
	"log/slog"
	"time"

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

// accountService implements the AccountUsecase interface.
type accountService struct {
	txManager  repository.TransactionManager
	userRepo   repository.UserRepository
	hasher     service.PasswordHasher
	smsGateway service.SMSGateway
	sessions   usecase.SessionTokenUsecase
	logger     *slog.Logger
}

// AccountServiceParams holds dependencies for accountService, injected by Fx.
type AccountServiceParams struct {
	fx.In

	TxManager  repository.TransactionManager
	UserRepo   repository.UserRepository
	Hasher     service.PasswordHasher
	SMSGateway service.SMSGateway
	Sessions   usecase.SessionTokenUsecase
	Logger     *slog.Logger
}

// NewAccountService is the constructor for accountService.
func NewAccountService(params AccountServiceParams) usecase.AccountUsecase {
	return &accountService{
		txManager:  params.TxManager,
		userRepo:   params.UserRepo,
		hasher:     params.Hasher,
		smsGateway: params.SMSGateway,
		sessions:   params.Sessions,
		logger:     params.Logger,
	}
}

func (srv *accountService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a new account. A password registration logs the account
// in immediately; a phone registration returns no tokens until the OTP
// login flow completes.
func (srv *accountService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	switch input.AuthType {
	case entity.AuthTypePassword:
		return srv.registerWithPassword(ctx, input)
	case entity.AuthTypePhone:
		return srv.registerWithPhone(ctx, input)
	default:
		return nil, domainerrors.ErrUnsupportedAuthType.WrapMessage("registration failed")
	}
}

func (srv *accountService) registerWithPassword(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	srv.log(ctx).Info("Starting password registration", "email", input.Email)

	// bcrypt is CPU bound, keep it outside the transaction.
	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password during registration")
	}

	newUser := &entity.User{
		PublicID:     uuid.New(),
		Username:     input.Username,
		AuthType:     entity.AuthTypePassword,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Status:       entity.UserStatusActive,
		CreatedAt:    time.Now(),
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		if err := srv.checkIdentifierFree(ctx, userRepo.FindByEmail, input.Email); err != nil {
			return err
		}

		return errors.WithStack(userRepo.Create(ctx, newUser))
	})
	if err != nil {
		srv.log(ctx).Warn("Password registration failed", "error", err, "email", input.Email)

		return nil, err
	}

	tokens, err := srv.sessions.StartNewSession(ctx, newUser.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start session after registration")
	}

	srv.log(ctx).Debug("Account registered", "publicID", newUser.PublicID)

	return &usecase.RegisterOutput{User: newUser, Tokens: tokens}, nil
}

func (srv *accountService) registerWithPhone(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	srv.log(ctx).Info("Starting phone registration", "phone", input.Phone)

	newUser := &entity.User{
		PublicID:  uuid.New(),
		Username:  input.Username,
		AuthType:  entity.AuthTypePhone,
		Phone:     input.Phone,
		Status:    entity.UserStatusActive,
		CreatedAt: time.Now(),
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		if err := srv.checkIdentifierFree(ctx, userRepo.FindByPhone, input.Phone); err != nil {
			return err
		}

		return errors.WithStack(userRepo.Create(ctx, newUser))
	})
	if err != nil {
		srv.log(ctx).Warn("Phone registration failed", "error", err, "phone", input.Phone)

		return nil, err
	}

	srv.log(ctx).Debug("Account registered", "publicID", newUser.PublicID)

	// No tokens: the account must prove phone possession through the OTP
	// login flow first.
	return &usecase.RegisterOutput{User: newUser}, nil
}

// checkIdentifierFree enforces uniqueness among non-closed accounts. Only
// the most recent registration for an identifier can be non-closed, so a
// single lookup suffices; a closed account frees its identifier for reuse.
func (srv *accountService) checkIdentifierFree(ctx context.Context, find func(context.Context, string) (*entity.User, error), identifier string) error {
	existing, err := find(ctx, identifier)
	if err == nil {
		if existing.Status != entity.UserStatusClosed {
			return domainerrors.ErrAccountAlreadyExist.WrapMessage("registration failed")
		}

		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return errors.Wrap(err, "failed to check existing account")
	}

	return nil
}

// LoginWithPassword authenticates an email/password pair and starts a new
// session with a fresh access token.
func (srv *accountService) LoginWithPassword(ctx context.Context, input *usecase.PasswordLoginInput) (*usecase.LoginOutput, error) {
	srv.log(ctx).Debug("Starting password login", "email", input.Email)

	user, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if err := accountSanityCheck(user, err, entity.AuthTypePassword); err != nil {
		srv.log(ctx).Warn("Password login rejected", "error", err, "email", input.Email)

		return nil, err
	}

	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Warn("Password login rejected", "email", input.Email)

		return nil, domainerrors.ErrAccountInvalidPassword.WrapMessage("login failed")
	}

	tokens, err := srv.sessions.StartNewSession(ctx, user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start session after login")
	}

	srv.log(ctx).Debug("Password login succeeded", "publicID", user.PublicID)

	return &usecase.LoginOutput{User: user, Tokens: tokens}, nil
}

// LoginWithPhone checks the account and dispatches an OTP to the phone. No
// tokens are issued until the code is verified.
func (srv *accountService) LoginWithPhone(ctx context.Context, input *usecase.PhoneLoginInput) (*usecase.LoginOutput, error) {
	srv.log(ctx).Debug("Starting phone login", "phone", input.Phone)

	user, err := srv.userRepo.FindByPhone(ctx, input.Phone)
	if err := accountSanityCheck(user, err, entity.AuthTypePhone); err != nil {
		srv.log(ctx).Warn("Phone login rejected", "error", err, "phone", input.Phone)

		return nil, err
	}

	sender, err := srv.smsGateway.SenderFor(input.Phone)
	if err != nil {
		srv.log(ctx).Error("No sms vendor for phone", "error", err, "phone", input.Phone)

		return nil, domainerrors.ErrSMSSendFailure.WrapMessage("login failed")
	}

	if err := sender.Send(ctx, input.Phone); err != nil {
		srv.log(ctx).Error("Failed to dispatch sms code", "error", err, "phone", input.Phone)

		return nil, domainerrors.ErrSMSSendFailure.WrapMessage("login failed")
	}

	srv.log(ctx).Debug("SMS code dispatched", "publicID", user.PublicID)

	return &usecase.LoginOutput{User: user}, nil
}

// VerifyPhoneLogin checks the OTP answer and starts a new session. The
// public id echoed back by the client must name the same account the phone
// resolves to.
func (srv *accountService) VerifyPhoneLogin(ctx context.Context, input *usecase.VerifyPhoneLoginInput) (*usecase.LoginOutput, error) {
	srv.log(ctx).Debug("Verifying phone login", "phone", input.Phone)

	user, err := srv.userRepo.FindByPhone(ctx, input.Phone)
	if err := accountSanityCheck(user, err, entity.AuthTypePhone); err != nil {
		srv.log(ctx).Warn("Phone verification rejected", "error", err, "phone", input.Phone)

		return nil, err
	}

	sender, err := srv.smsGateway.SenderFor(input.Phone)
	if err != nil {
		return nil, domainerrors.ErrSMSVerifyFailure.WrapMessage("verification failed")
	}

	ok, err := sender.Verify(ctx, input.Phone, input.Code)
	if err != nil || !ok {
		srv.log(ctx).Warn("SMS code verification failed", "error", err, "phone", input.Phone)

		return nil, domainerrors.ErrSMSVerifyFailure.WrapMessage("verification failed")
	}

	if user.PublicID != input.UserID {
		srv.log(ctx).Warn("Phone verification user mismatch", "phone", input.Phone)

		return nil, domainerrors.ErrSMSVerifyFailure.WrapMessage("verification failed")
	}

	tokens, err := srv.sessions.StartNewSession(ctx, user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start session after verification")
	}

	srv.log(ctx).Debug("Phone login succeeded", "publicID", user.PublicID)

	return &usecase.LoginOutput{User: user, Tokens: tokens}, nil
}

// ChangePassword verifies the old password and stores a new digest.
func (srv *accountService) ChangePassword(ctx context.Context, input *usecase.ChangePasswordInput) error {
	srv.log(ctx).Info("Changing password", "userID", input.UserID)

	user, err := srv.userRepo.FindByID(ctx, input.UserID)
	if err := accountSanityCheck(user, err, entity.AuthTypePassword); err != nil {
		srv.log(ctx).Warn("Password change rejected", "error", err, "userID", input.UserID)

		return err
	}

	if !srv.hasher.Check(input.OldPassword, user.PasswordHash) {
		srv.log(ctx).Warn("Password change rejected", "userID", input.UserID)

		return domainerrors.ErrChangePasswordFailed.WrapMessage("password change failed")
	}

	newHash, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		return errors.Wrap(err, "failed to hash new password")
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return errors.WithStack(repoFactory.UserRepo().UpdatePasswordHash(ctx, user.ID, newHash))
	})
	if err != nil {
		srv.log(ctx).Error("Failed to persist new password", "error", err, "userID", input.UserID)

		return errors.Wrap(err, "failed to persist new password")
	}

	srv.log(ctx).Info("Password changed", "userID", input.UserID)

	return nil
}

// accountSanityCheck is the shared precondition before any credential
// check. The order is deliberate: existence, auth type, status. A finer
// check never fires before a coarser one, so error responses don't leak
// more than the coarser check would.
func accountSanityCheck(user *entity.User, lookupErr error, attempted entity.AuthType) error {
	if lookupErr != nil {
		if errors.Is(lookupErr, repository.ErrUserNotFound) {
			return domainerrors.ErrAccountNotExist.WrapMessage("account check failed")
		}

		return errors.WithStack(lookupErr)
	}

	if user.AuthType != attempted {
		return domainerrors.ErrAccountInvalidAuthType.WrapMessage("account check failed")
	}

	if !user.IsActive() {
		return domainerrors.ErrAccountInactive.WrapMessage("account check failed")
	}

	return nil
}
