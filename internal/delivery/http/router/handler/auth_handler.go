// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"

	"securelogin/internal/delivery/http/middleware"
	"securelogin/internal/delivery/http/response"
	"securelogin/internal/domain/entity"
	domainerrors "securelogin/internal/domain/errors"
	"securelogin/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthHandler holds dependencies for the authentication endpoints.
type AuthHandler struct {
	accounts usecase.AccountUsecase
	sessions usecase.SessionTokenUsecase
	logger   *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(accounts usecase.AccountUsecase, sessions usecase.SessionTokenUsecase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		logger:   logger,
	}
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	AuthType string `json:"auth_type" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,e164"`
	Password string `json:"password"`
}

type loginRequest struct {
	AuthType string `json:"auth_type" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,e164"`
	Password string `json:"password"`
}

type phoneLoginRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
}

type verifyOTPRequest struct {
	UserID string `json:"userid" validate:"required,uuid"`
	Phone  string `json:"phone" validate:"required,e164"`
	Token  string `json:"token" validate:"required"`
}

type refreshTokenBody struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// tokenPayload is the wire shape of an issued token pair.
type tokenPayload struct {
	UserID       string `json:"userid"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// Register handles the account registration request. A password
// registration is logged in immediately; a phone registration must run the
// OTP login flow before any tokens are issued.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid registration input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	output, err := h.accounts.Register(c.Request().Context(), &usecase.RegisterInput{
		Username: req.Username,
		AuthType: entity.AuthType(req.AuthType),
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	payload := tokenPayload{UserID: output.User.PublicID.String()}
	if output.Tokens != nil {
		payload.AccessToken = output.Tokens.AccessToken
		payload.RefreshToken = output.Tokens.RefreshToken
	}

	return response.Success(c, http.StatusCreated, payload)
}

// Login handles both authentication methods. A password login returns a
// token pair; a phone login dispatches an OTP and returns the account's
// public id and phone, pending verification.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid login input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()

	switch entity.AuthType(req.AuthType) {
	case entity.AuthTypePassword:
		output, err := h.accounts.LoginWithPassword(ctx, &usecase.PasswordLoginInput{
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			return errors.WithStack(err)
		}

		return response.Success(c, http.StatusOK, tokenPayload{
			UserID:       output.User.PublicID.String(),
			AccessToken:  output.Tokens.AccessToken,
			RefreshToken: output.Tokens.RefreshToken,
		})

	case entity.AuthTypePhone:
		output, err := h.accounts.LoginWithPhone(ctx, &usecase.PhoneLoginInput{Phone: req.Phone})
		if err != nil {
			return errors.WithStack(err)
		}

		return response.Success(c, http.StatusOK, tokenPayload{
			UserID: output.User.PublicID.String(),
			Phone:  output.User.Phone,
		})

	default:
		return domainerrors.ErrUnsupportedAuthType.WrapMessage("login")
	}
}

// LoginSMS dispatches an OTP to a phone account without requiring the
// auth_type discriminator.
func (h *AuthHandler) LoginSMS(c echo.Context) error {
	var req phoneLoginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid login input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	output, err := h.accounts.LoginWithPhone(c.Request().Context(), &usecase.PhoneLoginInput{Phone: req.Phone})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, tokenPayload{
		UserID: output.User.PublicID.String(),
		Phone:  output.User.Phone,
	})
}

// VerifySMS checks an OTP answer and completes the phone login.
func (h *AuthHandler) VerifySMS(c echo.Context) error {
	var req verifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid verification input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	publicID, err := uuid.Parse(req.UserID)
	if err != nil {
		return response.BindingError(c, "Invalid user id")
	}

	output, err := h.accounts.VerifyPhoneLogin(c.Request().Context(), &usecase.VerifyPhoneLoginInput{
		UserID: publicID,
		Phone:  req.Phone,
		Code:   req.Token,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, tokenPayload{
		UserID:       output.User.PublicID.String(),
		AccessToken:  output.Tokens.AccessToken,
		RefreshToken: output.Tokens.RefreshToken,
	})
}

// Refresh rotates the presented refresh token. The refresh gate has already
// validated the token and stored its claims.
func (h *AuthHandler) Refresh(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return domainerrors.ErrTokenInvalid.WrapMessage("refresh")
	}

	pair, err := h.sessions.Refresh(c.Request().Context(), claims)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, tokenPayload{
		UserID:       claims.UserID.String(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout deactivates the session named by the refresh token in the body.
// The access gate guarantees claims are present; they must agree with the
// refresh token's subject.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshTokenBody
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid logout input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	claims, _ := middleware.GetClaims(c)

	if err := h.sessions.Logout(c.Request().Context(), req.RefreshToken, claims); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

// LogoutAllOtherSessions deactivates every session of the user except the
// one named by the refresh token. Requires a fresh access token.
func (h *AuthHandler) LogoutAllOtherSessions(c echo.Context) error {
	var req refreshTokenBody
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid kickout input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	claims, _ := middleware.GetClaims(c)

	if err := h.sessions.LogoutAllOtherSessions(c.Request().Context(), claims, req.RefreshToken); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Successfully logged out all other sessions"})
}

// ChangePassword verifies the old password and stores a new digest.
// Requires a fresh access token.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid password input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	claims, ok := middleware.GetClaims(c)
	if !ok {
		return domainerrors.ErrTokenInvalid.WrapMessage("change password")
	}

	err := h.accounts.ChangePassword(c.Request().Context(), &usecase.ChangePasswordInput{
		UserID:      claims.UserID,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
