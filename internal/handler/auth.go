package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/bhushangy/natours-api/internal/apperror"
	"github.com/bhushangy/natours-api/internal/config"
	"github.com/bhushangy/natours-api/internal/logger"
	"github.com/bhushangy/natours-api/internal/middleware"
	"github.com/bhushangy/natours-api/internal/model"
	"github.com/bhushangy/natours-api/internal/queue"
	"github.com/bhushangy/natours-api/internal/service"
	"github.com/bhushangy/natours-api/internal/utils"
)

// AuthHandler bundles dependencies for signup, login and the password
// lifecycle endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users UserStore
}

func NewAuthHandler(cfg config.Config, users UserStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users}
}

// ----- DTOs -----

type signupReq struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type forgotPasswordReq struct {
	Email string `json:"email"`
}
type resetPasswordReq struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}
type updatePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// userPart is the user shape returned by every endpoint. The credential and
// reset-token fields have no place here by construction.
type userPart struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo,omitempty"`
	Role  string `json:"role"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Name: u.Name, Email: u.Email, Photo: u.Photo, Role: u.Role}
}

// sendToken issues a fresh session token and writes the success envelope.
func (h *AuthHandler) sendToken(c echo.Context, code int, u model.User) error {
	token, err := utils.NewAuthToken(h.Cfg.JWTSecret, u.ID, h.Cfg.JWTTTLMin)
	if err != nil {
		return err
	}
	return c.JSON(code, echo.Map{
		"status": "success",
		"token":  token,
		"data":   echo.Map{"user": toUserPart(u)},
	})
}

// Signup creates an identity and logs it in. The confirmation field is
// checked by the validator and discarded here; the repository only ever
// sees the plaintext password on its hashing path. Role is always "user":
// elevated roles are assigned by admins, never claimed at signup.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return apperror.New(http.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := model.ValidateNewUser(req.Name, req.Email, req.Password, req.PasswordConfirm); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	id, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return err
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return h.sendToken(c, http.StatusCreated, u)
}

// Login verifies the credential and issues a session token. Unknown email
// and wrong password collapse into the same message so the endpoint cannot
// be used to probe which addresses exist.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return apperror.New(http.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return apperror.New(http.StatusBadRequest, "Please provide email and password")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmailWithPassword(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.New(http.StatusUnauthorized, "Incorrect email or password!!")
		}
		return err
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return apperror.New(http.StatusUnauthorized, "Incorrect email or password!!")
	}
	return h.sendToken(c, http.StatusOK, u)
}

// ForgotPassword issues a reset token: a high-entropy raw value goes out
// via the mail queue, only its hash plus a short expiry is stored. When the
// publish fails the stored hash is rolled back so no dangling reset
// capability remains.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return apperror.New(http.StatusBadRequest, "Please provide your email")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.New(http.StatusNotFound, "There is no user with email address.")
		}
		return err
	}

	raw, err := utils.NewResetToken()
	if err != nil {
		return err
	}
	expires := time.Now().UTC().Add(time.Duration(h.Cfg.ResetTokenTTLMin) * time.Minute)
	if err := h.Users.SetResetToken(ctx, u.ID, utils.HashResetToken(raw), expires); err != nil {
		return err
	}

	scheme := c.Scheme()
	resetURL := fmt.Sprintf("%s://%s/api/v1/users/resetPassword/%s", scheme, c.Request().Host, raw)
	mail := queue.PasswordResetMail{
		To:          u.Email,
		Name:        u.Name,
		Subject:     fmt.Sprintf("Your password reset token (valid for %d min)", h.Cfg.ResetTokenTTLMin),
		Message:     fmt.Sprintf("Forgot your password? Submit a PATCH request with your new password and passwordConfirm to: %s.\nIf you didn't forget your password, please ignore this email!", resetURL),
		ResetURL:    resetURL,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := service.PublishPasswordResetMail(ctx, mail); err != nil {
		if clearErr := h.Users.ClearResetToken(ctx, u.ID); clearErr != nil {
			logger.FromEcho(c).Error("reset token rollback failed",
				zap.Uint64("user_id", u.ID), zap.Error(clearErr))
		}
		return apperror.Wrap(http.StatusInternalServerError,
			"There was an error sending the email. Try again later!", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": "Token sent to email!",
	})
}

// ResetPassword redeems a reset token: the presented raw value is hashed
// the same way as at issue time and looked up together with an unexpired
// window. Success rotates the credential through the re-hashing save path,
// clears the token fields and logs the user straight in.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return apperror.New(http.StatusBadRequest, "Invalid request body")
	}
	if err := model.ValidateNewPassword(req.Password, req.PasswordConfirm); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	u, err := h.Users.GetByResetToken(ctx, utils.HashResetToken(c.Param("token")))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.New(http.StatusBadRequest, "Token is invalid or has expired")
		}
		return err
	}
	if err := h.Users.RedeemResetToken(ctx, u.ID, req.Password, h.Cfg.BcryptCost); err != nil {
		return err
	}
	return h.sendToken(c, http.StatusOK, u)
}

// UpdateMyPassword rotates the credential of the authenticated user. The
// current password must be presented again even with a valid session: a
// stolen token alone must not be enough to lock the owner out.
func (h *AuthHandler) UpdateMyPassword(c echo.Context) error {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		return apperror.New(http.StatusUnauthorized, "Please login to get access!!")
	}
	var req updatePasswordReq
	if err := c.Bind(&req); err != nil {
		return apperror.New(http.StatusBadRequest, "Invalid request body")
	}
	if err := model.ValidateNewPassword(req.NewPassword, req.PasswordConfirm); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	u, err := h.Users.GetByIDWithPassword(ctx, current.ID)
	if err != nil {
		return err
	}
	if req.CurrentPassword == "" || !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return apperror.New(http.StatusUnauthorized, "Incorrect password!!")
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return err
	}
	// Tokens issued before this moment are now rejected by the freshness
	// check; hand back a fresh one.
	return h.sendToken(c, http.StatusOK, u)
}
