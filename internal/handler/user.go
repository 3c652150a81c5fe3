package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bhushangy/natours-api/internal/apperror"
	"github.com/bhushangy/natours-api/internal/middleware"
	"github.com/bhushangy/natours-api/internal/model"
)

// UserHandler bundles dependencies for self-service and admin user
// endpoints.
type UserHandler struct {
	Users UserStore
}

func NewUserHandler(users UserStore) *UserHandler {
	return &UserHandler{Users: users}
}

type updateMeReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	// Present only to reject credential changes on this route.
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type adminUpdateUserReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UpdateMe lets the authenticated user change name and email. Credential
// changes must go through updateMyPassword, which re-verifies the current
// password; sneaking one in here is rejected.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return apperror.New(http.StatusUnauthorized, "Please login to get access!!")
	}
	var req updateMeReq
	if err := c.Bind(&req); err != nil {
		return apperror.New(http.StatusBadRequest, "Invalid request body")
	}
	if req.Password != "" || req.PasswordConfirm != "" {
		return apperror.New(http.StatusBadRequest, "Update only possible for name or email fields!!")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, u.ID, req.Name, req.Email); err != nil {
		return err
	}
	updated, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"user": toUserPart(updated)},
	})
}

// DeleteMe soft-deletes the authenticated user's account. The row stays;
// default queries stop seeing it.
func (h *UserHandler) DeleteMe(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return apperror.New(http.StatusUnauthorized, "Please login to get access!!")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Users.Deactivate(ctx, u.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *UserHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return apperror.New(http.StatusUnauthorized, "Please login to get access!!")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"user": toUserPart(u)},
	})
}

// GetAllUsers is admin management: list active users.
func (h *UserHandler) GetAllUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return err
	}
	parts := make([]userPart, 0, len(users))
	for _, u := range users {
		parts = append(parts, toUserPart(u))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"results": len(parts),
		"data":    echo.Map{"users": parts},
	})
}

// GetUser fetches one user by id.
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"user": toUserPart(u)},
	})
}

// UpdateUser is admin management: change name, email or role. Credentials
// are never writable here.
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req adminUpdateUserReq
	if err := c.Bind(&req); err != nil {
		return apperror.New(http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if req.Name != "" || req.Email != "" {
		if err := h.Users.UpdateProfile(ctx, id, req.Name, req.Email); err != nil {
			return err
		}
	}
	if req.Role != "" {
		if !model.ValidRole(req.Role) {
			return apperror.Newf(http.StatusBadRequest, "Invalid role: %s", req.Role)
		}
		if err := h.Users.UpdateRole(ctx, id, req.Role); err != nil {
			return err
		}
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   echo.Map{"user": toUserPart(u)},
	})
}

// DeleteUser is admin management: soft-delete an account.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Users.Deactivate(ctx, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
