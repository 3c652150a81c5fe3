package handler

import (
	"context"
	"time"

	"github.com/bhushangy/natours-api/internal/model"
)

// UserStore is the persistence surface the auth and user handlers depend
// on. *repository.UserRepo satisfies it; tests substitute an in-memory
// fake, the same way middleware.UserLoader decouples Protect from the
// database.
type UserStore interface {
	Create(ctx context.Context, name, email, password string, cost int) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByEmailWithPassword(ctx context.Context, email string) (model.User, error)
	GetByIDWithPassword(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, id uint64, name, email string) error
	UpdateRole(ctx context.Context, id uint64, role string) error
	UpdatePassword(ctx context.Context, id uint64, password string, cost int) error
	SetResetToken(ctx context.Context, id uint64, tokenHash string, expires time.Time) error
	ClearResetToken(ctx context.Context, id uint64) error
	GetByResetToken(ctx context.Context, tokenHash string) (model.User, error)
	RedeemResetToken(ctx context.Context, id uint64, password string, cost int) error
	Deactivate(ctx context.Context, id uint64) error
}
