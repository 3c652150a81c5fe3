package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/bhushangy/natours-api/internal/model"
	"github.com/bhushangy/natours-api/internal/utils"
)

// UserRepo owns all access to the `users` table. The stored credential is
// only ever written through hashing paths (Create, UpdatePassword,
// RedeemResetToken); no method accepts a pre-hashed value from callers.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// userCols is the default projection. It deliberately omits password_hash
// and the reset token fields: the credential is write-only for ordinary
// reads.
const userCols = "id,name,email,photo,role,password_changed_at,active,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &u.Role,
		&u.PasswordChangedAt, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a new user with a freshly hashed credential and returns
// its ID. The caller validates input (including the confirmation field,
// which never reaches this layer); only the plaintext password arrives here
// and only its bcrypt hash is stored.
func (r *UserRepo) Create(ctx context.Context, name, email, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, photo, password_hash, role, active) VALUES (?,?,?,?,?,1)",
		name, email, "", hash, model.RoleUser)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches an active user without the credential.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? AND active=1 LIMIT 1", id))
}

// GetByEmail fetches an active user without the credential.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? AND active=1 LIMIT 1", email))
}

// GetByEmailWithPassword is the login path: it explicitly selects the
// stored hash so the credential can be verified.
func (r *UserRepo) GetByEmailWithPassword(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+",password_hash FROM users WHERE email=? AND active=1 LIMIT 1",
		email).Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &u.Role,
		&u.PasswordChangedAt, &u.Active, &u.CreatedAt, &u.UpdatedAt, &u.PasswordHash)
	return u, err
}

// GetByIDWithPassword is the update-my-password path.
func (r *UserRepo) GetByIDWithPassword(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+",password_hash FROM users WHERE id=? AND active=1 LIMIT 1",
		id).Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &u.Role,
		&u.PasswordChangedAt, &u.Active, &u.CreatedAt, &u.UpdatedAt, &u.PasswordHash)
	return u, err
}

// List returns all active users; soft-deleted accounts are excluded here
// rather than at every call site.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userCols+" FROM users WHERE active=1 ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &u.Role,
			&u.PasswordChangedAt, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateProfile changes name and/or email. Empty values keep the current
// column. Credentials never pass through here.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, email string) error {
	sets := []string{}
	args := []any{}
	if name != "" {
		sets = append(sets, "name=?")
		args = append(args, name)
	}
	if email != "" {
		sets = append(sets, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(email)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=? AND active=1", args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateRole is the admin path for assigning elevated roles.
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role=? WHERE id=? AND active=1", role, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdatePassword is the save-path for credential rotation: it re-hashes the
// plaintext and bumps password_changed_at in the same statement, which
// invalidates every token issued before this moment. Timestamps are written
// with UTC_TIMESTAMP() because token iat claims are UTC and the session
// timezone is not ours to assume.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, password_changed_at=UTC_TIMESTAMP() WHERE id=? AND active=1",
		hash, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetResetToken stores the hash and expiry of a freshly issued reset token.
// Any previous outstanding token is overwritten; a user has at most one
// live reset capability.
func (r *UserRepo) SetResetToken(ctx context.Context, id uint64, tokenHash string, expires time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_reset_token=?, password_reset_expires=? WHERE id=? AND active=1",
		tokenHash, expires.UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ClearResetToken removes an outstanding reset token, used when delivery
// fails so no dangling reset capability survives.
func (r *UserRepo) ClearResetToken(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_reset_token=NULL, password_reset_expires=NULL WHERE id=?", id)
	return err
}

// GetByResetToken looks up the user holding an unexpired reset token hash.
// The stored expiry is UTC, so it is compared against UTC_TIMESTAMP() rather
// than the session-timezone NOW(). No skew tolerance is applied; the
// 10-minute window absorbs it.
func (r *UserRepo) GetByResetToken(ctx context.Context, tokenHash string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+` FROM users
		 WHERE password_reset_token=? AND password_reset_expires > UTC_TIMESTAMP() AND active=1 LIMIT 1`,
		tokenHash))
}

// RedeemResetToken consumes a reset token: sets the new credential through
// the hashing path, clears the token fields and bumps password_changed_at,
// all in one statement.
func (r *UserRepo) RedeemResetToken(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users
		 SET password_hash=?, password_changed_at=UTC_TIMESTAMP(),
		     password_reset_token=NULL, password_reset_expires=NULL
		 WHERE id=? AND active=1`,
		hash, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Deactivate soft-deletes a user. The row stays in place; every default
// read filters on active=1.
func (r *UserRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET active=0 WHERE id=? AND active=1", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow turns a zero-row UPDATE into sql.ErrNoRows so handlers get the
// same not-found classification as failed SELECTs.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
