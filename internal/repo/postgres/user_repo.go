package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/enums"
	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/model"
	authsvc "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/services/auth"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return model.User{}, authsvc.ErrUserNotFound
	}

	var (
		user model.User
		role string
	)
	err := r.pool.QueryRow(ctx, `
SELECT
	id,
	username,
	COALESCE(full_name, ''),
	role,
	password_hash,
	COALESCE(totp_secret, ''),
	COALESCE(phone, ''),
	created_at
FROM users
WHERE username = $1
`, username).Scan(
		&user.ID,
		&user.Username,
		&user.FullName,
		&role,
		&user.PasswordHash,
		&user.TOTPSecret,
		&user.Phone,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, authsvc.ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("get user by username: %w", err)
	}

	user.Role = enums.Role(role)
	return user, nil
}

func (r *UserRepo) SetTOTPSecret(ctx context.Context, userID int64, secret string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return authsvc.ErrInvalidInput
	}

	res, err := r.pool.Exec(ctx, `
UPDATE users
SET totp_secret = NULLIF($2, '')
WHERE id = $1
`, userID, secret)
	if err != nil {
		return fmt.Errorf("set totp secret: %w", err)
	}
	if res.RowsAffected() == 0 {
		return authsvc.ErrUserNotFound
	}

	return nil
}
