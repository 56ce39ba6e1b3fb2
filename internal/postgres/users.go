package postgres

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-stockorders/internal/auth"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, username, full_name, hashed_password, is_active, is_superuser, refresh_token, created_at`

type UserStore struct{ DB *pgxpool.Pool }

func scanUser(row pgx.Row) (auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.FullName, &u.PasswordHash,
		&u.IsActive, &u.IsSuperuser, &u.RefreshToken, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.User{}, auth.ErrUserNotFound
	}
	return u, err
}

func (s *UserStore) Create(ctx context.Context, u auth.User) (auth.User, error) {
	out, err := scanUser(s.DB.QueryRow(ctx, `
		INSERT INTO users(email, username, full_name, hashed_password, is_active, is_superuser)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING `+userColumns,
		u.Email, u.Username, u.FullName, u.PasswordHash, u.IsActive, u.IsSuperuser,
	))
	if code, constraint := pgCode(err); code == codeUniqueViolation {
		if constraint == "users_email_key" {
			return auth.User{}, auth.ErrDuplicateEmail
		}
		return auth.User{}, auth.ErrDuplicateUsername
	}
	return out, err
}

func (s *UserStore) Get(ctx context.Context, id int64) (auth.User, error) {
	return scanUser(s.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (s *UserStore) FindByLogin(ctx context.Context, login string) (auth.User, error) {
	return scanUser(s.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1 OR email=lower($1) LIMIT 1`, login))
}

func (s *UserStore) SetRefreshToken(ctx context.Context, id int64, token string) error {
	ct, err := s.DB.Exec(ctx, `UPDATE users SET refresh_token=$2 WHERE id=$1`, id, token)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return auth.ErrUserNotFound
	}
	return nil
}
