package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/taskdesk/internal/model"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.PasswordHash)
	return u, err
}

// CreateUser возвращает ErrorConflict, если имя пользователя занято.
func (r *UserRepo) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	created, err := scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, first_name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, email, first_name, password_hash
	`, u.Username, u.Email, u.FirstName, u.PasswordHash))
	return created, mapError(err)
}

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		SELECT id, username, email, first_name, password_hash FROM users WHERE username = $1
	`, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return u, ErrorNotFound
	}
	return u, err
}

func (r *UserRepo) GetUser(ctx context.Context, id int64) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		SELECT id, username, email, first_name, password_hash FROM users WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return u, ErrorNotFound
	}
	return u, err
}
