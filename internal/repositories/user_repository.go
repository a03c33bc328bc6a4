package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"message-service/internal/apperror"
	"message-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation
}

// UserRepository abstracts user persistence.
type UserRepository interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	Get(ctx context.Context, username string) (models.User, error)
	Update(ctx context.Context, username string, patch models.UserPatch) (models.User, error)
	Delete(ctx context.Context, username string) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create persists a new user. A taken username surfaces as a validation
// error so the handler can return it verbatim.
func (r *UserRepo) Create(ctx context.Context, user models.User) (models.User, error) {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING created_at`,
		user.Username, user.Email, user.PasswordHash).
		Scan(&user.CreatedAt)
	if isUniqueViolation(err) {
		return models.User{}, apperror.NewValidation("username already exists!", err)
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Get fetches a single user by username.
func (r *UserRepo) Get(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT username, email, password_hash, created_at FROM users WHERE username=$1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// Update applies a partial patch and returns the updated user.
func (r *UserRepo) Update(ctx context.Context, username string, patch models.UserPatch) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx,
		`UPDATE users
         SET email = COALESCE($2, email),
             password_hash = COALESCE($3, password_hash)
         WHERE username=$1
         RETURNING username, email, password_hash, created_at`,
		username, patch.Email, patch.PasswordHash).
		Scan(&user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Delete removes a user. Deleting an absent user is not an error.
func (r *UserRepo) Delete(ctx context.Context, username string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE username=$1`, username)
	return err
}
