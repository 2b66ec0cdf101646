package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ping-auth-server/internal/domain/auth"
	"ping-auth-server/internal/resource"
)

type UserRepository struct {
	db *resource.Lazy[Conn]
}

func NewUserRepository(db *resource.Lazy[Conn]) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts the user and its profile in one transaction.
func (r *UserRepository) CreateUser(ctx context.Context, user *auth.User, profile *auth.UserProfile) error {
	return r.db.With(ctx, func(db Conn) error {
		tx, err := db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback(ctx)

		err = tx.QueryRow(ctx,
			"INSERT INTO users (email, password, role) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at",
			user.Email, user.PasswordHash, string(user.Role)).
			Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return auth.ErrUserExists
			}
			return fmt.Errorf("insert user: %w", err)
		}

		if profile != nil {
			profile.UserID = user.ID
			_, err = tx.Exec(ctx,
				"INSERT INTO user_profiles (user_id, full_name, avatar_url) VALUES ($1, $2, $3)",
				profile.UserID, profile.FullName, profile.AvatarURL)
			if err != nil {
				return fmt.Errorf("insert user profile: %w", err)
			}
		}

		return tx.Commit(ctx)
	})
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.getUser(ctx, "email", email)
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*auth.User, error) {
	return r.getUser(ctx, "id", id)
}

func (r *UserRepository) getUser(ctx context.Context, column string, value any) (*auth.User, error) {
	var user auth.User
	var role string
	err := r.db.With(ctx, func(db Conn) error {
		return db.QueryRow(ctx,
			"SELECT id, email, password, role, created_at, updated_at FROM users WHERE "+column+" = $1",
			value).Scan(&user.ID, &user.Email, &user.PasswordHash, &role, &user.CreatedAt, &user.UpdatedAt)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user by %s: %w", column, err)
	}
	user.Role = auth.Role(role)
	return &user, nil
}

func (r *UserRepository) GetProfile(ctx context.Context, userID int64) (*auth.UserProfile, error) {
	profile := auth.UserProfile{UserID: userID}
	err := r.db.With(ctx, func(db Conn) error {
		return db.QueryRow(ctx,
			"SELECT full_name, avatar_url FROM user_profiles WHERE user_id = $1",
			userID).Scan(&profile.FullName, &profile.AvatarURL)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user profile: %w", err)
	}
	return &profile, nil
}
