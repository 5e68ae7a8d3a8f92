package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/safar/vintagebikes/internal/database"
	"github.com/safar/vintagebikes/internal/models"
)

type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Address      string
}

const userColumns = `id, name, email, password, phone, address, verified, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Password,
		&user.Phone,
		&user.Address,
		&user.Verified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser stores an unverified account. Emails are compared lowercased.
func CreateUser(ctx context.Context, q database.Querier, u NewUser) (*models.User, error) {
	query := `
		INSERT INTO users (name, email, password, phone, address, verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, NOW(), NOW())
		RETURNING ` + userColumns

	user, err := scanUser(q.QueryRowContext(ctx, query,
		u.Name, strings.ToLower(u.Email), u.PasswordHash, u.Phone, u.Address))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, database.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func GetUser(ctx context.Context, q database.Querier, id int64) (*models.User, error) {
	user, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func GetUserByEmail(ctx context.Context, q database.Querier, email string) (*models.User, error) {
	user, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func MarkUserVerified(ctx context.Context, q database.Querier, email string) error {
	result, err := q.ExecContext(ctx,
		`UPDATE users SET verified = TRUE, updated_at = NOW() WHERE email = $1`,
		strings.ToLower(email))
	if err != nil {
		return fmt.Errorf("verify user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrUserNotFound
	}
	return nil
}

func UserExists(ctx context.Context, q database.Querier, id int64) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}
