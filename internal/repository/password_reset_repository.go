package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PasswordResetRepository manages reset tokens stored on the user row.
type PasswordResetRepository interface {
	// Issue stores token for the user, replacing any previous one.
	Issue(ctx context.Context, userID, token string, expiresAt time.Time) error
	// Consume swaps in passwordHash and clears the token in one statement.
	// It returns the user id, or ErrInvalidResetToken when token is unknown
	// or expired at now.
	Consume(ctx context.Context, token, passwordHash string, now time.Time) (string, error)
}

type passwordResetRepository struct {
	pool *pgxpool.Pool
}

// NewPasswordResetRepository constructs repository.
func NewPasswordResetRepository(pool *pgxpool.Pool) PasswordResetRepository {
	return &passwordResetRepository{pool: pool}
}

func (r *passwordResetRepository) Issue(ctx context.Context, userID, token string, expiresAt time.Time) error {
	const query = `
        UPDATE users SET reset_token=$1, reset_token_expires_at=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, token, expiresAt, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *passwordResetRepository) Consume(ctx context.Context, token, passwordHash string, now time.Time) (string, error) {
	const query = `
        UPDATE users
        SET password_hash=$1, reset_token=NULL, reset_token_expires_at=NULL, updated_at=NOW()
        WHERE reset_token=$2 AND reset_token_expires_at > $3
        RETURNING id`
	var id string
	err := r.pool.QueryRow(ctx, query, passwordHash, token, now).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrInvalidResetToken
	}
	if err != nil {
		return "", err
	}
	return id, nil
}
