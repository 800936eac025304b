package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskhub/api/internal/core/domain"
	"github.com/taskhub/api/internal/core/ports"
)

// RefreshTokenRepository holds at most one refresh record per user, enforced
// by a UNIQUE constraint on user_id. The reuse-or-replace write locks the
// user's row so two near-simultaneous logins cannot both insert.
type RefreshTokenRepository struct {
	db *sql.DB
}

func NewRefreshTokenRepository(db *sql.DB) ports.RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) FindLive(ctx context.Context, userID uuid.UUID) (*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token, expires_at, created_at
		FROM refresh_tokens
		WHERE user_id = $1 AND expires_at > now()
	`
	return scanRefreshToken(r.db.QueryRowContext(ctx, query, userID))
}

func (r *RefreshTokenRepository) FindAny(ctx context.Context, userID uuid.UUID) (*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token, expires_at, created_at
		FROM refresh_tokens
		WHERE user_id = $1
	`
	return scanRefreshToken(r.db.QueryRowContext(ctx, query, userID))
}

func (r *RefreshTokenRepository) UpsertReuseOrReplace(ctx context.Context, candidate *domain.RefreshToken) (*domain.RefreshToken, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr(err)
	}
	defer tx.Rollback()

	// Lock the user's row (if any) so the read-then-write below is
	// serialized per subject. Liveness is judged by the database clock, the
	// same one FindLive uses.
	existing := &domain.RefreshToken{}
	var live bool
	err = tx.QueryRowContext(ctx, `
		SELECT id, user_id, token, expires_at, created_at, expires_at > now()
		FROM refresh_tokens
		WHERE user_id = $1
		FOR UPDATE
	`, candidate.UserID).Scan(
		&existing.ID, &existing.UserID, &existing.Token, &existing.ExpiresAt, &existing.CreatedAt, &live,
	)
	switch {
	case err == nil:
		if live {
			// Reuse: the live record wins, the candidate is discarded.
			if err := tx.Commit(); err != nil {
				return nil, storageErr(err)
			}
			return existing, nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, candidate.UserID); err != nil {
			return nil, storageErr(err)
		}
	case errors.Is(err, sql.ErrNoRows):
		// No row to lock; the UNIQUE(user_id) below resolves insert races.
	default:
		return nil, storageErr(err)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO refresh_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING id, created_at
	`, candidate.UserID, candidate.Token, candidate.ExpiresAt).Scan(&candidate.ID, &candidate.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost the insert race to a concurrent login; their record is
			// the session now.
			if err := tx.Commit(); err != nil {
				return nil, storageErr(err)
			}
			winner, err := r.FindAny(ctx, candidate.UserID)
			if err != nil {
				return nil, err
			}
			if winner == nil {
				return nil, storageErr(errors.New("refresh token record vanished"))
			}
			return winner, nil
		}
		return nil, storageErr(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr(err)
	}
	return candidate, nil
}

func (r *RefreshTokenRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID); err != nil {
		return storageErr(err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRefreshToken(row rowScanner) (*domain.RefreshToken, error) {
	token := &domain.RefreshToken{}
	err := row.Scan(&token.ID, &token.UserID, &token.Token, &token.ExpiresAt, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storageErr(err)
	}
	return token, nil
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
}
