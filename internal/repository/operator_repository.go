package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"librarium/api/internal/models"
)

var (
	ErrOperatorNotFound = errors.New("operator not found")
	ErrOperatorExists   = errors.New("operator already exists")
)

type OperatorRepository struct {
	pool *pgxpool.Pool
}

func NewOperatorRepository(pool *pgxpool.Pool) *OperatorRepository {
	return &OperatorRepository{pool: pool}
}

func (r *OperatorRepository) Create(ctx context.Context, operator models.OperatorProfile) error {
	const query = `
		INSERT INTO operators (
			subject_id, name, email, secret_key_fingerprint, created_at, last_login_at
		) VALUES (
			$1, $2, $3, $4, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		operator.SubjectID,
		operator.Name,
		operator.Email,
		operator.SecretKeyFingerprint,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrOperatorExists
		}
		return err
	}
	return nil
}

func (r *OperatorRepository) GetBySubjectID(ctx context.Context, subjectID string) (models.OperatorProfile, error) {
	const query = `
		SELECT subject_id, name, email, secret_key_fingerprint, created_at, last_login_at
		FROM operators WHERE subject_id = $1
	`

	row := r.pool.QueryRow(ctx, query, subjectID)
	var operator models.OperatorProfile
	if err := row.Scan(
		&operator.SubjectID,
		&operator.Name,
		&operator.Email,
		&operator.SecretKeyFingerprint,
		&operator.CreatedAt,
		&operator.LastLoginAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.OperatorProfile{}, ErrOperatorNotFound
		}
		return models.OperatorProfile{}, err
	}
	return operator, nil
}

func (r *OperatorRepository) TouchLogin(ctx context.Context, subjectID string) error {
	const query = `UPDATE operators SET last_login_at = NOW() WHERE subject_id = $1`

	_, err := r.pool.Exec(ctx, query, subjectID)
	return err
}
