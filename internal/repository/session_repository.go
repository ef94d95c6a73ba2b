package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"librarium/api/internal/models"
)

// SessionRepository is append-only: records are inserted at logout and never
// updated or deleted.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Create(ctx context.Context, record models.SessionRecord) error {
	const query = `
		INSERT INTO session_records (
			id, subject_id, display_id, name, department,
			login_time, logout_time, duration_seconds, date, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.SubjectID,
		record.DisplayID,
		record.Name,
		record.Department,
		record.LoginTime,
		record.LogoutTime,
		record.DurationSeconds,
		record.Date,
	)
	return err
}

func (r *SessionRepository) ListByDate(ctx context.Context, date string, limit, offset int) ([]models.SessionRecord, error) {
	const query = `
		SELECT id, subject_id, display_id, name, department,
		       login_time, logout_time, duration_seconds, date
		FROM session_records
		WHERE ($1 = '' OR date = $1)
		ORDER BY logout_time DESC
		LIMIT $2 OFFSET $3
	`

	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, query, date, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.SessionRecord
	for rows.Next() {
		var record models.SessionRecord
		if err := rows.Scan(
			&record.ID,
			&record.SubjectID,
			&record.DisplayID,
			&record.Name,
			&record.Department,
			&record.LoginTime,
			&record.LogoutTime,
			&record.DurationSeconds,
			&record.Date,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
