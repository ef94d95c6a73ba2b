package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"librarium/api/internal/models"
)

var ErrPurchaseExists = errors.New("purchase already recorded")

type PurchaseRepository struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

func (r *PurchaseRepository) Create(ctx context.Context, purchase models.Purchase) error {
	const query = `
		INSERT INTO purchases (
			id, subject_id, book_id, amount, transaction_id, purchased_at
		) VALUES (
			$1, $2, $3, $4, $5, NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		purchase.ID,
		purchase.SubjectID,
		purchase.BookID,
		purchase.Amount,
		purchase.TransactionID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrPurchaseExists
		}
		return err
	}
	return nil
}

func (r *PurchaseRepository) Exists(ctx context.Context, subjectID, bookID string) (bool, error) {
	const query = `
		SELECT EXISTS (SELECT 1 FROM purchases WHERE subject_id = $1 AND book_id = $2)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, subjectID, bookID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PurchaseRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.Purchase, error) {
	const query = `
		SELECT id, subject_id, book_id, amount, transaction_id, purchased_at
		FROM purchases
		WHERE subject_id = $1
		ORDER BY purchased_at DESC
	`

	rows, err := r.pool.Query(ctx, query, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []models.Purchase
	for rows.Next() {
		var purchase models.Purchase
		if err := rows.Scan(
			&purchase.ID,
			&purchase.SubjectID,
			&purchase.BookID,
			&purchase.Amount,
			&purchase.TransactionID,
			&purchase.PurchasedAt,
		); err != nil {
			return nil, err
		}
		purchases = append(purchases, purchase)
	}
	return purchases, rows.Err()
}
