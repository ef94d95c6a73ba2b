package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"librarium/api/internal/models"
)

var ErrBookNotFound = errors.New("book not found")

// BookRepository reads catalog rows. The catalog owns the table; this
// service only needs tier and price for access decisions.
type BookRepository struct {
	pool *pgxpool.Pool
}

func NewBookRepository(pool *pgxpool.Pool) *BookRepository {
	return &BookRepository{pool: pool}
}

func (r *BookRepository) GetByID(ctx context.Context, id string) (models.Book, error) {
	const query = `
		SELECT id, title, author, department, semester, visibility_tier, price, created_at
		FROM books WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	var book models.Book
	if err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Department,
		&book.Semester,
		&book.Tier,
		&book.Price,
		&book.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Book{}, ErrBookNotFound
		}
		return models.Book{}, err
	}
	return book, nil
}
