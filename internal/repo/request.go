package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lipanski/flycheap/internal/domain"
)

// RequestRepo persists the trace of every search that got a 200 response.
type RequestRepo interface {
	// Create inserts a request row and returns it with the DB-generated id.
	// createdAt is stored as epoch seconds.
	Create(ctx context.Context, name string, createdAt time.Time) (domain.Request, error)

	// GetByID retrieves a single request. Returns domain.ErrNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Request, error)

	// CountSince returns how many requests were recorded at or after since.
	CountSince(ctx context.Context, since time.Time) (int, error)
}

type pgRequestRepo struct {
	db db
}

// NewRequestRepo constructs a RequestRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewRequestRepo(db db) RequestRepo {
	return &pgRequestRepo{db: db}
}

func (r *pgRequestRepo) Create(ctx context.Context, name string, createdAt time.Time) (domain.Request, error) {
	const q = `
		INSERT INTO requests (name, created_at)
		VALUES (@name, @created_at)
		RETURNING id, name, created_at`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"name":       name,
		"created_at": createdAt.Unix(),
	})
	result, err := scanRequest(row)
	if err != nil {
		return domain.Request{}, fmt.Errorf("repo.RequestRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Request, error) {
	const q = `SELECT id, name, created_at FROM requests WHERE id = @id`

	result, err := scanRequest(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Request{}, fmt.Errorf("repo.RequestRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgRequestRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	const q = `SELECT count(*) FROM requests WHERE created_at >= @since`

	var n int
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"since": since.Unix()}).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.RequestRepo.CountSince: %w", err)
	}
	return n, nil
}

func scanRequest(s scanner) (domain.Request, error) {
	var (
		req       domain.Request
		id        pgtype.UUID
		createdAt int64
	)
	if err := s.Scan(&id, &req.Name, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Request{}, domain.ErrNotFound
		}
		return domain.Request{}, err
	}
	req.ID = uuid.UUID(id.Bytes)
	req.CreatedAt = time.Unix(createdAt, 0)
	return req, nil
}
