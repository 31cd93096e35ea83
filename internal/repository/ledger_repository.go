package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rpattn/planimport/internal/domain"
)

type ledgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository wires a ledger repository backed by pgxpool.
func NewLedgerRepository(pool *pgxpool.Pool) LedgerRepository {
	return &ledgerRepository{pool: pool}
}

func (r *ledgerRepository) Exists(ctx context.Context, fileName, category string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM imported_files WHERE file_name = $1 AND category = $2)`,
		fileName,
		category,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check imported file: %w", err)
	}
	return exists, nil
}

func (r *ledgerRepository) Record(ctx context.Context, entry domain.LedgerEntry) error {
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO imported_files (id, file_name, category, status)
		 VALUES ($1, $2, $3, $4)`,
		entry.ID,
		entry.FileName,
		entry.Category,
		string(entry.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to record imported file: %w", err)
	}
	return nil
}

func (r *ledgerRepository) List(ctx context.Context, category string, limit, offset int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, file_name, category, status, created_at
		 FROM imported_files
		 WHERE $1 = '' OR category = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		category,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list imported files: %w", err)
	}
	defer rows.Close()

	entries := []domain.LedgerEntry{}
	for rows.Next() {
		var (
			entry     domain.LedgerEntry
			status    string
			createdAt pgtype.Timestamptz
		)
		if scanErr := rows.Scan(&entry.ID, &entry.FileName, &entry.Category, &status, &createdAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan imported file: %w", scanErr)
		}
		entry.Status = domain.ImportStatus(status)
		if createdAt.Valid {
			entry.CreatedAt = createdAt.Time
		}
		entries = append(entries, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate imported files: %w", rowsErr)
	}
	return entries, nil
}
