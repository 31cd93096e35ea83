package repository

import (
	"context"

	"github.com/rpattn/planimport/internal/domain"
)

// InsertResult reports the outcome of a single-row insert.
type InsertResult struct {
	InsertedID   int64
	AffectedRows int64
}

// TableRepository exposes the destination store to the import engine:
// live column introspection and parameterized single-row inserts.
type TableRepository interface {
	DescribeTable(ctx context.Context, table string) (domain.TableSchema, error)
	InsertRow(ctx context.Context, table string, values domain.MappedRow, idColumn string) (InsertResult, error)
}

// LedgerRepository stores one summary entry per processed file and answers
// duplicate-submission lookups.
type LedgerRepository interface {
	Exists(ctx context.Context, fileName, category string) (bool, error)
	Record(ctx context.Context, entry domain.LedgerEntry) error
	List(ctx context.Context, category string, limit, offset int) ([]domain.LedgerEntry, error)
}
