package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rpattn/planimport/internal/domain"
)

// tableRepository implements TableRepository against Postgres.
type tableRepository struct {
	pool *pgxpool.Pool
}

// NewTableRepository creates a table repository backed by pgxpool.
func NewTableRepository(pool *pgxpool.Pool) TableRepository {
	return &tableRepository{pool: pool}
}

// DescribeTable queries the live column metadata of a destination table.
// The result is rebuilt on every call; nothing is cached because the schema
// may evolve between imports.
func (r *tableRepository) DescribeTable(ctx context.Context, table string) (domain.TableSchema, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT column_name, data_type, character_maximum_length, is_nullable, column_default, is_identity
		 FROM information_schema.columns
		 WHERE table_schema = current_schema() AND table_name = $1
		 ORDER BY ordinal_position`,
		table,
	)
	if err != nil {
		return domain.TableSchema{}, fmt.Errorf("failed to describe table %s: %w", table, err)
	}
	defer rows.Close()

	schema := domain.TableSchema{Table: table}
	for rows.Next() {
		var (
			name       string
			dataType   string
			maxLength  pgtype.Int4
			isNullable string
			colDefault pgtype.Text
			isIdentity string
		)
		if scanErr := rows.Scan(&name, &dataType, &maxLength, &isNullable, &colDefault, &isIdentity); scanErr != nil {
			return domain.TableSchema{}, fmt.Errorf("failed to scan column metadata: %w", scanErr)
		}

		col := domain.ColumnSchema{
			Name:            name,
			Category:        classifyDataType(dataType),
			Nullable:        isNullable == "YES",
			HasDefault:      colDefault.Valid,
			IsAutoGenerated: isIdentity == "YES" || strings.HasPrefix(colDefault.String, "nextval("),
		}
		if maxLength.Valid {
			col.MaxLength = int(maxLength.Int32)
		}
		schema.Columns = append(schema.Columns, col)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return domain.TableSchema{}, fmt.Errorf("failed to iterate column metadata: %w", rowsErr)
	}

	if len(schema.Columns) == 0 {
		return domain.TableSchema{}, fmt.Errorf("%w: table %s", domain.ErrSchemaUnavailable, table)
	}
	return schema, nil
}

// InsertRow performs a parameterized single-row insert. When idColumn names
// an auto-generated column the generated value is returned.
func (r *tableRepository) InsertRow(ctx context.Context, table string, values domain.MappedRow, idColumn string) (InsertResult, error) {
	columns := make([]string, 0, len(values))
	for column := range values {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, column := range columns {
		quoted[i] = quoteIdentifier(column)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = values[column]
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdentifier(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	if idColumn != "" {
		var id int64
		query += " RETURNING " + quoteIdentifier(idColumn)
		if err := r.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
			return InsertResult{}, fmt.Errorf("failed to insert row: %w", err)
		}
		return InsertResult{InsertedID: id, AffectedRows: 1}, nil
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return InsertResult{}, fmt.Errorf("failed to insert row: %w", err)
	}
	return InsertResult{AffectedRows: tag.RowsAffected()}, nil
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// classifyDataType buckets Postgres data types into the engine's coercion
// categories. Unrecognized types fall into the unknown category, which the
// coercer passes through untouched.
func classifyDataType(dataType string) domain.TypeCategory {
	switch strings.ToLower(dataType) {
	case "character varying", "varchar", "character", "char", "text":
		return domain.TypeText
	case "smallint", "integer", "bigint":
		return domain.TypeInteger
	case "numeric", "decimal", "real", "double precision":
		return domain.TypeDecimal
	case "boolean":
		return domain.TypeBoolean
	case "date":
		return domain.TypeDate
	case "time", "time without time zone", "time with time zone":
		return domain.TypeTime
	default:
		return domain.TypeUnknown
	}
}
