package domain

import "errors"

// File-level errors abort an import before any row is processed. Row-level
// problems never surface as errors; they become Failure outcomes instead.
var (
	// ErrUnsupportedCategory is returned for a category with no declared mapping.
	ErrUnsupportedCategory = errors.New("unsupported file category")

	// ErrSchemaUnavailable is returned when the destination table does not
	// exist or cannot be introspected.
	ErrSchemaUnavailable = errors.New("destination table schema unavailable")

	// ErrNoValidColumns is returned when a declared mapping intersects with
	// none of the destination table's live columns.
	ErrNoValidColumns = errors.New("no declared column exists in destination table")

	// ErrDuplicateFile is returned when the sanitized file name was already
	// recorded as imported for the category.
	ErrDuplicateFile = errors.New("file already imported")

	// ErrParse is returned when the spreadsheet container is unreadable,
	// has no sheets, or yields no header row.
	ErrParse = errors.New("unreadable spreadsheet")
)
