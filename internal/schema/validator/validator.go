package validator

import (
	"fmt"
	"sort"

	"github.com/rpattn/planimport/internal/domain"
)

// RowValidator checks a mapped row against the destination table's live
// schema before persistence.
type RowValidator struct{}

// NewRowValidator creates a new row validator.
func NewRowValidator() *RowValidator {
	return &RowValidator{}
}

// ValidationError describes one problem with a mapped row.
type ValidationError struct {
	Column  string `json:"column"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of validating one mapped row.
type ValidationResult struct {
	IsValid        bool              `json:"isValid"`
	Errors         []ValidationError `json:"errors"`
	MissingColumns []string          `json:"missingColumns"`
}

// ValidateRow verifies that every key of the row is a real destination
// column and that every required column is present and non-null. Required
// columns are derived from the schema on each call, never hardcoded.
func (v *RowValidator) ValidateRow(row domain.MappedRow, schema domain.TableSchema) ValidationResult {
	result := ValidationResult{IsValid: true, Errors: []ValidationError{}}

	for column := range row {
		if !schema.HasColumn(column) {
			result.IsValid = false
			result.Errors = append(result.Errors, ValidationError{
				Column:  column,
				Message: fmt.Sprintf("column %s does not exist in table %s", column, schema.Table),
			})
		}
	}

	for _, column := range schema.RequiredColumns() {
		if row.IsNull(column) {
			result.IsValid = false
			result.MissingColumns = append(result.MissingColumns, column)
			result.Errors = append(result.Errors, ValidationError{
				Column:  column,
				Message: fmt.Sprintf("required column %s is missing or null", column),
			})
		}
	}

	sort.Strings(result.MissingColumns)
	sort.Slice(result.Errors, func(i, j int) bool { return result.Errors[i].Column < result.Errors[j].Column })
	return result
}
