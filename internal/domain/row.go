package domain

// RawRow is one spreadsheet row as decoded from the file: raw header text to
// an untyped cell value (string, float64, bool, or nil).
type RawRow map[string]any

// MappedRow is a RawRow translated through the effective mapping and the
// value coercer, plus injected provenance metadata. Every key is a real
// destination column name.
type MappedRow map[string]any

// IsNull reports whether the named column is absent or nil in the row.
func (r MappedRow) IsNull(column string) bool {
	value, ok := r[column]
	return !ok || value == nil
}

// RowOutcome is the per-row result of the importer. Exactly one outcome is
// produced per raw row, in input order.
type RowOutcome struct {
	RowIndex    int    `json:"rowIndex"`
	Success     bool   `json:"success"`
	GeneratedID int64  `json:"generatedId,omitempty"`
	Reason      string `json:"reason,omitempty"`
	RawRow      RawRow `json:"rawRow,omitempty"`
}

// RowSuccess builds a success outcome.
func RowSuccess(index int, generatedID int64) RowOutcome {
	return RowOutcome{RowIndex: index, Success: true, GeneratedID: generatedID}
}

// RowFailure builds a failure outcome retaining the raw row for reporting.
func RowFailure(index int, reason string, raw RawRow) RowOutcome {
	return RowOutcome{RowIndex: index, Reason: reason, RawRow: raw}
}
