package domain

// TypeCategory classifies a destination column for value coercion.
type TypeCategory string

const (
	TypeText    TypeCategory = "text"
	TypeInteger TypeCategory = "integer"
	TypeDecimal TypeCategory = "decimal"
	TypeBoolean TypeCategory = "boolean"
	TypeDate    TypeCategory = "date"
	TypeTime    TypeCategory = "time"
	// TypeUnknown marks store types the engine has no coercion rule for.
	// Values for these columns pass through unchanged.
	TypeUnknown TypeCategory = "unknown"
)

// ColumnSchema holds one destination column's facts as reported by the live
// store. It is rebuilt on every import run and never cached across runs.
type ColumnSchema struct {
	Name            string       `json:"name"`
	Category        TypeCategory `json:"category"`
	MaxLength       int          `json:"maxLength,omitempty"`
	Nullable        bool         `json:"nullable"`
	HasDefault      bool         `json:"hasDefault"`
	IsAutoGenerated bool         `json:"isAutoGenerated"`
}

// TableSchema is the full column set of one destination table.
type TableSchema struct {
	Table   string         `json:"table"`
	Columns []ColumnSchema `json:"columns"`
}

// Column returns the schema for a column by name.
func (t TableSchema) Column(name string) (ColumnSchema, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return ColumnSchema{}, false
}

// HasColumn reports whether the table defines the named column.
func (t TableSchema) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// RequiredColumns derives the columns that must be present and non-null in
// every mapped row: not nullable, no default, and not auto-generated. Derived
// per call so the same engine serves tables with different constraints.
func (t TableSchema) RequiredColumns() []string {
	var required []string
	for _, col := range t.Columns {
		if !col.Nullable && !col.HasDefault && !col.IsAutoGenerated {
			required = append(required, col.Name)
		}
	}
	return required
}

// AutoGeneratedColumn returns the name of the first auto-generated column,
// if any. Used to fetch the generated id on insert.
func (t TableSchema) AutoGeneratedColumn() string {
	for _, col := range t.Columns {
		if col.IsAutoGenerated {
			return col.Name
		}
	}
	return ""
}
