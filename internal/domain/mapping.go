package domain

// CategoryMapping is the declared mapping for one file category: the
// destination table and the raw header → canonical column pairs. Loaded once
// at process start from the catalog data file; immutable afterwards.
type CategoryMapping struct {
	Category string            `json:"category"`
	Table    string            `json:"table"`
	Columns  map[string]string `json:"columns"`
}

// EffectiveMapping is the per-run intersection of a CategoryMapping with the
// destination table's live schema, keyed by normalized header text. Every
// entry's target column is guaranteed to exist in the current schema.
type EffectiveMapping struct {
	Lookup         map[string]string `json:"-"`
	MissingColumns []string          `json:"missingColumns"`
	TotalDeclared  int               `json:"totalDeclared"`
}

// ValidColumns reports how many declared pairs survived the intersection.
func (m EffectiveMapping) ValidColumns() int {
	return len(m.Lookup)
}

// MappingCoverage summarizes the effective mapping for reporting.
type MappingCoverage struct {
	Total   int      `json:"total"`
	Valid   int      `json:"valid"`
	Missing []string `json:"missing"`
}

// Coverage returns the reportable coverage stats.
func (m EffectiveMapping) Coverage() MappingCoverage {
	missing := m.MissingColumns
	if missing == nil {
		missing = []string{}
	}
	return MappingCoverage{
		Total:   m.TotalDeclared,
		Valid:   len(m.Lookup),
		Missing: missing,
	}
}
