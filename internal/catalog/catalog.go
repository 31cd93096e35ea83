package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/rpattn/planimport/internal/domain"
)

// Catalog holds the declared column mappings, one per file category. Loaded
// once at process start from a versioned data file; schema drift in the
// planning system's exports is a data change, not a code change.
type Catalog struct {
	mappings map[string]domain.CategoryMapping
}

// New builds a catalog from declared mappings. Category lookup is
// case-insensitive.
func New(mappings []domain.CategoryMapping) *Catalog {
	c := &Catalog{mappings: make(map[string]domain.CategoryMapping, len(mappings))}
	for _, mapping := range mappings {
		c.mappings[strings.ToLower(mapping.Category)] = mapping
	}
	return c
}

// Load reads the mapping data file. Expected shape:
//
//	categories:
//	  LET:
//	    table: le_tache
//	    columns:
//	      "Produit": produit
func Load(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read mapping catalog %s: %w", path, err)
	}

	categories := v.GetStringMap("categories")
	if len(categories) == 0 {
		return nil, fmt.Errorf("mapping catalog %s declares no categories", path)
	}

	mappings := make([]domain.CategoryMapping, 0, len(categories))
	for name := range categories {
		table := strings.TrimSpace(v.GetString("categories." + name + ".table"))
		columns := v.GetStringMapString("categories." + name + ".columns")
		if table == "" {
			return nil, fmt.Errorf("category %s has no destination table", name)
		}
		if len(columns) == 0 {
			return nil, fmt.Errorf("category %s declares no column mappings", name)
		}
		mappings = append(mappings, domain.CategoryMapping{
			Category: strings.ToUpper(name),
			Table:    table,
			Columns:  columns,
		})
	}

	return New(mappings), nil
}

// MappingFor resolves a category to its declared mapping.
func (c *Catalog) MappingFor(category string) (domain.CategoryMapping, error) {
	mapping, ok := c.mappings[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		return domain.CategoryMapping{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedCategory, category)
	}
	return mapping, nil
}

// Categories lists the declared mappings sorted by category.
func (c *Catalog) Categories() []domain.CategoryMapping {
	result := make([]domain.CategoryMapping, 0, len(c.mappings))
	for _, mapping := range c.mappings {
		result = append(result, mapping)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Category < result[j].Category
	})
	return result
}
