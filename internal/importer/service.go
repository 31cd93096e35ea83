package importer

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/rpattn/planimport/internal/catalog"
	"github.com/rpattn/planimport/internal/domain"
	"github.com/rpattn/planimport/internal/repository"
	"github.com/rpattn/planimport/internal/schema/validator"
)

// Provenance columns injected into mapped rows when the destination table
// defines them. Tables without a source_file column have no file tracking
// and skip duplicate detection.
const (
	SourceFileColumn = "source_file"
	ImportedAtColumn = "imported_at"
)

// Service loads planning spreadsheet exports into their destination tables.
type Service struct {
	catalog   *catalog.Catalog
	tables    repository.TableRepository
	ledger    repository.LedgerRepository
	validator *validator.RowValidator
	now       func() time.Time
}

// NewService creates a new import service.
func NewService(
	cat *catalog.Catalog,
	tables repository.TableRepository,
	ledger repository.LedgerRepository,
) *Service {
	return &Service{
		catalog:   cat,
		tables:    tables,
		ledger:    ledger,
		validator: validator.NewRowValidator(),
		now:       time.Now,
	}
}

// Request describes one uploaded file.
type Request struct {
	Category string
	FileName string
	Data     io.Reader
}

// Import runs the full pipeline for one file: category resolution, duplicate
// detection, schema introspection, effective mapping, sequential row
// processing, and the ledger write. File-level problems return an error
// before any row is touched; row-level problems never abort the run and are
// reported as failure outcomes instead.
func (s *Service) Import(ctx context.Context, req Request) (domain.ImportReport, error) {
	mapping, err := s.catalog.MappingFor(req.Category)
	if err != nil {
		return domain.ImportReport{}, err
	}

	if req.Data == nil {
		return domain.ImportReport{}, fmt.Errorf("%w: no data", domain.ErrParse)
	}
	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return domain.ImportReport{}, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	if len(payload) == 0 {
		return domain.ImportReport{}, fmt.Errorf("%w: file is empty", domain.ErrParse)
	}

	fileName := SanitizeFileName(req.FileName)
	if fileName == "" {
		fileName = "unnamed"
	}

	schema, err := s.tables.DescribeTable(ctx, mapping.Table)
	if err != nil {
		return domain.ImportReport{}, err
	}

	tracksFiles := schema.HasColumn(SourceFileColumn)
	if tracksFiles {
		exists, err := s.ledger.Exists(ctx, fileName, mapping.Category)
		if err != nil {
			return domain.ImportReport{}, fmt.Errorf("failed to check for duplicate file: %w", err)
		}
		if exists {
			return domain.ImportReport{}, fmt.Errorf("%w: %s (%s)", domain.ErrDuplicateFile, fileName, mapping.Category)
		}
	}

	effective, err := BuildEffectiveMapping(mapping, schema)
	if err != nil {
		return domain.ImportReport{}, err
	}

	rows, err := decodeRows(req.FileName, payload)
	if err != nil {
		return domain.ImportReport{}, err
	}

	outcomes, unmapped, err := s.processRows(ctx, rows, mapping.Table, schema, effective, fileName)
	if err != nil {
		return domain.ImportReport{}, err
	}
	if len(unmapped) > 0 {
		log.Printf("[IMPORT] %s: skipped unmapped headers %v", fileName, unmapped)
	}

	report := domain.NewImportReport(fileName, mapping.Table, effective.Coverage(), outcomes)

	entry := domain.NewLedgerEntry(fileName, mapping.Category, report.Status())
	if err := s.ledger.Record(ctx, entry); err != nil {
		// The per-row results stand even when the bookkeeping fails.
		log.Printf("[LEDGER] failed to record %s (%s): %v", fileName, mapping.Category, err)
	}

	return report, nil
}

// processRows folds the decoded rows into ordered outcomes, one per row.
// Rows are handled strictly sequentially; a failing row never blocks the
// rows after it. Cancellation is honored between rows, never mid-row.
func (s *Service) processRows(
	ctx context.Context,
	rows []domain.RawRow,
	table string,
	schema domain.TableSchema,
	effective domain.EffectiveMapping,
	fileName string,
) ([]domain.RowOutcome, []string, error) {
	outcomes := make([]domain.RowOutcome, 0, len(rows))
	unmappedSet := map[string]struct{}{}
	importedAt := s.now()

	for index, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		mapped := domain.MappedRow{}
		for rawHeader, rawValue := range row {
			column, ok := effective.Lookup[NormalizeHeader(rawHeader)]
			if !ok {
				unmappedSet[rawHeader] = struct{}{}
				continue
			}
			col, _ := schema.Column(column)
			mapped[column] = Coerce(rawValue, col)
		}

		if len(mapped) == 0 {
			outcomes = append(outcomes, domain.RowFailure(index, "no valid columns mapped", row))
			continue
		}

		if schema.HasColumn(SourceFileColumn) && mapped.IsNull(SourceFileColumn) {
			mapped[SourceFileColumn] = fileName
		}
		if schema.HasColumn(ImportedAtColumn) && mapped.IsNull(ImportedAtColumn) {
			mapped[ImportedAtColumn] = importedAt
		}

		if result := s.validator.ValidateRow(mapped, schema); !result.IsValid {
			reason := "missing required columns: " + strings.Join(result.MissingColumns, ", ")
			if len(result.MissingColumns) == 0 {
				reason = result.Errors[0].Message
			}
			outcomes = append(outcomes, domain.RowFailure(index, reason, row))
			continue
		}

		res, err := s.tables.InsertRow(ctx, table, mapped, schema.AutoGeneratedColumn())
		if err != nil {
			outcomes = append(outcomes, domain.RowFailure(index, err.Error(), row))
			continue
		}
		if res.AffectedRows == 0 {
			outcomes = append(outcomes, domain.RowFailure(index, "no rows affected", row))
			continue
		}

		outcomes = append(outcomes, domain.RowSuccess(index, res.InsertedID))
	}

	unmapped := make([]string, 0, len(unmappedSet))
	for header := range unmappedSet {
		unmapped = append(unmapped, header)
	}
	sort.Strings(unmapped)

	return outcomes, unmapped, nil
}

// BuildEffectiveMapping intersects a declared mapping with the live schema,
// keyed by normalized header text. Declared columns absent from the table
// are reported as missing, not fatal; an empty intersection is.
func BuildEffectiveMapping(mapping domain.CategoryMapping, schema domain.TableSchema) (domain.EffectiveMapping, error) {
	effective := domain.EffectiveMapping{
		Lookup:        map[string]string{},
		TotalDeclared: len(mapping.Columns),
	}

	for rawHeader, column := range mapping.Columns {
		if !schema.HasColumn(column) {
			effective.MissingColumns = append(effective.MissingColumns, column)
			continue
		}
		effective.Lookup[NormalizeHeader(rawHeader)] = column
	}
	sort.Strings(effective.MissingColumns)

	if len(effective.Lookup) == 0 {
		return effective, fmt.Errorf("%w: category %s, table %s", domain.ErrNoValidColumns, mapping.Category, mapping.Table)
	}
	return effective, nil
}

// ListImports returns ledger entries, newest first.
func (s *Service) ListImports(ctx context.Context, category string, limit, offset int) ([]domain.LedgerEntry, error) {
	return s.ledger.List(ctx, category, limit, offset)
}

// Categories lists the declared file categories.
func (s *Service) Categories() []domain.CategoryMapping {
	return s.catalog.Categories()
}
