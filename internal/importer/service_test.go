package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rpattn/planimport/internal/catalog"
	"github.com/rpattn/planimport/internal/domain"
	"github.com/rpattn/planimport/internal/repository"
)

func leTacheSchema() domain.TableSchema {
	return domain.TableSchema{
		Table: "le_tache",
		Columns: []domain.ColumnSchema{
			{Name: "id", Category: domain.TypeInteger, Nullable: false, IsAutoGenerated: true},
			{Name: "produit", Category: domain.TypeText, MaxLength: 50, Nullable: false},
			{Name: "designation", Category: domain.TypeText, MaxLength: 255, Nullable: true},
			{Name: "date_debut", Category: domain.TypeDate, Nullable: true},
			{Name: "heure_debut", Category: domain.TypeTime, Nullable: true},
			{Name: "quantite", Category: domain.TypeInteger, Nullable: true},
			{Name: "termine", Category: domain.TypeBoolean, Nullable: true, HasDefault: true},
			{Name: "source_file", Category: domain.TypeText, MaxLength: 255, Nullable: true},
			{Name: "imported_at", Category: domain.TypeUnknown, Nullable: true},
		},
	}
}

func leTacheCatalog() *catalog.Catalog {
	return catalog.New([]domain.CategoryMapping{
		{
			Category: "LET",
			Table:    "le_tache",
			Columns: map[string]string{
				"Produit":     "produit",
				"Désignation": "designation",
				"Date début":  "date_debut",
				"Heure début": "heure_debut",
				"Quantité":    "quantite",
				"Terminé":     "termine",
			},
		},
	})
}

type stubTableRepo struct {
	schema    domain.TableSchema
	schemaErr error
	inserted  []domain.MappedRow
	insertErr func(values domain.MappedRow) error
	zeroRows  func(values domain.MappedRow) bool
	nextID    int64
}

func (s *stubTableRepo) DescribeTable(ctx context.Context, table string) (domain.TableSchema, error) {
	if s.schemaErr != nil {
		return domain.TableSchema{}, s.schemaErr
	}
	if s.schema.Table == "" {
		return domain.TableSchema{}, fmt.Errorf("%w: table %s", domain.ErrSchemaUnavailable, table)
	}
	return s.schema, nil
}

func (s *stubTableRepo) InsertRow(ctx context.Context, table string, values domain.MappedRow, idColumn string) (repository.InsertResult, error) {
	if s.insertErr != nil {
		if err := s.insertErr(values); err != nil {
			return repository.InsertResult{}, err
		}
	}
	if s.zeroRows != nil && s.zeroRows(values) {
		return repository.InsertResult{}, nil
	}
	s.nextID++
	s.inserted = append(s.inserted, values)
	return repository.InsertResult{InsertedID: s.nextID, AffectedRows: 1}, nil
}

type stubLedgerRepo struct {
	existing  map[string]bool
	entries   []domain.LedgerEntry
	recordErr error
}

func (s *stubLedgerRepo) Exists(ctx context.Context, fileName, category string) (bool, error) {
	return s.existing[fileName+"|"+category], nil
}

func (s *stubLedgerRepo) Record(ctx context.Context, entry domain.LedgerEntry) error {
	if s.recordErr != nil {
		return s.recordErr
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubLedgerRepo) List(ctx context.Context, category string, limit, offset int) ([]domain.LedgerEntry, error) {
	return s.entries, nil
}

var _ repository.TableRepository = (*stubTableRepo)(nil)
var _ repository.LedgerRepository = (*stubLedgerRepo)(nil)

const leTacheCSV = `Produit,Désignation,Date début,Heure début,Terminé
P-100,Fraisage,2024-03-01,8:00,oui
,Tournage,2024-03-02,9:30,non
P-200,Perçage,2024-03-03,2:30 PM,oui
`

func TestImportPartialFileKeepsGoodRows(t *testing.T) {
	tableRepo := &stubTableRepo{schema: leTacheSchema()}
	ledgerRepo := &stubLedgerRepo{}
	service := NewService(leTacheCatalog(), tableRepo, ledgerRepo)

	report, err := service.Import(context.Background(), Request{
		Category: "LET",
		FileName: "planning mars.csv",
		Data:     strings.NewReader(leTacheCSV),
	})
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}

	if report.Summary.TotalRows != 3 || report.Summary.ProcessedRows != 3 {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}
	if report.Summary.SuccessfulRows != 2 || report.Summary.FailedRows != 1 {
		t.Fatalf("unexpected outcome counts: %+v", report.Summary)
	}

	if len(report.FailureSamples) != 1 {
		t.Fatalf("expected 1 failure sample, got %d", len(report.FailureSamples))
	}
	failure := report.FailureSamples[0]
	if failure.RowIndex != 1 {
		t.Errorf("expected failure on row index 1, got %d", failure.RowIndex)
	}
	if !strings.Contains(failure.Reason, "produit") {
		t.Errorf("expected failure reason to cite produit, got %q", failure.Reason)
	}
	if failure.RawRow == nil {
		t.Errorf("expected raw row to be retained on failure")
	}

	if len(tableRepo.inserted) != 2 {
		t.Fatalf("expected 2 inserts, got %d", len(tableRepo.inserted))
	}
	second := tableRepo.inserted[1]
	if second["heure_debut"] != "14:30:00" {
		t.Errorf("expected 2:30 PM to normalize to 14:30:00, got %v", second["heure_debut"])
	}
	if second["termine"] != true {
		t.Errorf("expected oui to coerce to true, got %v", second["termine"])
	}

	if len(ledgerRepo.entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(ledgerRepo.entries))
	}
	entry := ledgerRepo.entries[0]
	if entry.Status != domain.StatusPartial {
		t.Errorf("expected partial status, got %s", entry.Status)
	}
	if entry.FileName != "planning_mars.csv" {
		t.Errorf("expected sanitized file name, got %q", entry.FileName)
	}
}

func TestImportInjectsProvenance(t *testing.T) {
	tableRepo := &stubTableRepo{schema: leTacheSchema()}
	ledgerRepo := &stubLedgerRepo{}
	service := NewService(leTacheCatalog(), tableRepo, ledgerRepo)
	importedAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return importedAt }

	_, err := service.Import(context.Background(), Request{
		Category: "LET",
		FileName: "semaine 10.csv",
		Data:     strings.NewReader("Produit\nP-100\n"),
	})
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}

	if len(tableRepo.inserted) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(tableRepo.inserted))
	}
	row := tableRepo.inserted[0]
	if row["source_file"] != "semaine_10.csv" {
		t.Errorf("expected source_file injection, got %v", row["source_file"])
	}
	if row["imported_at"] != importedAt {
		t.Errorf("expected imported_at injection, got %v", row["imported_at"])
	}
}

func TestImportRejectsDuplicateFile(t *testing.T) {
	tableRepo := &stubTableRepo{schema: leTacheSchema()}
	ledgerRepo := &stubLedgerRepo{existing: map[string]bool{"planning_mars.csv|LET": true}}
	service := NewService(leTacheCatalog(), tableRepo, ledgerRepo)

	_, err := service.Import(context.Background(), Request{
		Category: "LET",
		FileName: "planning mars.csv",
		Data:     strings.NewReader(leTacheCSV),
	})
	if !errors.Is(err, domain.ErrDuplicateFile) {
		t.Fatalf("expected duplicate file error, got %v", err)
	}
	if len(tableRepo.inserted) != 0 {
		t.Errorf("expected no inserts for duplicate file")
	}
	if len(ledgerRepo.entries) != 0 {
		t.Errorf("expected no new ledger entry for duplicate file")
	}
}

func TestImportSkipsDuplicateCheckWithoutProvenance(t *testing.T) {
	schema := domain.TableSchema{
		Table: "le_tache",
		Columns: []domain.ColumnSchema{
			{Name: "produit", Category: domain.TypeText, Nullable: true},
		},
	}
	tableRepo := &stubTableRepo{schema: schema}
	ledgerRepo := &stubLedgerRepo{existing: map[string]bool{"planning_mars.csv|LET": true}}
	service := NewService(leTacheCatalog(), tableRepo, ledgerRepo)

	report, err := service.Import(context.Background(), Request{
		Category: "LET",
		FileName: "planning mars.csv",
		Data:     strings.NewReader("Produit\nP-100\n"),
	})
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}
	if report.Summary.SuccessfulRows != 1 {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}
}

func TestImportUnknownCategory(t *testing.T) {
	service := NewService(leTacheCatalog(), &stubTableRepo{schema: leTacheSchema()}, &stubLedgerRepo{})

	_, err := service.Import(context.Background(), Request{
		Category: "XXX",
		FileName: "export.csv",
		Data:     strings.NewReader(leTacheCSV),
	})
	if !errors.Is(err, domain.ErrUnsupportedCategory) {
		t.Fatalf("expected unsupported category error, got %v", err)
	}
}

func TestImportNoValidColumns(t *testing.T) {
	schema := domain.TableSchema{
		Table: "le_tache",
		Columns: []domain.ColumnSchema{
			{Name: "something_else", Category: domain.TypeText, Nullable: true},
		},
	}
	service := NewService(leTacheCatalog(), &stubTableRepo{schema: schema}, &stubLedgerRepo{})

	_, err := service.Import(context.Background(), Request{
		Category: "LET",
		FileName: "export.csv",
		Data:     strings.NewReader(leTacheCSV),
	})
	if !errors.Is(err, domain.ErrNoValidColumns) {
		t.Fatalf("expected no valid columns error, got %v", err)
	}
}

func TestImportReportsMissingDeclaredColumns(t *testing.T) {
	schema := leTacheSchema()
	// Drop quantite from the live schema; the declared mapping still names it.
	var trimmed []domain.ColumnSchema
	for _, c := range schema.Columns {
		if c.Name != "quantite" {
			trimmed = append(trimmed, c)
		}
	}
	schema.Columns = trimmed

	service := NewService(leTacheCatalog(), &stubTableRepo{schema: schema}, &stubLedgerRepo{})

	report, err := service.Import(context.Background(), Request{
		Category: "LET",
		FileName: "export.csv",
		Data:     strings.NewReader(leTacheCSV),
	})
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}

	if report.ColumnMapping.Total != 6 || report.ColumnMapping.Valid != 5 {
		t.Fatalf("unexpected coverage: %+v", report.ColumnMapping)
	}
	if len(report.ColumnMapping.Missing) != 1 || report.ColumnMapping.Missing[0] != "quantite" {
		t.Fatalf("expected quantite reported missing, got %v", report.ColumnMapping.Missing)
	}
}

func TestImportIsolatesInsertFailures(t *testing.T) {
	tableRepo := &stubTableRepo{
		schema: leTacheSchema(),
		insertErr: func(values domain.MappedRow) error {
			if values["produit"] == "P-100" {
				return errors.New("duplicate key value violates unique constraint")
			}
			return nil
		},
	}
	ledgerRepo := &stubLedgerRepo{}
	service := NewService(leTacheCatalog(), tableRepo, ledgerRepo)

	report, err := service.Import(context.Background(), Request{
		Category: "LET",
		FileName: "export.csv",
		Data:     strings.NewReader(leTacheCSV),
	})
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}

	if report.Summary.SuccessfulRows != 1 || report.Summary.FailedRows != 2 {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}
	if len(tableRepo.inserted) != 1 {
		t.Fatalf("expected later rows to still insert, got %d", len(tableRepo.inserted))
	}
}

func TestImportZeroAffectedRowsIsFailure(t *testing.T) {
	tableRepo := &stubTableRepo{
		schema:   leTacheSchema(),
		zeroRows: func(values domain.MappedRow) bool { return true },
	}
	service := NewService(leTacheCatalog(), tableRepo, &stubLedgerRepo{})

	report, err := service.Import(context.Background(), Request{
		Category: "LET",
		FileName: "export.csv",
		Data:     strings.NewReader("Produit\nP-100\n"),
	})
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}
	if report.Summary.FailedRows != 1 {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}
	if report.FailureSamples[0].Reason != "no rows affected" {
		t.Errorf("unexpected reason: %q", report.FailureSamples[0].Reason)
	}
}

func TestImportLedgerWriteFailureKeepsReport(t *testing.T) {
	tableRepo := &stubTableRepo{schema: leTacheSchema()}
	ledgerRepo := &stubLedgerRepo{recordErr: errors.New("ledger unavailable")}
	service := NewService(leTacheCatalog(), tableRepo, ledgerRepo)

	report, err := service.Import(context.Background(), Request{
		Category: "LET",
		FileName: "export.csv",
		Data:     strings.NewReader("Produit\nP-100\n"),
	})
	if err != nil {
		t.Fatalf("import should survive ledger failure, got %v", err)
	}
	if report.Summary.SuccessfulRows != 1 {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}
}

func TestImportHonorsCancellationBetweenRows(t *testing.T) {
	service := NewService(leTacheCatalog(), &stubTableRepo{schema: leTacheSchema()}, &stubLedgerRepo{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.Import(ctx, Request{
		Category: "LET",
		FileName: "export.csv",
		Data:     strings.NewReader(leTacheCSV),
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestProcessRowsNoMappedHeaders(t *testing.T) {
	schema := leTacheSchema()
	mapping, _ := leTacheCatalog().MappingFor("LET")
	effective, err := BuildEffectiveMapping(mapping, schema)
	if err != nil {
		t.Fatalf("unexpected mapping error: %v", err)
	}

	service := NewService(leTacheCatalog(), &stubTableRepo{schema: schema}, &stubLedgerRepo{})
	rows := []domain.RawRow{{"Colonne inconnue": "x"}}

	outcomes, unmapped, err := service.processRows(context.Background(), rows, "le_tache", schema, effective, "export.csv")
	if err != nil {
		t.Fatalf("processRows returned error: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Success {
		t.Fatalf("expected a single failure outcome, got %+v", outcomes)
	}
	if outcomes[0].Reason != "no valid columns mapped" {
		t.Errorf("unexpected reason: %q", outcomes[0].Reason)
	}
	if len(unmapped) != 1 || unmapped[0] != "Colonne inconnue" {
		t.Errorf("expected unmapped header diagnostics, got %v", unmapped)
	}
}

func TestImportStatusImportedWhenAllRowsSucceed(t *testing.T) {
	tableRepo := &stubTableRepo{schema: leTacheSchema()}
	ledgerRepo := &stubLedgerRepo{}
	service := NewService(leTacheCatalog(), tableRepo, ledgerRepo)

	report, err := service.Import(context.Background(), Request{
		Category: "LET",
		FileName: "export.csv",
		Data:     strings.NewReader("Produit,Quantité\nP-100,5\nP-200,7\n"),
	})
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}
	if report.Summary.SuccessfulRows != 2 || report.Summary.FailedRows != 0 {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}
	if report.Summary.SuccessRate != 1.0 {
		t.Errorf("expected success rate 1.0, got %f", report.Summary.SuccessRate)
	}
	if ledgerRepo.entries[0].Status != domain.StatusImported {
		t.Errorf("expected imported status, got %s", ledgerRepo.entries[0].Status)
	}
	if tableRepo.inserted[0]["quantite"] != int64(5) {
		t.Errorf("expected integer coercion, got %v", tableRepo.inserted[0]["quantite"])
	}
}
