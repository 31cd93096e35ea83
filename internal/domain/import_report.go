package domain

// FailureSampleLimit caps how many failure details travel in a report.
const FailureSampleLimit = 10

// ImportSummary aggregates the row outcomes of one file.
type ImportSummary struct {
	TotalRows      int     `json:"totalRows"`
	ProcessedRows  int     `json:"processedRows"`
	SuccessfulRows int     `json:"successfulRows"`
	FailedRows     int     `json:"failedRows"`
	SuccessRate    float64 `json:"successRate"`
}

// ImportReport is the caller-facing result of a completed import run.
type ImportReport struct {
	FileName       string          `json:"fileName"`
	Table          string          `json:"tableName"`
	Summary        ImportSummary   `json:"summary"`
	ColumnMapping  MappingCoverage `json:"columnMapping"`
	FailureSamples []RowOutcome    `json:"failureSamples"`
}

// NewImportReport folds row outcomes into a report.
func NewImportReport(fileName, table string, coverage MappingCoverage, outcomes []RowOutcome) ImportReport {
	report := ImportReport{
		FileName:       fileName,
		Table:          table,
		ColumnMapping:  coverage,
		FailureSamples: []RowOutcome{},
	}

	report.Summary.TotalRows = len(outcomes)
	for _, outcome := range outcomes {
		report.Summary.ProcessedRows++
		if outcome.Success {
			report.Summary.SuccessfulRows++
			continue
		}
		report.Summary.FailedRows++
		if len(report.FailureSamples) < FailureSampleLimit {
			report.FailureSamples = append(report.FailureSamples, outcome)
		}
	}

	if report.Summary.ProcessedRows > 0 {
		report.Summary.SuccessRate = float64(report.Summary.SuccessfulRows) / float64(report.Summary.ProcessedRows)
	}

	return report
}

// Status derives the ledger status for the processed file.
func (r ImportReport) Status() ImportStatus {
	switch {
	case r.Summary.FailedRows == 0:
		return StatusImported
	case r.Summary.SuccessfulRows == 0:
		return StatusFailed
	default:
		return StatusPartial
	}
}
