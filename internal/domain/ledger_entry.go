package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImportStatus is the file-level outcome recorded in the ledger.
type ImportStatus string

const (
	StatusImported ImportStatus = "imported"
	StatusPartial  ImportStatus = "partial"
	StatusFailed   ImportStatus = "failed"
)

// LedgerEntry records one processed file. Written exactly once per file,
// after row processing completes, and never updated afterwards.
type LedgerEntry struct {
	ID        uuid.UUID    `json:"id"`
	FileName  string       `json:"fileName"`
	Category  string       `json:"category"`
	Status    ImportStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

// NewLedgerEntry builds a ledger entry for a sanitized file name.
func NewLedgerEntry(fileName, category string, status ImportStatus) LedgerEntry {
	return LedgerEntry{
		ID:       uuid.New(),
		FileName: fileName,
		Category: category,
		Status:   status,
	}
}
