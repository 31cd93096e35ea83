package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rpattn/planimport/internal/domain"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// decodeRows reads the first sheet of an uploaded file and returns its data
// rows as raw header → cell value mappings. The first non-empty row is the
// header row. Cell values stay untyped text; date serials survive because
// excel cells are read raw.
func decodeRows(fileName string, payload []byte) ([]domain.RawRow, error) {
	var (
		records [][]string
		err     error
	)

	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".csv":
		records, err = readCSV(payload)
	case ".xlsx":
		records, err = readExcel(payload)
	default:
		return nil, fmt.Errorf("%w: unsupported extension %q", domain.ErrParse, ext)
	}
	if err != nil {
		return nil, err
	}

	return buildRows(records)
}

func readCSV(payload []byte) ([][]string, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	return records, nil
}

func readExcel(payload []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: file has no sheets", domain.ErrParse)
	}

	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	return records, nil
}

func buildRows(records [][]string) ([]domain.RawRow, error) {
	var headers []string
	rows := []domain.RawRow{}

	for _, record := range records {
		if isBlankRecord(record) {
			continue
		}
		if headers == nil {
			headers = make([]string, len(record))
			for i, cell := range record {
				headers[i] = strings.TrimSpace(cell)
			}
			continue
		}

		row := domain.RawRow{}
		for i, header := range headers {
			if header == "" {
				continue
			}
			if i < len(record) {
				row[header] = record[i]
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}

	if headers == nil {
		return nil, fmt.Errorf("%w: no header row found", domain.ErrParse)
	}
	return rows, nil
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
