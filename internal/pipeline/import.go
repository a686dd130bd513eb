package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"medmaster/internal"
)

// CatalogueStore is the persistence collaborator: attempt to insert each
// record, silently ignoring duplicates by the store's own identity rule, and
// report how many were actually new.
type CatalogueStore interface {
	InsertOrIgnoreBatch(records []internal.MedicineRecord) (int, error)
}

const DefaultBatchSize = 1000

// Importer drives the full pipeline for one file: detect format, map the
// header, extract rows, flush fixed-size batches to the store. Single-run,
// synchronous; no state survives between ImportFile calls.
type Importer struct {
	store     CatalogueStore
	batchSize int

	// Enrich fills blank dosage/form/pediatric fields from whatever text
	// the row carried. Off by default.
	Enrich bool

	// Verbose prints a progress line after every full batch.
	Verbose bool
}

func NewImporter(store CatalogueStore, batchSize int) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Importer{store: store, batchSize: batchSize}
}

// ImportFile dispatches on the file extension; anything that is not a
// workbook or saved HTML goes through the delimited-text pipeline.
func (s *Importer) ImportFile(path string) internal.ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		headers, rows, err := ReadXLSXTable(path)
		if err != nil {
			return failResult(err)
		}
		return s.importRows(headers, sliceRows(rows))
	case ".html", ".htm":
		headers, rows, err := ReadHTMLTableFile(path)
		if err != nil {
			return failResult(err)
		}
		return s.importRows(headers, sliceRows(rows))
	default:
		return s.ImportCSV(path)
	}
}

// ImportCSV imports a delimited text file with a header row. File-level
// problems (missing file, binary content, undetectable format, empty file)
// fail the whole run; row-level problems only bump the counters.
func (s *Importer) ImportCSV(path string) internal.ImportResult {
	if strings.EqualFold(filepath.Ext(path), ".db") {
		return failResult(fmt.Errorf("refusing to import a database file: %s", path))
	}
	if _, err := os.Stat(path); err != nil {
		return failResult(fmt.Errorf("file not found: %s", path))
	}
	if binary, err := LooksBinary(path); err != nil {
		return failResult(err)
	} else if binary {
		return failResult(fmt.Errorf("binary file, not delimited text: %s", path))
	}

	format, err := DetectFormat(path)
	if err != nil {
		return failResult(err)
	}

	rc, err := OpenDecoded(path, format)
	if err != nil {
		return failResult(err)
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.Comma = format.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return failResult(fmt.Errorf("no header row: %s", path))
	}

	return s.importRows(headers, reader.Read)
}

// ImportTable imports an already-parsed table, e.g. one lifted out of an
// HTML mail body.
func (s *Importer) ImportTable(headers []string, rows [][]string) internal.ImportResult {
	return s.importRows(headers, sliceRows(rows))
}

func (s *Importer) importRows(headers []string, next func() ([]string, error)) internal.ImportResult {
	mapping := MapColumns(headers)
	result := internal.ImportResult{Success: true}
	batch := make([]internal.MedicineRecord, 0, s.batchSize)
	rows := 0

	for {
		cells, err := next()
		if errors.Is(err, io.EOF) {
			break
		}
		rows++
		if err != nil {
			result.Failed++
			continue
		}

		rec, ok, err := ExtractRecord(mapping, cells)
		if err != nil {
			result.Failed++
			continue
		}
		if !ok {
			result.Skipped++
			continue
		}
		if s.Enrich {
			EnrichRecord(&rec)
		}

		batch = append(batch, rec)
		if len(batch) >= s.batchSize {
			s.flush(&result, &batch)
			if s.Verbose {
				fmt.Printf("import progress rows=%d imported=%d failed=%d skipped=%d\n",
					rows, result.Imported, result.Failed, result.Skipped)
			}
		}
	}

	s.flush(&result, &batch)
	result.Total = result.Imported + result.Failed + result.Skipped
	return result
}

// flush submits the buffered batch. A store error fails the whole batch and
// the run carries on with the next one; partial progress beats aborting a
// large heterogeneous file.
func (s *Importer) flush(result *internal.ImportResult, batch *[]internal.MedicineRecord) {
	if len(*batch) == 0 {
		return
	}

	inserted, err := s.store.InsertOrIgnoreBatch(*batch)
	if err != nil {
		result.Failed += len(*batch)
	} else {
		result.Imported += inserted
		result.Failed += len(*batch) - inserted
	}
	*batch = (*batch)[:0]
}

func failResult(err error) internal.ImportResult {
	return internal.ImportResult{Success: false, Message: err.Error()}
}

func sliceRows(rows [][]string) func() ([]string, error) {
	i := 0
	return func() ([]string, error) {
		if i >= len(rows) {
			return nil, io.EOF
		}
		row := rows[i]
		i++
		return row, nil
	}
}
