// Package export writes flattened tables to JSON, CSV and Excel files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/young1lin/exa-bridge/internal/models"
)

// Format is an output format for tables
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const (
	DefaultSheet = "Results"
	maxSheetName = 31
)

// ParseFormat accepts json, csv, tabular (same as csv) and xlsx
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "csv", "tabular":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// FormatFromPath picks the format from the file extension, defaulting to JSON
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".xlsx":
		return FormatXLSX
	default:
		return FormatJSON
	}
}

// Write encodes table to w in the given format
func Write(w io.Writer, table *models.Table, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, table)
	case FormatCSV:
		return writeCSV(w, table)
	case FormatXLSX:
		return WriteWorkbook(w, table, DefaultSheet)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteFile writes table to path, creating parent directories
func WriteFile(path string, table *models.Table, format Format) error {
	return writeFile(path, func(w io.Writer) error {
		return Write(w, table, format)
	})
}

// WriteWorkbookFile writes table as a single-sheet workbook
func WriteWorkbookFile(path string, table *models.Table, sheet string) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteWorkbook(w, table, sheet)
	})
}

// WriteRawItems dumps items as they came from the provider
func WriteRawItems(path string, items []models.Item) error {
	if items == nil {
		items = []models.Item{}
	}
	return writeFile(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	})
}

// WriteText writes a plain text report
func WriteText(path, text string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, text)
		return err
	})
}

// SiblingPath swaps the extension of path for ext (".xlsx", ".csv", ...)
func SiblingPath(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// RawPath is where the unflattened items go next to path
func RawPath(path string) string {
	return filepath.Join(filepath.Dir(path), "raw_"+filepath.Base(path))
}

// SheetName makes name usable as an Excel sheet name
func SheetName(name string) string {
	replacer := strings.NewReplacer(
		":", "-", "/", "-", `\`, "-", "?", "-", "*", "-", "[", "(", "]", ")",
	)
	name = strings.TrimSpace(replacer.Replace(name))
	if name == "" {
		return DefaultSheet
	}
	if runes := []rune(name); len(runes) > maxSheetName {
		name = strings.TrimSpace(string(runes[:maxSheetName]))
	}
	return name
}

func writeFile(path string, write func(w io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, table *models.Table) error {
	doc := struct {
		Results []models.OrderedRow `json:"results"`
	}{Results: table.OrderedRows()}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func writeCSV(w io.Writer, table *models.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Headers()); err != nil {
		return err
	}
	if err := cw.WriteAll(table.Records()); err != nil {
		return err
	}
	return cw.Error()
}

// WriteWorkbook writes table as an xlsx workbook with one sheet. Every cell
// is stored as text so phone numbers and ids keep their formatting.
func WriteWorkbook(w io.Writer, table *models.Table, sheet string) error {
	sheet = SheetName(sheet)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	headers := table.Headers()
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, bold); err != nil {
			return err
		}
	}

	for r, record := range table.Records() {
		for col, v := range record {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}
