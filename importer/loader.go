package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Table is a delimited file held fully in memory. Headers are lowercased
// and trimmed; Index maps every required column to its position.
type Table struct {
	Headers []string
	Rows    [][]string
	Index   map[string]int
}

// Value returns the trimmed cell of row for a required column.
func (t *Table) Value(row []string, column string) string {
	i, ok := t.Index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// LoadConfig controls how the source file is read.
type LoadConfig struct {
	SourceFile      string
	Delimiter       rune
	RequiredColumns []string
}

// CheckInput reports ErrMissingInput when the source file is absent.
func CheckInput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newImportError(ErrMissingInput,
				fmt.Sprintf("the file '%s' was not found", path), nil,
				map[string]string{"path": path})
		}
		return newImportError(ErrMissingInput, "cannot access input file", err,
			map[string]string{"path": path})
	}
	if info.IsDir() {
		return newImportError(ErrMissingInput,
			fmt.Sprintf("'%s' is a directory, not a file", path), nil,
			map[string]string{"path": path})
	}
	return nil
}

// Load reads the source file into memory.
func Load(cfg LoadConfig) (*Table, error) {
	if err := CheckInput(cfg.SourceFile); err != nil {
		return nil, err
	}

	file, err := os.Open(cfg.SourceFile)
	if err != nil {
		return nil, newImportError(ErrMissingInput, "error opening file", err,
			map[string]string{"path": cfg.SourceFile})
	}
	defer file.Close()

	return Read(file, cfg)
}

// Read parses a delimited table from r.
func Read(r io.Reader, cfg LoadConfig) (*Table, error) {
	reader := csv.NewReader(r)
	if cfg.Delimiter != 0 {
		reader.Comma = cfg.Delimiter
	}
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, newImportError(ErrParse, "file is empty", nil, nil)
	}
	if err != nil {
		return nil, newImportError(ErrParse, "error reading headers", err, nil)
	}

	for i, h := range headers {
		headers[i] = normalizeHeader(h)
	}
	log.Printf("Cleaned and standardized column names to: %v", headers)

	required := cfg.RequiredColumns
	if len(required) == 0 {
		required = DefaultRequiredColumns
	}
	index, missing := resolveColumns(headers, required)
	if len(missing) > 0 {
		return nil, newImportError(ErrParse,
			fmt.Sprintf("missing required columns: %v", missing), nil,
			map[string]string{"headers": strings.Join(headers, ",")})
	}

	// Rows may be ragged; Value treats absent cells as blank.
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, newImportError(ErrParse, "error reading records", err, nil)
	}

	return &Table{Headers: headers, Rows: rows, Index: index}, nil
}
