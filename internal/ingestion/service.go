// Package ingestion imports CSV and XLSX rows into existing tables.
package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rpattn/canvasdb/internal/domain"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported file format", domain.ErrInvalidInput)

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// Tables is the part of the schema service an import needs.
type Tables interface {
	GetTable(ctx context.Context, name string) (domain.Table, error)
	ValidateRecord(table domain.Table, data map[string]any) (map[string]any, error)
	CreateRecords(ctx context.Context, table domain.Table, rows []map[string]any) ([]domain.Record, error)
}

// Service imports tabular files into tables.
type Service struct {
	tables Tables
	logger *slog.Logger
}

// NewService creates a new ingestion service.
func NewService(tables Tables, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{tables: tables, logger: logger}
}

// Request describes one uploaded file.
type Request struct {
	TableName string
	FileName  string
	Data      io.Reader
}

// RowError reports a row that was not imported. Row is the 1-based line of
// the row in the file, header included.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Summary is the outcome of an import.
type Summary struct {
	RowsRead     int        `json:"rows_read"`
	RowsImported int        `json:"rows_imported"`
	Errors       []RowError `json:"errors"`
}

type tableData struct {
	headers []string
	rows    []dataRow
}

type dataRow struct {
	line   int
	values []string
}

// Import reads the file, validates every row against the table fields and
// inserts the rows that pass in one batch.
func (s *Service) Import(ctx context.Context, req Request) (Summary, error) {
	table, err := s.tables.GetTable(ctx, req.TableName)
	if err != nil {
		return Summary{}, err
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return Summary{}, fmt.Errorf("read upload: %w", err)
	}
	data, err := parseTable(req.FileName, payload)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{RowsRead: len(data.rows), Errors: []RowError{}}
	valid := make([]map[string]any, 0, len(data.rows))
	for _, row := range data.rows {
		values, err := coerceRow(table, data.headers, row.values)
		if err == nil {
			values, err = s.tables.ValidateRecord(table, values)
		}
		if err != nil {
			summary.Errors = append(summary.Errors, RowError{Row: row.line, Message: err.Error()})
			continue
		}
		valid = append(valid, values)
	}

	if len(valid) > 0 {
		created, err := s.tables.CreateRecords(ctx, table, valid)
		if err != nil {
			return Summary{}, fmt.Errorf("insert records: %w", err)
		}
		summary.RowsImported = len(created)
	}

	s.logger.Info("records imported",
		"table", table.Name,
		"file", req.FileName,
		"rows_read", summary.RowsRead,
		"rows_imported", summary.RowsImported,
		"rows_rejected", len(summary.Errors),
	)
	return summary, nil
}

func parseTable(fileName string, payload []byte) (tableData, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv", "":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return tableData{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) (tableData, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	var (
		records [][]string
		lines   []int
	)
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return tableData{}, fmt.Errorf("%w: failed to read csv: %v", domain.ErrInvalidInput, err)
		}
		line, _ := csvReader.FieldPos(0)
		records = append(records, record)
		lines = append(lines, line)
	}
	return normalizeTable(records, lines)
}

func parseExcel(payload []byte) (tableData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return tableData{}, fmt.Errorf("%w: failed to open xlsx: %v", domain.ErrInvalidInput, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return tableData{}, fmt.Errorf("%w: excel file has no sheets", domain.ErrInvalidInput)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return normalizeTable(rows, nil)
}

// normalizeTable takes the first non-empty row as the header and keeps the
// non-empty rows after it, padded or cut to the header width. lines holds the
// file line of each record; when nil the record index is used.
func normalizeTable(records [][]string, lines []int) (tableData, error) {
	var table tableData
	for idx, row := range records {
		if isEmpty(row) {
			continue
		}
		if table.headers == nil {
			table.headers = make([]string, len(row))
			for i, cell := range row {
				table.headers[i] = strings.TrimSpace(cell)
			}
			continue
		}
		line := idx + 1
		if lines != nil {
			line = lines[idx]
		}
		table.rows = append(table.rows, dataRow{line: line, values: padRow(row, len(table.headers))})
	}
	if table.headers == nil {
		return tableData{}, fmt.Errorf("%w: no rows found in file", domain.ErrInvalidInput)
	}
	return table, nil
}

func isEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}

// coerceRow maps cells to header names. Empty cells are left out so field
// defaults and required checks apply; columns without a header are dropped.
func coerceRow(table domain.Table, headers, values []string) (map[string]any, error) {
	out := make(map[string]any, len(headers))
	for i, name := range headers {
		if name == "" {
			continue
		}
		raw := strings.TrimSpace(values[i])
		if raw == "" {
			continue
		}
		field, ok := table.FieldByName(name)
		if !ok {
			out[name] = raw
			continue
		}
		value, err := coerceValue(field.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s: %v", domain.ErrInvalidInput, name, err)
		}
		out[name] = value
	}
	return out, nil
}

func coerceValue(fieldType domain.FieldType, raw string) (any, error) {
	switch fieldType {
	case domain.FieldTypeNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("unable to coerce %q to number", raw)
		}
		return f, nil
	case domain.FieldTypeRelation:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f, nil
		}
		return raw, nil
	default:
		return raw, nil
	}
}
