// Package export renders saved views as CSV or XLSX documents.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/rpattn/canvasdb/internal/domain"

	"github.com/xuri/excelize/v2"
)

// Format is an export document format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" (the default for an empty string) or "xlsx".
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: unsupported export format %q", domain.ErrInvalidInput, value)
}

// ContentType returns the MIME type of documents in this format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// ViewSource loads saved views.
type ViewSource interface {
	GetByID(ctx context.Context, id int64) (domain.View, error)
}

type Service struct {
	views  ViewSource
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(views ViewSource, opts ...Option) *Service {
	s := &Service{views: views, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportView writes the rows of a view to w and returns a file name for it.
func (s *Service) ExportView(ctx context.Context, viewID int64, format Format, w io.Writer) (string, error) {
	view, err := s.views.GetByID(ctx, viewID)
	if err != nil {
		return "", err
	}
	switch format {
	case FormatXLSX:
		err = WriteXLSX(w, sheetName(view.Name), view.Data)
	default:
		format = FormatCSV
		err = WriteCSV(w, view.Data)
	}
	if err != nil {
		return "", fmt.Errorf("export view %d: %w", viewID, err)
	}
	s.logger.Info("view exported", "view_id", viewID, "format", format, "rows", len(view.Data))
	return fmt.Sprintf("%s.%s", sanitizeFileComponent(view.Name), format), nil
}

// Columns returns the union of row keys in first-seen order (keys of one row
// sorted by name), with id first
// when any row has one.
func Columns(rows []domain.Row) []string {
	seen := map[string]struct{}{}
	var columns []string
	hasID := false
	for _, row := range rows {
		for _, key := range sortedKeys(row) {
			if key == "id" {
				hasID = true
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			columns = append(columns, key)
		}
	}
	if hasID {
		columns = append([]string{"id"}, columns...)
	}
	return columns
}

// WriteCSV writes rows as CSV with a header row.
func WriteCSV(w io.Writer, rows []domain.Row) error {
	columns := Columns(rows)
	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return err
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = formatValue(row[col])
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes rows to a single-sheet workbook. Numbers and booleans
// keep their cell types.
func WriteXLSX(w io.Writer, sheet string, rows []domain.Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	columns := Columns(rows)
	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for r, row := range rows {
		values := make([]any, len(columns))
		for i, col := range columns {
			values[i] = cellValue(row[col])
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}
	return f.Write(w)
}

func cellValue(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case float64, float32, int, int32, int64, uint, uint32, uint64, bool:
		return v
	default:
		return formatValue(v)
	}
}

func formatValue(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case json.Number:
		return v.String()
	case float32, float64, int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%v", v)
	case []byte:
		return string(v)
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// sheetName trims a view name to what Excel accepts for a sheet title.
func sheetName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if runes := []rune(cleaned); len(runes) > 31 {
		cleaned = string(runes[:31])
	}
	if cleaned == "" {
		return "Sheet1"
	}
	return cleaned
}

func sanitizeFileComponent(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "view"
	}
	builder := strings.Builder{}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-' || r == '_':
			builder.WriteRune(r)
		default:
			builder.WriteRune('-')
		}
	}
	result := strings.Trim(builder.String(), "-")
	if result == "" {
		return "view"
	}
	return result
}

func sortedKeys(row domain.Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
