package ingestion

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"github.com/rpattn/canvasdb/internal/domain"
	"github.com/rpattn/canvasdb/internal/repository"
	"github.com/rpattn/canvasdb/internal/schema"
)

func newInventory(t *testing.T) (*schema.Service, *Service) {
	t.Helper()
	tables := schema.NewService(repository.NewMemoryStore(), nil)
	zero := "0"
	_, err := tables.CreateTable(context.Background(), schema.TableInput{
		Name: "inventory",
		Fields: []domain.Field{
			{Name: "variant_id", Type: domain.FieldTypeNumber, Required: true},
			{Name: "available", Type: domain.FieldTypeNumber, DefaultValue: &zero},
			{Name: "location", Type: domain.FieldTypeText},
		},
	})
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return tables, NewService(tables, nil)
}

func TestServiceImportCSV(t *testing.T) {
	tables, svc := newInventory(t)

	data := "\xEF\xBB\xBFvariant_id,available,location\n" +
		"1,4,Leeds\n" +
		"\n" +
		"2,,York\n" +
		"three,1,Hull\n" +
		",5,Bath\n"

	summary, err := svc.Import(context.Background(), Request{
		TableName: "inventory",
		FileName:  "stock.csv",
		Data:      strings.NewReader(data),
	})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if summary.RowsRead != 4 || summary.RowsImported != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(summary.Errors) != 2 || summary.Errors[0].Row != 5 || summary.Errors[1].Row != 6 {
		t.Fatalf("expected errors on rows 5 and 6, got %+v", summary.Errors)
	}

	records, err := tables.ListRecords(context.Background(), "inventory")
	if err != nil {
		t.Fatalf("ListRecords returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Data["available"] != float64(4) || records[0].Data["location"] != "Leeds" {
		t.Fatalf("unexpected first record %v", records[0].Data)
	}
	if records[1].Data["available"] != float64(0) {
		t.Fatalf("expected default for empty cell, got %v", records[1].Data)
	}
}

func TestServiceImportXLSX(t *testing.T) {
	tables, svc := newInventory(t)

	f := excelize.NewFile()
	rows := [][]any{{"variant_id", "available"}, {1, 3}, {2, 0}}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("write row: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	summary, err := svc.Import(context.Background(), Request{TableName: "inventory", FileName: "stock.xlsx", Data: &buf})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if summary.RowsImported != 2 || len(summary.Errors) != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	records, _ := tables.ListRecords(context.Background(), "inventory")
	if records[0].Data["variant_id"] != float64(1) {
		t.Fatalf("expected numeric variant_id, got %#v", records[0].Data["variant_id"])
	}
}

func TestServiceImportRejectsInput(t *testing.T) {
	_, svc := newInventory(t)
	ctx := context.Background()

	if _, err := svc.Import(ctx, Request{TableName: "missing", FileName: "a.csv", Data: strings.NewReader("a\n1\n")}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown table, got %v", err)
	}
	if _, err := svc.Import(ctx, Request{TableName: "inventory", FileName: "a.pdf", Data: strings.NewReader("x")}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := svc.Import(ctx, Request{TableName: "inventory", FileName: "a.csv", Data: strings.NewReader("\n\n")}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty file, got %v", err)
	}
}

func TestHandlerImport(t *testing.T) {
	_, svc := newInventory(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "stock.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("variant_id,available\n7,2\n"))
	_ = mw.Close()

	router := chi.NewRouter()
	router.Method(http.MethodPost, "/api/t/{name}/import", NewHTTPHandler(svc, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/t/inventory/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"rows_imported": 1`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}
