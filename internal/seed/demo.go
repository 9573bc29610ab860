// Package seed loads the demo catalogue into an empty store.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rpattn/canvasdb/internal/domain"
	"github.com/rpattn/canvasdb/internal/repository"
	"github.com/rpattn/canvasdb/internal/schema"
)

// DemoCanvasName names the canvas created by Demo.
const DemoCanvasName = "Demo Canvas"

type product struct {
	name, sku string
	variants  []variant
}

type variant struct {
	color, size string
	sku         string
	price       float64
	stock       float64
	reserved    float64
	workOrder   *workOrder
}

type workOrder struct {
	qty          float64
	status       string
	laborMinutes float64
}

var catalogue = []product{
	{name: "T-Shirt", sku: "TSH", variants: []variant{
		{color: "Red", size: "M", sku: "TSH-RED-M", price: 1500, stock: 50, reserved: 5, workOrder: &workOrder{20, "completed", 120}},
		{color: "Blue", size: "L", sku: "TSH-BLU-L", price: 1500, stock: 30, workOrder: &workOrder{15, "in_progress", 90}},
	}},
	{name: "Jeans", sku: "JNS", variants: []variant{
		{color: "Black", size: "32", sku: "JNS-BLK-32", price: 3500},
	}},
	{name: "Sneakers", sku: "SNK", variants: []variant{
		{color: "White", size: "42", sku: "SNK-WHT-42", price: 8500, stock: 25, reserved: 3, workOrder: &workOrder{10, "pending", 180}},
	}},
}

func numberField(name, label string) domain.Field {
	return domain.Field{Name: name, DisplayName: label, Type: domain.FieldTypeNumber, Required: true}
}

func textField(name, label string) domain.Field {
	return domain.Field{Name: name, DisplayName: label, Type: domain.FieldTypeText, Required: true}
}

var demoTables = []schema.TableInput{
	{
		Name:        "products",
		DisplayName: "Products",
		Description: "Product catalog",
		Fields:      []domain.Field{textField("name", "Product Name"), textField("base_sku", "Base SKU")},
	},
	{
		Name:        "variants",
		DisplayName: "Product Variants",
		Description: "Product variants with colors and sizes",
		Fields: []domain.Field{
			{Name: "product_id", DisplayName: "Product", Type: domain.FieldTypeRelation, Required: true,
				Options: map[string]any{"relation_table": "products"}},
			textField("color", "Color"),
			textField("size", "Size"),
			textField("sku", "SKU"),
			numberField("price_rub", "Price (RUB)"),
		},
	},
	{
		Name:        "inventory",
		DisplayName: "Inventory",
		Description: "Stock levels for variants",
		Fields: []domain.Field{
			{Name: "variant_id", DisplayName: "Variant", Type: domain.FieldTypeRelation, Required: true,
				Options: map[string]any{"relation_table": "variants"}},
			numberField("stock", "Stock"),
			numberField("reserved", "Reserved"),
			numberField("available", "Available"),
		},
	},
	{
		Name:        "work_orders",
		DisplayName: "Work Orders",
		Description: "Manufacturing work orders",
		Fields: []domain.Field{
			{Name: "variant_id", DisplayName: "Variant", Type: domain.FieldTypeRelation, Required: true,
				Options: map[string]any{"relation_table": "variants"}},
			numberField("qty", "Quantity"),
			{Name: "status", DisplayName: "Status", Type: domain.FieldTypeSelect, Required: true,
				Options: map[string]any{"choices": []any{"pending", "in_progress", "completed"}}},
			numberField("labor_minutes", "Labor Minutes"),
		},
	},
}

// DemoCanvas returns the inventory -> filter -> join graph.
func DemoCanvas() domain.Canvas {
	return domain.Canvas{
		Name:        DemoCanvasName,
		Description: "Available inventory joined with its variants",
		Nodes: []domain.Node{
			{ID: "table-1", Type: "tableNode", Position: &domain.Position{X: 100, Y: 100},
				Data: map[string]any{"tableName": "inventory", "label": "Inventory"}},
			{ID: "filter-1", Type: "filterNode", Position: &domain.Position{X: 400, Y: 100},
				Data: map[string]any{"condition": "available > 0", "label": "Available > 0"}},
			{ID: "join-1", Type: "joinNode", Position: &domain.Position{X: 700, Y: 100},
				Data: map[string]any{"joinTable": "variants", "joinField": "variant_id", "targetField": "id", "label": "Variant details"}},
		},
		Edges: []domain.Edge{
			{ID: "e1-2", Source: "table-1", Target: "filter-1"},
			{ID: "e2-3", Source: "filter-1", Target: "join-1"},
		},
	}
}

// Demo creates the demo tables, their records and the demo canvas. It does
// nothing and reports false when the store already has tables.
func Demo(ctx context.Context, tables *schema.Service, canvases repository.CanvasRepository, logger *slog.Logger) (bool, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	existing, err := tables.ListTables(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	for _, input := range demoTables {
		if _, err := tables.CreateTable(ctx, input); err != nil {
			return false, fmt.Errorf("seed table %s: %w", input.Name, err)
		}
	}

	insert := func(table string, data map[string]any) (int64, error) {
		rec, err := tables.CreateRecord(ctx, table, data)
		if err != nil {
			return 0, fmt.Errorf("seed %s record: %w", table, err)
		}
		return rec.ID, nil
	}

	records := 0
	for _, p := range catalogue {
		productID, err := insert("products", map[string]any{"name": p.name, "base_sku": p.sku})
		if err != nil {
			return false, err
		}
		records++
		for _, v := range p.variants {
			variantID, err := insert("variants", map[string]any{
				"product_id": float64(productID),
				"color":      v.color,
				"size":       v.size,
				"sku":        v.sku,
				"price_rub":  v.price,
			})
			if err != nil {
				return false, err
			}
			if _, err := insert("inventory", map[string]any{
				"variant_id": float64(variantID),
				"stock":      v.stock,
				"reserved":   v.reserved,
				"available":  v.stock - v.reserved,
			}); err != nil {
				return false, err
			}
			records += 2
			if wo := v.workOrder; wo != nil {
				if _, err := insert("work_orders", map[string]any{
					"variant_id":    float64(variantID),
					"qty":           wo.qty,
					"status":        wo.status,
					"labor_minutes": wo.laborMinutes,
				}); err != nil {
					return false, err
				}
				records++
			}
		}
	}

	c, err := canvases.Create(ctx, DemoCanvas())
	if err != nil {
		return false, fmt.Errorf("seed canvas: %w", err)
	}
	logger.Info("demo data seeded", "tables", len(demoTables), "records", records, "canvas_id", c.ID)
	return true, nil
}
