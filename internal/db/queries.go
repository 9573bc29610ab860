package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Queries holds the typed statements of the canvasdb schema.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// Tables

const tableColumns = `id, name, display_name, description, created_at, updated_at`

func scanTable(row pgx.Row) (Table, error) {
	var t Table
	err := row.Scan(&t.ID, &t.Name, &t.DisplayName, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

type CreateTableParams struct {
	Name        string
	DisplayName string
	Description pgtype.Text
}

const createTable = `INSERT INTO tables (name, display_name, description)
VALUES ($1, $2, $3)
RETURNING ` + tableColumns

func (q *Queries) CreateTable(ctx context.Context, arg CreateTableParams) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, createTable, arg.Name, arg.DisplayName, arg.Description))
}

const getTable = `SELECT ` + tableColumns + ` FROM tables WHERE id = $1`

func (q *Queries) GetTable(ctx context.Context, id int64) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, getTable, id))
}

const getTableByName = `SELECT ` + tableColumns + ` FROM tables WHERE name = $1`

func (q *Queries) GetTableByName(ctx context.Context, name string) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, getTableByName, name))
}

const listTables = `SELECT ` + tableColumns + ` FROM tables ORDER BY id`

func (q *Queries) ListTables(ctx context.Context) ([]Table, error) {
	rows, err := q.db.Query(ctx, listTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const touchTable = `UPDATE tables SET updated_at = now() WHERE id = $1`

func (q *Queries) TouchTable(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, touchTable, id)
	return err
}

const deleteTable = `DELETE FROM tables WHERE id = $1`

func (q *Queries) DeleteTable(ctx context.Context, id int64) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteTable, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const countTables = `SELECT count(*) FROM tables`

func (q *Queries) CountTables(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countTables).Scan(&n)
	return n, err
}

// Fields

const fieldColumns = `id, table_id, name, display_name, field_type, options, required, default_value, created_at`

func scanField(row pgx.Row) (Field, error) {
	var f Field
	err := row.Scan(&f.ID, &f.TableID, &f.Name, &f.DisplayName, &f.FieldType, &f.Options, &f.Required, &f.DefaultValue, &f.CreatedAt)
	return f, err
}

func collectFields(rows pgx.Rows, err error) ([]Field, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Field
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

type CreateFieldParams struct {
	TableID      int64
	Name         string
	DisplayName  string
	FieldType    string
	Options      []byte
	Required     bool
	DefaultValue pgtype.Text
}

const createField = `INSERT INTO fields (table_id, name, display_name, field_type, options, required, default_value)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + fieldColumns

func (q *Queries) CreateField(ctx context.Context, arg CreateFieldParams) (Field, error) {
	return scanField(q.db.QueryRow(ctx, createField,
		arg.TableID, arg.Name, arg.DisplayName, arg.FieldType, arg.Options, arg.Required, arg.DefaultValue))
}

const getField = `SELECT ` + fieldColumns + ` FROM fields WHERE id = $1`

func (q *Queries) GetField(ctx context.Context, id int64) (Field, error) {
	return scanField(q.db.QueryRow(ctx, getField, id))
}

const listFieldsByTable = `SELECT ` + fieldColumns + ` FROM fields WHERE table_id = $1 ORDER BY id`

func (q *Queries) ListFieldsByTable(ctx context.Context, tableID int64) ([]Field, error) {
	return collectFields(q.db.Query(ctx, listFieldsByTable, tableID))
}

const listAllFields = `SELECT ` + fieldColumns + ` FROM fields ORDER BY table_id, id`

func (q *Queries) ListAllFields(ctx context.Context) ([]Field, error) {
	return collectFields(q.db.Query(ctx, listAllFields))
}

type UpdateFieldParams struct {
	ID           int64
	Name         string
	DisplayName  string
	FieldType    string
	Options      []byte
	Required     bool
	DefaultValue pgtype.Text
}

const updateField = `UPDATE fields
SET name = $2, display_name = $3, field_type = $4, options = $5, required = $6, default_value = $7
WHERE id = $1
RETURNING ` + fieldColumns

func (q *Queries) UpdateField(ctx context.Context, arg UpdateFieldParams) (Field, error) {
	return scanField(q.db.QueryRow(ctx, updateField,
		arg.ID, arg.Name, arg.DisplayName, arg.FieldType, arg.Options, arg.Required, arg.DefaultValue))
}

const deleteField = `DELETE FROM fields WHERE id = $1`

func (q *Queries) DeleteField(ctx context.Context, id int64) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteField, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Records

const recordColumns = `id, table_id, data, created_at, updated_at`

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.TableID, &r.Data, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

type CreateRecordParams struct {
	TableID int64
	Data    []byte
}

const createRecord = `INSERT INTO records (table_id, data) VALUES ($1, $2) RETURNING ` + recordColumns

func (q *Queries) CreateRecord(ctx context.Context, arg CreateRecordParams) (Record, error) {
	return scanRecord(q.db.QueryRow(ctx, createRecord, arg.TableID, arg.Data))
}

const getRecord = `SELECT ` + recordColumns + ` FROM records WHERE id = $1`

func (q *Queries) GetRecord(ctx context.Context, id int64) (Record, error) {
	return scanRecord(q.db.QueryRow(ctx, getRecord, id))
}

const listRecordsByTable = `SELECT ` + recordColumns + ` FROM records WHERE table_id = $1 ORDER BY id`

func (q *Queries) ListRecordsByTable(ctx context.Context, tableID int64) ([]Record, error) {
	rows, err := q.db.Query(ctx, listRecordsByTable, tableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

type UpdateRecordParams struct {
	ID   int64
	Data []byte
}

const updateRecord = `UPDATE records SET data = $2, updated_at = now() WHERE id = $1 RETURNING ` + recordColumns

func (q *Queries) UpdateRecord(ctx context.Context, arg UpdateRecordParams) (Record, error) {
	return scanRecord(q.db.QueryRow(ctx, updateRecord, arg.ID, arg.Data))
}

const deleteRecord = `DELETE FROM records WHERE id = $1`

func (q *Queries) DeleteRecord(ctx context.Context, id int64) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteRecord, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const countRecords = `SELECT count(*) FROM records`

func (q *Queries) CountRecords(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countRecords).Scan(&n)
	return n, err
}

// Canvases

const canvasColumns = `id, name, description, nodes, edges, created_at, updated_at`

func scanCanvas(row pgx.Row) (Canvas, error) {
	var c Canvas
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Nodes, &c.Edges, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

type CreateCanvasParams struct {
	Name        string
	Description pgtype.Text
	Nodes       []byte
	Edges       []byte
}

const createCanvas = `INSERT INTO canvases (name, description, nodes, edges)
VALUES ($1, $2, $3, $4)
RETURNING ` + canvasColumns

func (q *Queries) CreateCanvas(ctx context.Context, arg CreateCanvasParams) (Canvas, error) {
	return scanCanvas(q.db.QueryRow(ctx, createCanvas, arg.Name, arg.Description, arg.Nodes, arg.Edges))
}

const getCanvas = `SELECT ` + canvasColumns + ` FROM canvases WHERE id = $1`

func (q *Queries) GetCanvas(ctx context.Context, id int64) (Canvas, error) {
	return scanCanvas(q.db.QueryRow(ctx, getCanvas, id))
}

const listCanvases = `SELECT ` + canvasColumns + ` FROM canvases ORDER BY id`

func (q *Queries) ListCanvases(ctx context.Context) ([]Canvas, error) {
	rows, err := q.db.Query(ctx, listCanvases)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Canvas
	for rows.Next() {
		c, err := scanCanvas(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

type UpdateCanvasParams struct {
	ID          int64
	Name        string
	Description pgtype.Text
	Nodes       []byte
	Edges       []byte
}

const updateCanvas = `UPDATE canvases
SET name = $2, description = $3, nodes = $4, edges = $5, updated_at = now()
WHERE id = $1
RETURNING ` + canvasColumns

func (q *Queries) UpdateCanvas(ctx context.Context, arg UpdateCanvasParams) (Canvas, error) {
	return scanCanvas(q.db.QueryRow(ctx, updateCanvas, arg.ID, arg.Name, arg.Description, arg.Nodes, arg.Edges))
}

const deleteCanvas = `DELETE FROM canvases WHERE id = $1`

func (q *Queries) DeleteCanvas(ctx context.Context, id int64) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteCanvas, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const countCanvases = `SELECT count(*) FROM canvases`

func (q *Queries) CountCanvases(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countCanvases).Scan(&n)
	return n, err
}

// Views

const viewColumns = `id, name, canvas_id, data, created_at`

func scanView(row pgx.Row) (View, error) {
	var v View
	err := row.Scan(&v.ID, &v.Name, &v.CanvasID, &v.Data, &v.CreatedAt)
	return v, err
}

func collectViews(rows pgx.Rows, err error) ([]View, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []View
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

type CreateViewParams struct {
	Name     string
	CanvasID int64
	Data     []byte
}

const createView = `INSERT INTO views (name, canvas_id, data) VALUES ($1, $2, $3) RETURNING ` + viewColumns

func (q *Queries) CreateView(ctx context.Context, arg CreateViewParams) (View, error) {
	return scanView(q.db.QueryRow(ctx, createView, arg.Name, arg.CanvasID, arg.Data))
}

const getView = `SELECT ` + viewColumns + ` FROM views WHERE id = $1`

func (q *Queries) GetView(ctx context.Context, id int64) (View, error) {
	return scanView(q.db.QueryRow(ctx, getView, id))
}

const listViews = `SELECT ` + viewColumns + ` FROM views ORDER BY id`

func (q *Queries) ListViews(ctx context.Context) ([]View, error) {
	return collectViews(q.db.Query(ctx, listViews))
}

const listViewsByCanvas = `SELECT ` + viewColumns + ` FROM views WHERE canvas_id = $1 ORDER BY id`

func (q *Queries) ListViewsByCanvas(ctx context.Context, canvasID int64) ([]View, error) {
	return collectViews(q.db.Query(ctx, listViewsByCanvas, canvasID))
}

const countViewsByCanvas = `SELECT count(*) FROM views WHERE canvas_id = $1`

func (q *Queries) CountViewsByCanvas(ctx context.Context, canvasID int64) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countViewsByCanvas, canvasID).Scan(&n)
	return n, err
}

const deleteView = `DELETE FROM views WHERE id = $1`

func (q *Queries) DeleteView(ctx context.Context, id int64) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteView, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const countViews = `SELECT count(*) FROM views`

func (q *Queries) CountViews(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countViews).Scan(&n)
	return n, err
}
