package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rpattn/canvasdb/internal/domain"
)

// NewMemoryStore returns a Store backed by process memory. It enforces the
// same uniqueness and cascade rules as the postgres schema.
func NewMemoryStore() *Store {
	m := &memoryDB{
		seq:      map[string]int64{},
		tables:   map[int64]domain.Table{},
		fields:   map[int64]domain.Field{},
		records:  map[int64]domain.Record{},
		canvases: map[int64]domain.Canvas{},
		views:    map[int64]domain.View{},
	}
	return &Store{
		Tables:   &memoryTables{m},
		Fields:   &memoryFields{m},
		Records:  &memoryRecords{m},
		Canvases: &memoryCanvases{m},
		Views:    &memoryViews{m},
	}
}

type memoryDB struct {
	mu       sync.RWMutex
	seq      map[string]int64
	tables   map[int64]domain.Table
	fields   map[int64]domain.Field
	records  map[int64]domain.Record
	canvases map[int64]domain.Canvas
	views    map[int64]domain.View
}

// nextID hands out ids per kind, like a serial column.
func (m *memoryDB) nextID(kind string) int64 {
	m.seq[kind]++
	return m.seq[kind]
}

// tableWithFields must be called with the lock held.
func (m *memoryDB) tableWithFields(t domain.Table) domain.Table {
	fields := []domain.Field{}
	for _, f := range m.fields {
		if f.TableID == t.ID {
			fields = append(fields, cloneField(f))
		}
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].ID < fields[j].ID })
	t.Fields = fields
	return t
}

func (m *memoryDB) fieldNameTaken(tableID int64, name string, except int64) bool {
	for _, f := range m.fields {
		if f.TableID == tableID && f.Name == name && f.ID != except {
			return true
		}
	}
	return false
}

type memoryTables struct{ m *memoryDB }

func (r *memoryTables) Create(_ context.Context, table domain.Table) (domain.Table, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, existing := range r.m.tables {
		if existing.Name == table.Name {
			return domain.Table{}, fmt.Errorf("table %s: %w", table.Name, domain.ErrConflict)
		}
	}
	seen := map[string]struct{}{}
	for _, f := range table.Fields {
		if _, dup := seen[f.Name]; dup {
			return domain.Table{}, fmt.Errorf("field %s: %w", f.Name, domain.ErrConflict)
		}
		seen[f.Name] = struct{}{}
	}

	now := time.Now()
	stored := domain.Table{
		ID:          r.m.nextID("tables"),
		Name:        table.Name,
		DisplayName: table.DisplayName,
		Description: table.Description,
		CreatedAt:   now,
	}
	r.m.tables[stored.ID] = stored
	for _, f := range table.Fields {
		f = cloneField(f)
		f.ID = r.m.nextID("fields")
		f.TableID = stored.ID
		f.CreatedAt = now
		r.m.fields[f.ID] = f
	}
	return r.m.tableWithFields(stored), nil
}

func (r *memoryTables) GetByID(_ context.Context, id int64) (domain.Table, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	t, ok := r.m.tables[id]
	if !ok {
		return domain.Table{}, fmt.Errorf("table %d: %w", id, domain.ErrNotFound)
	}
	return r.m.tableWithFields(t), nil
}

func (r *memoryTables) GetByName(_ context.Context, name string) (domain.Table, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, t := range r.m.tables {
		if t.Name == name {
			return r.m.tableWithFields(t), nil
		}
	}
	return domain.Table{}, fmt.Errorf("table %s: %w", name, domain.ErrNotFound)
}

func (r *memoryTables) List(_ context.Context) ([]domain.Table, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	tables := make([]domain.Table, 0, len(r.m.tables))
	for _, t := range r.m.tables {
		tables = append(tables, r.m.tableWithFields(t))
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].ID < tables[j].ID })
	return tables, nil
}

func (r *memoryTables) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.tables[id]; !ok {
		return fmt.Errorf("table %d: %w", id, domain.ErrNotFound)
	}
	delete(r.m.tables, id)
	for fid, f := range r.m.fields {
		if f.TableID == id {
			delete(r.m.fields, fid)
		}
	}
	for rid, rec := range r.m.records {
		if rec.TableID == id {
			delete(r.m.records, rid)
		}
	}
	return nil
}

func (r *memoryTables) Count(_ context.Context) (int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return int64(len(r.m.tables)), nil
}

type memoryFields struct{ m *memoryDB }

func (r *memoryFields) Create(_ context.Context, field domain.Field) (domain.Field, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.tables[field.TableID]
	if !ok {
		return domain.Field{}, fmt.Errorf("table %d: %w", field.TableID, domain.ErrNotFound)
	}
	if r.m.fieldNameTaken(field.TableID, field.Name, 0) {
		return domain.Field{}, fmt.Errorf("field %s: %w", field.Name, domain.ErrConflict)
	}
	field = cloneField(field)
	field.ID = r.m.nextID("fields")
	field.CreatedAt = time.Now()
	r.m.fields[field.ID] = field
	r.m.touchTable(t)
	return cloneField(field), nil
}

func (r *memoryFields) GetByID(_ context.Context, id int64) (domain.Field, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	f, ok := r.m.fields[id]
	if !ok {
		return domain.Field{}, fmt.Errorf("field %d: %w", id, domain.ErrNotFound)
	}
	return cloneField(f), nil
}

func (r *memoryFields) Update(_ context.Context, field domain.Field) (domain.Field, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.fields[field.ID]
	if !ok {
		return domain.Field{}, fmt.Errorf("field %d: %w", field.ID, domain.ErrNotFound)
	}
	if r.m.fieldNameTaken(existing.TableID, field.Name, field.ID) {
		return domain.Field{}, fmt.Errorf("field %s: %w", field.Name, domain.ErrConflict)
	}
	field = cloneField(field)
	field.TableID = existing.TableID
	field.CreatedAt = existing.CreatedAt
	r.m.fields[field.ID] = field
	r.m.touchTable(r.m.tables[existing.TableID])
	return cloneField(field), nil
}

func (r *memoryFields) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	f, ok := r.m.fields[id]
	if !ok {
		return fmt.Errorf("field %d: %w", id, domain.ErrNotFound)
	}
	delete(r.m.fields, id)
	r.m.touchTable(r.m.tables[f.TableID])
	return nil
}

func (m *memoryDB) touchTable(t domain.Table) {
	if t.ID == 0 {
		return
	}
	now := time.Now()
	t.UpdatedAt = &now
	m.tables[t.ID] = t
}

type memoryRecords struct{ m *memoryDB }

func (r *memoryRecords) Create(_ context.Context, record domain.Record) (domain.Record, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.insert(record)
}

func (r *memoryRecords) insert(record domain.Record) (domain.Record, error) {
	if _, ok := r.m.tables[record.TableID]; !ok {
		return domain.Record{}, fmt.Errorf("table %d: %w", record.TableID, domain.ErrNotFound)
	}
	record = cloneRecord(record)
	record.ID = r.m.nextID("records")
	record.CreatedAt = time.Now()
	record.UpdatedAt = nil
	r.m.records[record.ID] = record
	return cloneRecord(record), nil
}

// CreateBatch inserts all records or none.
func (r *memoryRecords) CreateBatch(_ context.Context, records []domain.Record) ([]domain.Record, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, rec := range records {
		if _, ok := r.m.tables[rec.TableID]; !ok {
			return nil, fmt.Errorf("table %d: %w", rec.TableID, domain.ErrNotFound)
		}
	}
	out := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		created, err := r.insert(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	return out, nil
}

func (r *memoryRecords) GetByID(_ context.Context, id int64) (domain.Record, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	rec, ok := r.m.records[id]
	if !ok {
		return domain.Record{}, fmt.Errorf("record %d: %w", id, domain.ErrNotFound)
	}
	return cloneRecord(rec), nil
}

func (r *memoryRecords) ListByTable(_ context.Context, tableID int64) ([]domain.Record, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	records := []domain.Record{}
	for _, rec := range r.m.records {
		if rec.TableID == tableID {
			records = append(records, cloneRecord(rec))
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (r *memoryRecords) Update(_ context.Context, record domain.Record) (domain.Record, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.records[record.ID]
	if !ok {
		return domain.Record{}, fmt.Errorf("record %d: %w", record.ID, domain.ErrNotFound)
	}
	now := time.Now()
	existing.Data = cloneMap(record.Data)
	existing.UpdatedAt = &now
	r.m.records[existing.ID] = existing
	return cloneRecord(existing), nil
}

func (r *memoryRecords) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.records[id]; !ok {
		return fmt.Errorf("record %d: %w", id, domain.ErrNotFound)
	}
	delete(r.m.records, id)
	return nil
}

func (r *memoryRecords) Count(_ context.Context) (int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return int64(len(r.m.records)), nil
}

type memoryCanvases struct{ m *memoryDB }

func (r *memoryCanvases) Create(_ context.Context, canvas domain.Canvas) (domain.Canvas, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	canvas = cloneCanvas(canvas)
	canvas.ID = r.m.nextID("canvases")
	canvas.CreatedAt = time.Now()
	canvas.UpdatedAt = nil
	r.m.canvases[canvas.ID] = canvas
	return cloneCanvas(canvas), nil
}

func (r *memoryCanvases) GetByID(_ context.Context, id int64) (domain.Canvas, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	c, ok := r.m.canvases[id]
	if !ok {
		return domain.Canvas{}, fmt.Errorf("canvas %d: %w", id, domain.ErrNotFound)
	}
	return cloneCanvas(c), nil
}

func (r *memoryCanvases) List(_ context.Context) ([]domain.Canvas, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	canvases := make([]domain.Canvas, 0, len(r.m.canvases))
	for _, c := range r.m.canvases {
		canvases = append(canvases, cloneCanvas(c))
	}
	sort.Slice(canvases, func(i, j int) bool { return canvases[i].ID < canvases[j].ID })
	return canvases, nil
}

func (r *memoryCanvases) Update(_ context.Context, canvas domain.Canvas) (domain.Canvas, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.canvases[canvas.ID]
	if !ok {
		return domain.Canvas{}, fmt.Errorf("canvas %d: %w", canvas.ID, domain.ErrNotFound)
	}
	canvas = cloneCanvas(canvas)
	canvas.CreatedAt = existing.CreatedAt
	now := time.Now()
	canvas.UpdatedAt = &now
	r.m.canvases[canvas.ID] = canvas
	return cloneCanvas(canvas), nil
}

func (r *memoryCanvases) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.canvases[id]; !ok {
		return fmt.Errorf("canvas %d: %w", id, domain.ErrNotFound)
	}
	delete(r.m.canvases, id)
	for vid, v := range r.m.views {
		if v.CanvasID == id {
			delete(r.m.views, vid)
		}
	}
	return nil
}

func (r *memoryCanvases) Count(_ context.Context) (int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return int64(len(r.m.canvases)), nil
}

type memoryViews struct{ m *memoryDB }

func (r *memoryViews) Create(_ context.Context, view domain.View) (domain.View, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.canvases[view.CanvasID]; !ok {
		return domain.View{}, fmt.Errorf("canvas %d: %w", view.CanvasID, domain.ErrNotFound)
	}
	view = cloneView(view)
	view.ID = r.m.nextID("views")
	view.CreatedAt = time.Now()
	r.m.views[view.ID] = view
	return cloneView(view), nil
}

func (r *memoryViews) GetByID(_ context.Context, id int64) (domain.View, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	v, ok := r.m.views[id]
	if !ok {
		return domain.View{}, fmt.Errorf("view %d: %w", id, domain.ErrNotFound)
	}
	return cloneView(v), nil
}

func (r *memoryViews) List(_ context.Context) ([]domain.View, error) {
	return r.filter(func(domain.View) bool { return true }), nil
}

func (r *memoryViews) ListByCanvas(_ context.Context, canvasID int64) ([]domain.View, error) {
	return r.filter(func(v domain.View) bool { return v.CanvasID == canvasID }), nil
}

func (r *memoryViews) CountByCanvas(_ context.Context, canvasID int64) (int64, error) {
	return int64(len(r.filter(func(v domain.View) bool { return v.CanvasID == canvasID }))), nil
}

func (r *memoryViews) filter(keep func(domain.View) bool) []domain.View {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	views := []domain.View{}
	for _, v := range r.m.views {
		if keep(v) {
			views = append(views, cloneView(v))
		}
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	return views
}

func (r *memoryViews) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.views[id]; !ok {
		return fmt.Errorf("view %d: %w", id, domain.ErrNotFound)
	}
	delete(r.m.views, id)
	return nil
}

func (r *memoryViews) Count(_ context.Context) (int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return int64(len(r.m.views)), nil
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneField(f domain.Field) domain.Field {
	if f.Options != nil {
		f.Options = cloneMap(f.Options)
	}
	if f.DefaultValue != nil {
		v := *f.DefaultValue
		f.DefaultValue = &v
	}
	return f
}

func cloneRecord(r domain.Record) domain.Record {
	r.Data = cloneMap(r.Data)
	return r
}

func cloneCanvas(c domain.Canvas) domain.Canvas {
	nodes := make([]domain.Node, len(c.Nodes))
	for i, n := range c.Nodes {
		n.Data = cloneMap(n.Data)
		nodes[i] = n
	}
	c.Nodes = nodes
	c.Edges = append([]domain.Edge{}, c.Edges...)
	return c
}

func cloneView(v domain.View) domain.View {
	data := make(domain.ExecutionResult, len(v.Data))
	for i, row := range v.Data {
		data[i] = cloneMap(row)
	}
	v.Data = data
	return v
}
