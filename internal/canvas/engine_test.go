package canvas

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rpattn/canvasdb/internal/domain"
	"github.com/rpattn/canvasdb/internal/testutil"
)

type mockStore struct {
	mu       sync.Mutex
	tables   map[string]domain.Table
	records  map[int64][]domain.Record
	lookups  int
	onList   func()
	listErrs map[int64]error
}

func newMockStore() *mockStore {
	return &mockStore{
		tables:  map[string]domain.Table{},
		records: map[int64][]domain.Record{},
	}
}

func (m *mockStore) addTable(id int64, name string, rows ...map[string]any) {
	m.tables[name] = domain.Table{ID: id, Name: name}
	for i, data := range rows {
		m.records[id] = append(m.records[id], domain.Record{
			ID:      id*100 + int64(i) + 1,
			TableID: id,
			Data:    data,
		})
	}
}

func (m *mockStore) FindTableByName(_ context.Context, name string) (domain.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	table, ok := m.tables[name]
	if !ok {
		return domain.Table{}, domain.ErrNotFound
	}
	return table, nil
}

func (m *mockStore) ListRecords(_ context.Context, tableID int64) ([]domain.Record, error) {
	m.mu.Lock()
	onList := m.onList
	err := m.listErrs[tableID]
	records := m.records[tableID]
	m.mu.Unlock()
	if onList != nil {
		onList()
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

type mockSender struct {
	mu    sync.Mutex
	err   error
	calls []sentWebhook
}

type sentWebhook struct {
	url     string
	payload any
}

func (m *mockSender) Send(_ context.Context, url string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, sentWebhook{url: url, payload: payload})
	return m.err
}

func tableNode(id, table string) domain.Node {
	return domain.Node{ID: id, Type: "tableNode", Data: map[string]any{"tableName": table}}
}

func filterNode(id, cond string) domain.Node {
	return domain.Node{ID: id, Type: "filterNode", Data: map[string]any{"condition": cond}}
}

func joinNode(id, table, joinField, targetField string) domain.Node {
	return domain.Node{ID: id, Type: "joinNode", Data: map[string]any{
		"joinTable":   table,
		"joinField":   joinField,
		"targetField": targetField,
	}}
}

func webhookNode(id, url string) domain.Node {
	return domain.Node{ID: id, Type: "webhookNode", Data: map[string]any{"webhookUrl": url}}
}

func edge(source, target string) domain.Edge {
	return domain.Edge{ID: source + "->" + target, Source: source, Target: target}
}

func inventoryStore() *mockStore {
	store := newMockStore()
	store.addTable(1, "inventory",
		map[string]any{"sku": "A", "available": float64(10)},
		map[string]any{"sku": "B", "available": float64(0)},
		map[string]any{"sku": "C", "available": float64(3)},
	)
	return store
}

func TestEngine_NoStartNode(t *testing.T) {
	engine := New(newMockStore())
	nodes := []domain.Node{filterNode("a", "x > 0"), filterNode("b", "x > 0")}
	edges := []domain.Edge{edge("a", "b"), edge("b", "a")}

	result, err := engine.Execute(context.Background(), nodes, edges)
	if !errors.Is(err, ErrNoStartNode) {
		t.Fatalf("expected ErrNoStartNode, got %v", err)
	}
	if result != nil {
		t.Fatalf("expected no result on graph error, got %v", result)
	}

	if _, err := engine.Execute(context.Background(), nil, nil); !errors.Is(err, ErrNoStartNode) {
		t.Fatalf("expected ErrNoStartNode for empty graph, got %v", err)
	}
}

func TestEngine_FilterThenFailingWebhook(t *testing.T) {
	sender := &mockSender{err: errors.New("connection refused")}
	engine := New(inventoryStore(), WithWebhookSender(sender), WithLogger(testutil.NewTestLogger(t)))
	nodes := []domain.Node{
		tableNode("t", "inventory"),
		filterNode("f", "available > 0"),
		webhookNode("w", "http://hooks.invalid/stock"),
	}
	edges := []domain.Edge{edge("t", "f"), edge("f", "w")}

	result, err := engine.Execute(context.Background(), nodes, edges)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(result) != 2 || result[0]["sku"] != "A" || result[1]["sku"] != "C" {
		t.Fatalf("expected rows A and C, got %v", result)
	}
	if len(sender.calls) != 1 {
		t.Fatalf("expected one webhook attempt, got %d", len(sender.calls))
	}
	call := sender.calls[0]
	if call.url != "http://hooks.invalid/stock" {
		t.Fatalf("unexpected webhook url %q", call.url)
	}
	body, ok := call.payload.(map[string]any)
	if !ok {
		t.Fatalf("expected map payload, got %T", call.payload)
	}
	data, ok := body["data"].([]domain.Row)
	if !ok || len(data) != 2 {
		t.Fatalf("expected payload data with 2 rows, got %v", body["data"])
	}
}

func TestEngine_UnknownTableYieldsEmptyResult(t *testing.T) {
	engine := New(newMockStore())

	result, err := engine.Execute(context.Background(), []domain.Node{tableNode("t", "nope")}, nil)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result == nil || len(result) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", result)
	}
}

func TestEngine_TableRowsCarryRecordID(t *testing.T) {
	engine := New(inventoryStore())

	result, err := engine.Execute(context.Background(), []domain.Node{tableNode("t", "inventory")}, nil)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(result))
	}
	if result[0]["id"] != int64(101) || result[0]["sku"] != "A" {
		t.Fatalf("unexpected first row %v", result[0])
	}
}

func TestEngine_MalformedConditionPassesInputThrough(t *testing.T) {
	engine := New(inventoryStore())
	nodes := []domain.Node{tableNode("t", "inventory"), filterNode("f", "available >>> 0")}

	result, err := engine.Execute(context.Background(), nodes, []domain.Edge{edge("t", "f")})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("expected unfiltered input, got %d rows", len(result))
	}
}

func TestEngine_EvalErrorKeepsOnlyThatRow(t *testing.T) {
	store := newMockStore()
	store.addTable(1, "mixed",
		map[string]any{"qty": float64(5)},
		map[string]any{"qty": "many"},
		map[string]any{"qty": float64(0)},
		map[string]any{"sku": "new"},
	)
	engine := New(store)
	nodes := []domain.Node{tableNode("t", "mixed"), filterNode("f", "qty > 1")}

	result, err := engine.Execute(context.Background(), nodes, []domain.Edge{edge("t", "f")})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("expected 3 rows, got %v", result)
	}
	for _, row := range result {
		if row["qty"] == float64(0) {
			t.Fatalf("row with qty 0 should have been filtered out: %v", result)
		}
	}
	if result[0]["qty"] != float64(5) || result[1]["qty"] != "many" || result[2]["sku"] != "new" {
		t.Fatalf("unexpected rows or order: %v", result)
	}
}

func TestEngine_QuotedFieldNameInCondition(t *testing.T) {
	store := newMockStore()
	store.addTable(1, "prices",
		map[string]any{"unit-price": float64(10)},
		map[string]any{"unit-price": float64(3)},
	)
	engine := New(store)
	nodes := []domain.Node{tableNode("t", "prices"), filterNode("f", "`unit-price` > 5")}

	result, err := engine.Execute(context.Background(), nodes, []domain.Edge{edge("t", "f")})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(result) != 1 || result[0]["unit-price"] != float64(10) || result[0]["id"] != int64(101) {
		t.Fatalf("expected only the row priced 10, got %v", result)
	}
}

func TestEngine_InnerJoin(t *testing.T) {
	store := newMockStore()
	store.addTable(1, "variants",
		map[string]any{"sku": "TS-RED-M", "product_id": float64(1)},
		map[string]any{"sku": "TS-BLU-L", "product_id": float64(2)},
		map[string]any{"sku": "HAT", "product_id": nil},
	)
	store.addTable(2, "products",
		map[string]any{"code": float64(1), "name": "T-Shirt", "sku": "PRODUCT"},
	)
	engine := New(store)
	nodes := []domain.Node{
		tableNode("v", "variants"),
		joinNode("j", "products", "product_id", "code"),
	}

	result, err := engine.Execute(context.Background(), nodes, []domain.Edge{edge("v", "j")})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected exactly one joined row, got %v", result)
	}
	row := result[0]
	if row["name"] != "T-Shirt" {
		t.Fatalf("expected joined product name, got %v", row)
	}
	if row["sku"] != "PRODUCT" {
		t.Fatalf("expected joined keys to win on conflict, got sku=%v", row["sku"])
	}
	if row["product_id"] != float64(1) {
		t.Fatalf("expected left-only keys to survive, got %v", row)
	}
}

func TestEngine_JoinMatchesRecordIDAcrossNumericTypes(t *testing.T) {
	store := newMockStore()
	store.addTable(1, "orders", map[string]any{"product": float64(201)})
	store.addTable(2, "products", map[string]any{"name": "Mug"})
	engine := New(store)
	nodes := []domain.Node{tableNode("o", "orders"), joinNode("j", "products", "product", "id")}

	result, err := engine.Execute(context.Background(), nodes, []domain.Edge{edge("o", "j")})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(result) != 1 || result[0]["name"] != "Mug" {
		t.Fatalf("expected float 201 to match record id 201, got %v", result)
	}
}

func TestEngine_JoinWithUnknownTablePassesThrough(t *testing.T) {
	engine := New(inventoryStore())
	nodes := []domain.Node{tableNode("t", "inventory"), joinNode("j", "missing", "sku", "sku")}

	result, err := engine.Execute(context.Background(), nodes, []domain.Edge{edge("t", "j")})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("expected input to pass through, got %d rows", len(result))
	}
}

func TestEngine_IncompleteJoinPassesThrough(t *testing.T) {
	engine := New(inventoryStore())
	nodes := []domain.Node{tableNode("t", "inventory"), joinNode("j", "inventory", "sku", "")}

	result, err := engine.Execute(context.Background(), nodes, []domain.Edge{edge("t", "j")})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("expected input to pass through, got %d rows", len(result))
	}
}

func TestEngine_ChainsConcatenateInStartOrder(t *testing.T) {
	store := inventoryStore()
	store.addTable(2, "products", map[string]any{"name": "Mug"}, map[string]any{"name": "Hat"})
	engine := New(store)
	nodes := []domain.Node{
		tableNode("p", "products"),
		tableNode("i", "inventory"),
		filterNode("f", "available > 5"),
	}

	result, err := engine.Execute(context.Background(), nodes, []domain.Edge{edge("i", "f")})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("expected 2 + 1 rows, got %v", result)
	}
	if result[0]["name"] != "Mug" || result[1]["name"] != "Hat" || result[2]["sku"] != "A" {
		t.Fatalf("unexpected row order %v", result)
	}
}

func TestEngine_FollowsFirstOutgoingEdgeOnly(t *testing.T) {
	engine := New(inventoryStore())
	nodes := []domain.Node{
		tableNode("t", "inventory"),
		filterNode("keep", "available > 5"),
		filterNode("drop", "available < 0"),
	}
	edges := []domain.Edge{edge("t", "keep"), edge("t", "drop")}

	result, err := engine.Execute(context.Background(), nodes, edges)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(result) != 1 || result[0]["sku"] != "A" {
		t.Fatalf("expected only the first branch to run, got %v", result)
	}
}

func TestEngine_Idempotent(t *testing.T) {
	engine := New(inventoryStore())
	nodes := []domain.Node{tableNode("t", "inventory"), filterNode("f", "available > 0")}
	edges := []domain.Edge{edge("t", "f")}

	first, err := engine.Execute(context.Background(), nodes, edges)
	if err != nil {
		t.Fatalf("first Execute returned error: %v", err)
	}
	second, err := engine.Execute(context.Background(), nodes, edges)
	if err != nil {
		t.Fatalf("second Execute returned error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("expected identical results, got %d and %d rows", len(first), len(second))
	}
	for i := range first {
		if first[i]["sku"] != second[i]["sku"] {
			t.Fatalf("row %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestEngine_StructuralErrors(t *testing.T) {
	cases := []struct {
		name  string
		nodes []domain.Node
		edges []domain.Edge
		want  error
	}{
		{
			name:  "dangling edge",
			nodes: []domain.Node{tableNode("t", "inventory")},
			edges: []domain.Edge{edge("t", "ghost")},
			want:  ErrDanglingEdge,
		},
		{
			name:  "duplicate node",
			nodes: []domain.Node{tableNode("t", "inventory"), tableNode("t", "inventory")},
			want:  ErrDuplicateNode,
		},
		{
			name: "cycle after start",
			nodes: []domain.Node{
				tableNode("t", "inventory"),
				filterNode("a", "available > 0"),
				filterNode("b", "available > 0"),
			},
			edges: []domain.Edge{edge("t", "a"), edge("a", "b"), edge("b", "a")},
			want:  ErrCycle,
		},
	}

	for _, tc := range cases {
		sender := &mockSender{}
		engine := New(inventoryStore(), WithWebhookSender(sender))
		_, err := engine.Execute(context.Background(), tc.nodes, tc.edges)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if !IsGraphError(err) {
			t.Fatalf("%s: expected a graph error, got %T", tc.name, err)
		}
	}
}

func TestEngine_CancellationReturnsPartialResult(t *testing.T) {
	store := inventoryStore()
	store.addTable(2, "products", map[string]any{"name": "Mug"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := &mockSender{}
	engine := New(store, WithWebhookSender(sender), WithoutMemoization())
	nodes := []domain.Node{
		tableNode("p", "products"),
		tableNode("i", "inventory"),
		webhookNode("w", "http://hooks.invalid"),
		tableNode("late", "products"),
	}
	edges := []domain.Edge{edge("i", "w")}

	store.onList = func() {
		store.mu.Lock()
		calls := store.lookups
		store.mu.Unlock()
		if calls == 2 {
			cancel()
		}
	}

	result, err := engine.Execute(ctx, nodes, edges)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(result) != 4 {
		t.Fatalf("expected first chain plus inventory rows, got %v", result)
	}
	if len(sender.calls) != 0 {
		t.Fatalf("expected no webhook after cancellation, got %d", len(sender.calls))
	}
}

func TestEngine_UnknownNodeTypePassesThrough(t *testing.T) {
	engine := New(inventoryStore())
	nodes := []domain.Node{
		tableNode("t", "inventory"),
		{ID: "note", Type: "stickyNote", Data: map[string]any{"text": "hello"}},
	}

	result, err := engine.Execute(context.Background(), nodes, []domain.Edge{edge("t", "note")})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("expected passthrough, got %d rows", len(result))
	}
}

func TestEngine_WebhookWithoutSenderForwardsRows(t *testing.T) {
	engine := New(inventoryStore())
	nodes := []domain.Node{tableNode("t", "inventory"), webhookNode("w", "http://hooks.invalid")}

	result, err := engine.Execute(context.Background(), nodes, []domain.Edge{edge("t", "w")})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("expected rows forwarded, got %d", len(result))
	}
}

func TestEngine_StoreFailureIsContained(t *testing.T) {
	store := inventoryStore()
	store.listErrs = map[int64]error{1: errors.New("connection reset")}
	engine := New(store, WithLogger(testutil.NewTestLogger(t)))

	result, err := engine.Execute(context.Background(), []domain.Node{tableNode("t", "inventory")}, nil)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(result) != 0 {
		t.Fatalf("expected no rows, got %v", result)
	}
}

func TestStep_ReportsDegradedCause(t *testing.T) {
	r := &run{store: newMockStore()}
	out := r.step(context.Background(), tableNode("t", "missing"), nil)
	if out.Status != StatusDegraded {
		t.Fatalf("expected degraded status, got %s", out.Status)
	}
	var refErr *ReferenceError
	if !errors.As(out.Cause, &refErr) || refErr.Table != "missing" {
		t.Fatalf("expected ReferenceError for missing table, got %v", out.Cause)
	}
	if !errors.Is(out.Cause, domain.ErrNotFound) {
		t.Fatalf("expected cause to wrap ErrNotFound")
	}

	out = filter("f", domain.FilterPayload{Condition: "a >"}, []domain.Row{{"a": 1}})
	var condErr *ConditionError
	if out.Status != StatusDegraded || !errors.As(out.Cause, &condErr) {
		t.Fatalf("expected degraded filter with ConditionError, got %+v", out)
	}

	out = filter("f", domain.FilterPayload{Condition: "available > 0"}, []domain.Row{
		{"available": float64(45)},
		{"available": float64(0)},
		{"sku": "new"},
	})
	if out.Status != StatusDegraded || !errors.As(out.Cause, &condErr) || condErr.NodeID != "f" {
		t.Fatalf("expected degraded filter with ConditionError, got %+v", out)
	}
	if len(out.Rows) != 2 || out.Rows[0]["available"] != float64(45) || out.Rows[1]["sku"] != "new" {
		t.Fatalf("expected the matching row and the failing row, got %v", out.Rows)
	}

	out = filter("f", domain.FilterPayload{}, []domain.Row{{"a": 1}})
	if out.Status != StatusEmpty || len(out.Rows) != 1 {
		t.Fatalf("expected empty-config filter to pass input, got %+v", out)
	}
}
