package canvas

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/rpattn/canvasdb/internal/condition"
	"github.com/rpattn/canvasdb/internal/domain"
)

// Status describes how a node executor finished.
type Status string

const (
	// StatusOK means the node did its work.
	StatusOK Status = "ok"
	// StatusEmpty means the node had nothing to do: missing settings or no
	// input rows. Its output is the documented default for that case.
	StatusEmpty Status = "empty"
	// StatusDegraded means the node hit an error and fell back to its
	// default output. Cause holds the error.
	StatusDegraded Status = "degraded"
)

// Outcome is the result of running one node.
type Outcome struct {
	Rows   []domain.Row
	Status Status
	Cause  error
}

var errNoWebhookSender = errors.New("no webhook transport configured")

func done(rows []domain.Row) Outcome {
	return Outcome{Rows: rows, Status: StatusOK}
}

func skipped(rows []domain.Row) Outcome {
	return Outcome{Rows: rows, Status: StatusEmpty}
}

func degraded(rows []domain.Row, cause error) Outcome {
	return Outcome{Rows: rows, Status: StatusDegraded, Cause: cause}
}

// step dispatches node to the executor for its kind.
func (r *run) step(ctx context.Context, node domain.Node, input []domain.Row) Outcome {
	payload, err := node.Payload()
	if err != nil {
		fallback := input
		if node.Kind() == domain.NodeKindTable {
			fallback = []domain.Row{}
		}
		return degraded(fallback, &PayloadError{NodeID: node.ID, Err: err})
	}

	switch p := payload.(type) {
	case domain.TablePayload:
		return r.table(ctx, node.ID, p)
	case domain.FilterPayload:
		return filter(node.ID, p, input)
	case domain.JoinPayload:
		return r.join(ctx, node.ID, p, input)
	case domain.WebhookPayload:
		return r.notify(ctx, node.ID, p, input)
	default:
		return done(input)
	}
}

// table ignores its input and emits every record of the named table.
// A missing or unreadable table yields no rows.
func (r *run) table(ctx context.Context, nodeID string, p domain.TablePayload) Outcome {
	if p.TableName == "" {
		return skipped([]domain.Row{})
	}
	records, err := r.records(ctx, p.TableName)
	if err != nil {
		return degraded([]domain.Row{}, &ReferenceError{NodeID: nodeID, Table: p.TableName, Err: err})
	}
	rows := make([]domain.Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rec.Row())
	}
	return done(rows)
}

// filter keeps the rows that satisfy the condition. The condition is
// compiled once; if it cannot be compiled the whole input passes through.
// A row the condition fails on is kept, and the first such failure is
// reported as the cause of a degraded outcome.
func filter(nodeID string, p domain.FilterPayload, input []domain.Row) Outcome {
	cond := strings.TrimSpace(p.Condition)
	if cond == "" || len(input) == 0 {
		return skipped(input)
	}
	expr, err := condition.Compile(cond)
	if err != nil {
		return degraded(input, &ConditionError{NodeID: nodeID, Condition: cond, Err: err})
	}
	var cause error
	kept := make([]domain.Row, 0, len(input))
	for _, row := range input {
		match, err := expr.Eval(row)
		if err != nil {
			if cause == nil {
				cause = &ConditionError{NodeID: nodeID, Condition: cond, Err: err}
			}
			kept = append(kept, row)
			continue
		}
		if match {
			kept = append(kept, row)
		}
	}
	if cause != nil {
		return degraded(kept, cause)
	}
	return done(kept)
}

// join inner-joins the input with the records of the join table, matching
// input[JoinField] against joined[TargetField]. Joined keys win on conflict.
// If the join table cannot be read the input passes through.
func (r *run) join(ctx context.Context, nodeID string, p domain.JoinPayload, input []domain.Row) Outcome {
	if !p.Complete() || len(input) == 0 {
		return skipped(input)
	}
	records, err := r.records(ctx, p.JoinTable)
	if err != nil {
		return degraded(input, &ReferenceError{NodeID: nodeID, Table: p.JoinTable, Err: err})
	}

	lookup := make(map[joinKey]domain.Row, len(records))
	for _, rec := range records {
		// Keyed on {id, ...data} so targetField "id" matches the record id.
		row := rec.Row()
		key, ok := keyOf(row[p.TargetField])
		if !ok {
			continue
		}
		lookup[key] = row
	}

	joined := make([]domain.Row, 0, len(input))
	for _, row := range input {
		key, ok := keyOf(row[p.JoinField])
		if !ok {
			continue
		}
		match, found := lookup[key]
		if !found {
			continue
		}
		merged := make(domain.Row, len(row)+len(match))
		for k, v := range row {
			merged[k] = v
		}
		for k, v := range match {
			merged[k] = v
		}
		joined = append(joined, merged)
	}
	return done(joined)
}

// notify posts the rows to the configured URL. Delivery never changes the
// rows: they are forwarded whether or not the webhook succeeds.
func (r *run) notify(ctx context.Context, nodeID string, p domain.WebhookPayload, input []domain.Row) Outcome {
	if p.WebhookURL == "" || len(input) == 0 {
		return skipped(input)
	}
	if r.webhook == nil {
		return degraded(input, &TransportError{NodeID: nodeID, URL: p.WebhookURL, Err: errNoWebhookSender})
	}
	if err := r.webhook.Send(ctx, p.WebhookURL, map[string]any{"data": input}); err != nil {
		return degraded(input, &TransportError{NodeID: nodeID, URL: p.WebhookURL, Err: err})
	}
	return done(input)
}

func (r *run) records(ctx context.Context, tableName string) ([]domain.Record, error) {
	table, err := r.store.FindTableByName(ctx, tableName)
	if err != nil {
		return nil, err
	}
	return r.store.ListRecords(ctx, table.ID)
}

// joinKey is a comparable form of a join value. Numbers share one key space
// so 1 and 1.0 match; booleans count as 1 and 0.
type joinKey struct {
	numeric bool
	text    string
}

func keyOf(value any) (joinKey, bool) {
	switch v := value.(type) {
	case nil:
		return joinKey{}, false
	case string:
		return joinKey{text: v}, true
	case bool:
		if v {
			return joinKey{numeric: true, text: "1"}, true
		}
		return joinKey{numeric: true, text: "0"}, true
	}
	if f, ok := asFloat(value); ok {
		if math.IsNaN(f) {
			return joinKey{}, false
		}
		if f == 0 {
			f = 0 // fold -0
		}
		return joinKey{numeric: true, text: strconv.FormatFloat(f, 'g', -1, 64)}, true
	}
	return joinKey{}, false
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}
