// Package canvas executes canvas graphs: it resolves the graph into chains,
// runs every node of each chain through its executor and concatenates the
// chain outputs into one result.
package canvas

import (
	"context"
	"log/slog"
	"time"

	"github.com/rpattn/canvasdb/internal/domain"
	"github.com/rpattn/canvasdb/internal/tableloader"

	"github.com/google/uuid"
)

// RecordStore is the read side of the data store the engine needs.
type RecordStore interface {
	FindTableByName(ctx context.Context, name string) (domain.Table, error)
	ListRecords(ctx context.Context, tableID int64) ([]domain.Record, error)
}

// WebhookSender delivers a JSON payload to a URL.
type WebhookSender interface {
	Send(ctx context.Context, url string, payload any) error
}

// Engine runs canvas graphs against a record store.
type Engine struct {
	store   RecordStore
	webhook WebhookSender
	logger  *slog.Logger
	memoize bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for execution and node diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithWebhookSender sets the transport used by webhook nodes. Without one,
// webhook nodes pass their input through and report a degraded outcome.
func WithWebhookSender(sender WebhookSender) Option {
	return func(e *Engine) {
		e.webhook = sender
	}
}

// WithoutMemoization makes every table and join node read the store directly
// instead of sharing lookups within an execution.
func WithoutMemoization() Option {
	return func(e *Engine) {
		e.memoize = false
	}
}

// New creates an engine reading from store.
func New(store RecordStore, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		logger:  slog.New(slog.DiscardHandler),
		memoize: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the graph and returns the concatenated output of every chain,
// in start-node order.
//
// Only a *GraphError or a context error is returned. Node failures are
// contained by their executors and logged. When ctx is cancelled the result
// holds the completed chains plus the last output of the interrupted one.
func (e *Engine) Execute(ctx context.Context, nodes []domain.Node, edges []domain.Edge) (domain.ExecutionResult, error) {
	chains, err := plan(nodes, edges)
	if err != nil {
		return nil, err
	}

	logger := e.logger.With("execution_id", uuid.NewString())
	store := e.store
	if e.memoize {
		store = tableloader.New(e.store)
	}
	r := &run{store: store, webhook: e.webhook, logger: logger}

	start := time.Now()
	logger.Debug("canvas execution started", "nodes", len(nodes), "edges", len(edges), "chains", len(chains))

	result := domain.ExecutionResult{}
	for _, c := range chains {
		rows, err := r.walk(ctx, c)
		result = append(result, rows...)
		if err != nil {
			logger.Warn("canvas execution interrupted", "error", err, "rows", len(result))
			return result, err
		}
	}

	logger.Info("canvas execution finished",
		"chains", len(chains),
		"rows", len(result),
		"duration", time.Since(start),
	)
	return result, nil
}

// run holds the state of one execution.
type run struct {
	store   RecordStore
	webhook WebhookSender
	logger  *slog.Logger
}

// walk threads rows through one chain. The first node receives no rows.
func (r *run) walk(ctx context.Context, c chain) ([]domain.Row, error) {
	var current []domain.Row
	for _, node := range c {
		if err := ctx.Err(); err != nil {
			return current, err
		}
		started := time.Now()
		out := r.step(ctx, node, current)
		r.report(node, out, len(current), time.Since(started))
		current = out.Rows
	}
	return current, nil
}

func (r *run) report(node domain.Node, out Outcome, rowsIn int, took time.Duration) {
	attrs := []any{
		"node_id", node.ID,
		"node_type", node.Type,
		"status", out.Status,
		"rows_in", rowsIn,
		"rows_out", len(out.Rows),
		"duration", took,
	}
	if out.Status == StatusDegraded {
		r.logger.Warn("canvas node degraded", append(attrs, "error", out.Cause)...)
		return
	}
	r.logger.Debug("canvas node executed", attrs...)
}
