package canvas

import (
	"errors"
	"fmt"
)

// GraphErrorKind classifies a structural problem with a canvas graph.
type GraphErrorKind string

const (
	KindNoStartNode   GraphErrorKind = "no_start_node"
	KindDanglingEdge  GraphErrorKind = "dangling_edge"
	KindDuplicateNode GraphErrorKind = "duplicate_node"
	KindCycle         GraphErrorKind = "cycle"
)

// GraphError is the only error kind that aborts an execution. It is raised
// before any node runs, so no partial result or side effect exists.
type GraphError struct {
	Kind   GraphErrorKind
	NodeID string
	EdgeID string
}

func (e *GraphError) Error() string {
	switch e.Kind {
	case KindNoStartNode:
		return "canvas graph has no start node: every node has an incoming edge"
	case KindDanglingEdge:
		return fmt.Sprintf("edge %q references unknown node %q", e.EdgeID, e.NodeID)
	case KindDuplicateNode:
		return fmt.Sprintf("node id %q is used more than once", e.NodeID)
	case KindCycle:
		return fmt.Sprintf("chain revisits node %q", e.NodeID)
	default:
		return fmt.Sprintf("invalid canvas graph (%s)", e.Kind)
	}
}

// Is matches any GraphError of the same kind, so callers can write
// errors.Is(err, canvas.ErrNoStartNode).
func (e *GraphError) Is(target error) bool {
	t, ok := target.(*GraphError)
	return ok && t.Kind == e.Kind
}

var (
	ErrNoStartNode   = &GraphError{Kind: KindNoStartNode}
	ErrDanglingEdge  = &GraphError{Kind: KindDanglingEdge}
	ErrDuplicateNode = &GraphError{Kind: KindDuplicateNode}
	ErrCycle         = &GraphError{Kind: KindCycle}
)

// IsGraphError reports whether err is a structural graph error.
func IsGraphError(err error) bool {
	var target *GraphError
	return errors.As(err, &target)
}

// ReferenceError records a table or join node whose table could not be read.
type ReferenceError struct {
	NodeID string
	Table  string
	Err    error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("node %s: resolve table %q: %v", e.NodeID, e.Table, e.Err)
}

func (e *ReferenceError) Unwrap() error { return e.Err }

// ConditionError records a filter whose condition could not be evaluated.
type ConditionError struct {
	NodeID    string
	Condition string
	Err       error
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("node %s: condition %q: %v", e.NodeID, e.Condition, e.Err)
}

func (e *ConditionError) Unwrap() error { return e.Err }

// TransportError records a webhook delivery failure.
type TransportError struct {
	NodeID string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("node %s: webhook %s: %v", e.NodeID, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PayloadError records node data that does not fit the node's kind.
type PayloadError struct {
	NodeID string
	Err    error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("node %s: %v", e.NodeID, e.Err)
}

func (e *PayloadError) Unwrap() error { return e.Err }
