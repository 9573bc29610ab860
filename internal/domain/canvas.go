package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// NodeKind selects the executor used for a canvas node.
type NodeKind string

const (
	NodeKindTable   NodeKind = "table"
	NodeKindFilter  NodeKind = "filter"
	NodeKindJoin    NodeKind = "join"
	NodeKindWebhook NodeKind = "webhook"
	NodeKindOther   NodeKind = "other"
)

// ParseNodeKind maps a node type as written by the canvas editor to its kind.
// Both the short form ("table") and the editor form ("tableNode") are accepted.
func ParseNodeKind(nodeType string) NodeKind {
	switch nodeType {
	case "table", "tableNode":
		return NodeKindTable
	case "filter", "filterNode":
		return NodeKindFilter
	case "join", "joinNode":
		return NodeKindJoin
	case "webhook", "webhookNode":
		return NodeKindWebhook
	default:
		return NodeKindOther
	}
}

// Position is the editor coordinate of a node. The engine never reads it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one step of a canvas graph
type Node struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Position *Position      `json:"position,omitempty"`
	Data     map[string]any `json:"data"`
}

// Kind returns the executor kind of the node.
func (n Node) Kind() NodeKind {
	return ParseNodeKind(n.Type)
}

// Edge is a directed link from one node's output to another node's input
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// NodePayload is the typed view of a node's data, one variant per kind.
type NodePayload interface {
	Kind() NodeKind
}

// TablePayload configures a table-source node.
type TablePayload struct {
	TableName string `json:"tableName"`
}

func (TablePayload) Kind() NodeKind { return NodeKindTable }

// FilterPayload configures a filter node.
type FilterPayload struct {
	Condition string `json:"condition"`
}

func (FilterPayload) Kind() NodeKind { return NodeKindFilter }

// JoinPayload configures an inner join against another table.
// JoinField is read from the incoming rows, TargetField from the joined table.
type JoinPayload struct {
	JoinTable   string `json:"joinTable"`
	JoinField   string `json:"joinField"`
	TargetField string `json:"targetField"`
}

func (JoinPayload) Kind() NodeKind { return NodeKindJoin }

// Complete reports whether all three join settings are present.
func (p JoinPayload) Complete() bool {
	return p.JoinTable != "" && p.JoinField != "" && p.TargetField != ""
}

// WebhookPayload configures an outbound notification.
type WebhookPayload struct {
	WebhookURL string `json:"webhookUrl"`
}

func (WebhookPayload) Kind() NodeKind { return NodeKindWebhook }

// OpaquePayload carries the data of node types the engine does not interpret.
type OpaquePayload struct {
	Type string
	Data map[string]any
}

func (OpaquePayload) Kind() NodeKind { return NodeKindOther }

// Payload decodes the node data into the variant for its kind. On a decode
// error the zero payload of the kind is returned alongside the error.
func (n Node) Payload() (NodePayload, error) {
	switch n.Kind() {
	case NodeKindTable:
		var p TablePayload
		err := decodeNodeData(n.Data, &p)
		return p, err
	case NodeKindFilter:
		var p FilterPayload
		err := decodeNodeData(n.Data, &p)
		return p, err
	case NodeKindJoin:
		var p JoinPayload
		err := decodeNodeData(n.Data, &p)
		return p, err
	case NodeKindWebhook:
		var p WebhookPayload
		err := decodeNodeData(n.Data, &p)
		return p, err
	default:
		return OpaquePayload{Type: n.Type, Data: copyData(n.Data)}, nil
	}
}

func decodeNodeData(data map[string]any, out any) error {
	if len(data) == 0 {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("build node data decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return fmt.Errorf("decode node data: %w", err)
	}
	return nil
}

// Canvas is a named graph of nodes and edges authored in the editor
type Canvas struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Nodes       []Node     `json:"nodes"`
	Edges       []Edge     `json:"edges"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// CanvasPatch carries a partial canvas update; nil members are left unchanged.
type CanvasPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Nodes       *[]Node `json:"nodes,omitempty"`
	Edges       *[]Edge `json:"edges,omitempty"`
}

// Apply returns a copy of the canvas with the patch applied
func (c Canvas) Apply(patch CanvasPatch) Canvas {
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Nodes != nil {
		c.Nodes = append([]Node(nil), (*patch.Nodes)...)
	}
	if patch.Edges != nil {
		c.Edges = append([]Edge(nil), (*patch.Edges)...)
	}
	now := time.Now()
	c.UpdatedAt = &now
	return c
}

// GraphToJSON encodes nodes and edges for storage.
func GraphToJSON(nodes []Node, edges []Edge) (json.RawMessage, json.RawMessage, error) {
	if nodes == nil {
		nodes = []Node{}
	}
	if edges == nil {
		edges = []Edge{}
	}
	nodesJSON, err := json.Marshal(nodes)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal nodes: %w", err)
	}
	edgesJSON, err := json.Marshal(edges)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal edges: %w", err)
	}
	return nodesJSON, edgesJSON, nil
}

// GraphFromJSON decodes stored nodes and edges
func GraphFromJSON(nodesJSON, edgesJSON []byte) ([]Node, []Edge, error) {
	nodes := []Node{}
	edges := []Edge{}
	if len(nodesJSON) > 0 {
		if err := json.Unmarshal(nodesJSON, &nodes); err != nil {
			return nil, nil, fmt.Errorf("unmarshal nodes: %w", err)
		}
	}
	if len(edgesJSON) > 0 {
		if err := json.Unmarshal(edgesJSON, &edges); err != nil {
			return nil, nil, fmt.Errorf("unmarshal edges: %w", err)
		}
	}
	if nodes == nil {
		nodes = []Node{}
	}
	if edges == nil {
		edges = []Edge{}
	}
	return nodes, edges, nil
}
