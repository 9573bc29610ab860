package domain

import (
	"encoding/json"
	"time"
)

// Row is a schema-less record mapping as it flows through a canvas execution.
type Row = map[string]any

// Record is one JSON row stored in a table
type Record struct {
	ID        int64          `json:"id"`
	TableID   int64          `json:"table_id"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt *time.Time     `json:"updated_at,omitempty"`
}

// NewRecord creates a record for the given table with copied data
func NewRecord(tableID int64, data map[string]any) Record {
	if data == nil {
		data = map[string]any{}
	}
	return Record{
		TableID:   tableID,
		Data:      copyData(data),
		CreatedAt: time.Now(),
	}
}

// Row spreads the record into a plain mapping with its id merged in.
// Keys stored in the data win over the id, matching a {id, ...data} spread.
func (r Record) Row() Row {
	row := make(Row, len(r.Data)+1)
	row["id"] = r.ID
	for k, v := range r.Data {
		row[k] = v
	}
	return row
}

// WithData returns a new record with replaced data
func (r Record) WithData(data map[string]any) Record {
	now := time.Now()
	r.Data = copyData(data)
	r.UpdatedAt = &now
	return r
}

// DataJSON encodes the record payload for storage.
func (r Record) DataJSON() (json.RawMessage, error) {
	if r.Data == nil {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(r.Data)
}

// DataFromJSON decodes a stored JSON object payload
func DataFromJSON(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// copyData makes a shallow copy of a JSON payload
func copyData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
