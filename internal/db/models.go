package db

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type Table struct {
	ID          int64
	Name        string
	DisplayName string
	Description pgtype.Text
	CreatedAt   time.Time
	UpdatedAt   pgtype.Timestamptz
}

type Field struct {
	ID           int64
	TableID      int64
	Name         string
	DisplayName  string
	FieldType    string
	Options      []byte
	Required     bool
	DefaultValue pgtype.Text
	CreatedAt    time.Time
}

type Record struct {
	ID        int64
	TableID   int64
	Data      []byte
	CreatedAt time.Time
	UpdatedAt pgtype.Timestamptz
}

type Canvas struct {
	ID          int64
	Name        string
	Description pgtype.Text
	Nodes       []byte
	Edges       []byte
	CreatedAt   time.Time
	UpdatedAt   pgtype.Timestamptz
}

type View struct {
	ID        int64
	Name      string
	CanvasID  int64
	Data      []byte
	CreatedAt time.Time
}
