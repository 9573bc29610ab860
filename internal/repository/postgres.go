package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/rpattn/canvasdb/internal/db"
	"github.com/rpattn/canvasdb/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// NewPostgresStore returns a Store backed by the given connection.
func NewPostgresStore(conn *db.Connection) *Store {
	queries := conn.Queries()
	return &Store{
		Tables:   NewTableRepository(conn, queries),
		Fields:   NewFieldRepository(queries),
		Records:  NewRecordRepository(conn, queries),
		Canvases: NewCanvasRepository(queries),
		Views:    NewViewRepository(queries),
	}
}

const uniqueViolation = "23505"

// mapError translates driver errors into domain sentinels.
func mapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", what, domain.ErrConflict)
	}
	return fmt.Errorf("failed to %s: %w", what, err)
}

func affected(n int64, err error, format string, args ...any) error {
	if err != nil {
		return mapError(err, format, args...)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domain.ErrNotFound)
	}
	return nil
}

func optionalText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func optionalTextPtr(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func timePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}
