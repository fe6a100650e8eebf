package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type noteViewReader struct {
	db *sql.DB
}

const noteViewSelect = `
	SELECT n.id, n.account_id, n.title, n.body, n.updated_at, n.location_id, l.label
	FROM notes n
	LEFT JOIN locations l ON l.id = n.location_id
`

// ListNotes pages through an account's notes, most recently touched first.
// Offset is a plain skip-count: callers loading incrementally must track
// offsets themselves and tolerate duplicate or missing rows when concurrent
// writes reorder notes between pages.
func (r *noteViewReader) ListNotes(ctx context.Context, accountID int64, limit, offset int) ([]NoteView, error) {
	if limit < 0 {
		return nil, &ValidationError{Field: "limit", Reason: "must not be negative"}
	}
	if offset < 0 {
		return nil, &ValidationError{Field: "offset", Reason: "must not be negative"}
	}

	rows, err := r.db.QueryContext(ctx, noteViewSelect+`
		WHERE n.account_id = ?
		ORDER BY n.updated_at DESC, n.id DESC
		LIMIT ? OFFSET ?
	`, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var out []NoteView
	for rows.Next() {
		view, err := scanNoteView(rows)
		if err != nil {
			return nil, fmt.Errorf("list notes: %w", err)
		}
		out = append(out, *view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notes: iterate: %w", err)
	}
	return out, nil
}

func (r *noteViewReader) GetNote(ctx context.Context, id int64) (*NoteView, error) {
	row := r.db.QueryRowContext(ctx, noteViewSelect+` WHERE n.id = ?`, id)

	view, err := scanNoteView(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get note: %w", &NotFoundError{Entity: "note", ID: id})
		}
		return nil, fmt.Errorf("get note: %w", err)
	}
	return view, nil
}

type noteViewScanner interface {
	Scan(dest ...any) error
}

func scanNoteView(scanner noteViewScanner) (*NoteView, error) {
	var (
		view       NoteView
		body       sql.NullString
		updatedAt  string
		locationID sql.NullInt64
		label      sql.NullString
	)
	if err := scanner.Scan(&view.ID, &view.AccountID, &view.Title, &body, &updatedAt, &locationID, &label); err != nil {
		return nil, err
	}

	view.Body = body.String
	view.LocationID = int64Ptr(locationID)
	view.LocationLabel = stringPtr(label)

	parsed, err := parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	view.UpdatedAt = parsed
	return &view, nil
}
