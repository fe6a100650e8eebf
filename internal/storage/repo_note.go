package storage

import (
	"context"
	"database/sql"
	"fmt"
)

type noteRepository struct {
	db *sql.DB
}

// Create stamps updated_at itself; a caller-supplied value is ignored so
// the read model's recency ordering stays meaningful.
func (r *noteRepository) Create(ctx context.Context, note *Note) (int64, error) {
	if note == nil {
		return 0, fmt.Errorf("create note: note is nil")
	}
	if note.AccountID == 0 {
		return 0, &ValidationError{Field: "accountId", Reason: "owning account is required"}
	}

	note.UpdatedAt = nowUTC()
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO notes(account_id, title, body, updated_at, location_id)
		VALUES(?, ?, ?, ?, ?)
	`, note.AccountID, note.Title, note.Body, fmtTime(note.UpdatedAt), nullInt64(note.LocationID))
	if err != nil {
		return 0, mapExecError("create note", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create note: last insert id: %w", err)
	}
	note.ID = id
	return id, nil
}

func (r *noteRepository) Update(ctx context.Context, note *Note) error {
	if note == nil {
		return fmt.Errorf("update note: note is nil")
	}
	if note.ID == 0 {
		return &ValidationError{Field: "id", Reason: "note id is required"}
	}

	note.UpdatedAt = nowUTC()
	result, err := r.db.ExecContext(ctx, `
		UPDATE notes
		SET title = ?, body = ?, location_id = ?, updated_at = ?
		WHERE id = ?
	`, note.Title, note.Body, nullInt64(note.LocationID), fmtTime(note.UpdatedAt), note.ID)
	if err != nil {
		return mapExecError("update note", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update note: rows affected: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("update note: %w", &NotFoundError{Entity: "note", ID: note.ID})
	}
	return nil
}

func (r *noteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return mapExecError("delete note", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note: rows affected: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("delete note: %w", &NotFoundError{Entity: "note", ID: id})
	}
	return nil
}
