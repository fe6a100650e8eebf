package storage

import (
	"context"
	"database/sql"
	"fmt"
)

type locationRepository struct {
	db *sql.DB
}

// Create stores a map pin. Coordinate ranges are the caller's concern; the
// store only requires an owning account.
func (r *locationRepository) Create(ctx context.Context, accountID int64, latitude, longitude float64, label *string) (int64, error) {
	if accountID == 0 {
		return 0, &ValidationError{Field: "accountId", Reason: "owning account is required"}
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO locations(account_id, label, latitude, longitude, created_at)
		VALUES(?, ?, ?, ?, ?)
	`, accountID, nullString(label), latitude, longitude, fmtTime(nowUTC()))
	if err != nil {
		return 0, mapExecError("create location", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create location: last insert id: %w", err)
	}
	return id, nil
}

func (r *locationRepository) List(ctx context.Context, accountID int64) ([]Location, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, label, latitude, longitude, created_at
		FROM locations
		WHERE account_id = ?
		ORDER BY created_at DESC, id DESC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var out []Location
	for rows.Next() {
		var (
			loc       Location
			label     sql.NullString
			createdAt string
		)
		if err := rows.Scan(&loc.ID, &loc.AccountID, &label, &loc.Latitude, &loc.Longitude, &createdAt); err != nil {
			return nil, fmt.Errorf("list locations: scan row: %w", err)
		}
		loc.Label = stringPtr(label)
		loc.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("list locations: %w", err)
		}
		out = append(out, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list locations: iterate: %w", err)
	}
	return out, nil
}

// Delete is the nullifying counterpart to the account cascade: notes that
// referenced the location survive with a null location_id. The delete is
// scoped to the owning account so a guessed id from another account
// matches nothing.
func (r *locationRepository) Delete(ctx context.Context, id, accountID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete location: begin tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE notes SET location_id = NULL WHERE location_id = ?`, id); err != nil {
		_ = tx.Rollback()
		return mapExecError("delete location: nullify note references", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM locations WHERE id = ? AND account_id = ?`, id, accountID)
	if err != nil {
		_ = tx.Rollback()
		return mapExecError("delete location", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete location: rows affected: %w", err)
	}
	if count == 0 {
		_ = tx.Rollback()
		return fmt.Errorf("delete location: %w", &NotFoundError{Entity: "location", ID: id})
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete location: commit: %w", err)
	}
	return nil
}
