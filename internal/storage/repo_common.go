package storage

import (
	"database/sql"
	"fmt"
	"time"
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(raw sql.NullString) *string {
	if !raw.Valid {
		return nil
	}
	s := raw.String
	return &s
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(raw sql.NullInt64) *int64 {
	if !raw.Valid {
		return nil
	}
	v := raw.Int64
	return &v
}
