package storage

import (
	"context"
	"time"
)

type Account struct {
	ID             int64
	Username       string
	CredentialHash string
	CreatedAt      time.Time
}

type Location struct {
	ID        int64
	AccountID int64
	Label     *string
	Latitude  float64
	Longitude float64
	CreatedAt time.Time
}

type Note struct {
	ID         int64
	AccountID  int64
	Title      string
	Body       string
	LocationID *int64
	UpdatedAt  time.Time
}

// NoteView is the denormalized read projection: note fields plus the owning
// location's label when the note still references a live location.
type NoteView struct {
	ID            int64
	AccountID     int64
	Title         string
	Body          string
	LocationID    *int64
	LocationLabel *string
	UpdatedAt     time.Time
}

type AccountRepository interface {
	// Create validates username/password, stores the credential digest and
	// returns the new account id. The unique index on username is the
	// source of truth for duplicates; the pre-check only short-circuits.
	Create(ctx context.Context, username, password string) (int64, error)
	// Authenticate is a pure read: it never mutates state.
	Authenticate(ctx context.Context, username, password string) (int64, error)
	GetByID(ctx context.Context, id int64) (*Account, error)
	// Delete removes the account and, in the same transaction, every note
	// and location it owns. Notes go first so no note is left referencing
	// a location mid-delete.
	Delete(ctx context.Context, id int64) error
}

type LocationRepository interface {
	Create(ctx context.Context, accountID int64, latitude, longitude float64, label *string) (int64, error)
	// List returns the account's locations newest-first, ties broken by id
	// descending.
	List(ctx context.Context, accountID int64) ([]Location, error)
	// Delete is scoped to the owning account; notes referencing the
	// location get a null location_id in the same transaction.
	Delete(ctx context.Context, id, accountID int64) error
}

type NoteRepository interface {
	Create(ctx context.Context, note *Note) (int64, error)
	Update(ctx context.Context, note *Note) error
	Delete(ctx context.Context, id int64) error
}

// NoteViewReader is the read-only projection engine. It never mutates and
// may run concurrently with writers; offset pagination can observe
// duplicate or missing rows if a concurrent write reorders notes between
// pages.
type NoteViewReader interface {
	ListNotes(ctx context.Context, accountID int64, limit, offset int) ([]NoteView, error)
	GetNote(ctx context.Context, id int64) (*NoteView, error)
}
