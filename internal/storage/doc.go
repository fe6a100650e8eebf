package storage

// Package storage provides the SQLite-backed persistence layer: versioned
// schema migrations, transactional entity repositories with cascading and
// nullifying deletes, and the paginated note/location read projection.
