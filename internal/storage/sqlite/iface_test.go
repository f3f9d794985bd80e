package sqlitestorage_test

import (
	"github.com/axlesim/axle/internal/storage"
	sqlitestorage "github.com/axlesim/axle/internal/storage/sqlite"
)

// Compile-time interface checks
var (
	_ storage.Backend    = (*sqlitestorage.Backend)(nil)
	_ storage.Uploadable = (*sqlitestorage.Backend)(nil)
)
