package gormstorage_test

import (
	"github.com/axlesim/axle/internal/storage"
	gormstorage "github.com/axlesim/axle/internal/storage/gorm"
)

// Compile-time interface check
var _ storage.Backend = (*gormstorage.Backend)(nil)
