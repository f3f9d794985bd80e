package memory_test

import (
	"github.com/axlesim/axle/internal/storage"
	"github.com/axlesim/axle/internal/storage/memory"
)

// Compile-time interface checks
var (
	_ storage.Backend    = (*memory.Backend)(nil)
	_ storage.Uploadable = (*memory.Backend)(nil)
)
