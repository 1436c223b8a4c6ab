package blob

import (
	memorystore "github.com/brunocuevas/nsdb/internal/infra/blob/memory"
)

// MemoryStore is the seedable in-memory backend.
type MemoryStore = memorystore.Store

// NewMemory returns an empty in-memory store. Use Add to seed it.
func NewMemory() *MemoryStore { return memorystore.New() }
