// Package memory exposes the in-memory transactional store as a storage
// driver. It exists so the driver factory can treat all backends uniformly.
package memory

import (
	"theatrecore/internal/core"
	"theatrecore/pkg/domain"
)

// Store is the ephemeral backend. All state is lost on process exit.
type Store = core.MemoryStore

// NewStore constructs an in-memory store with the supplied rules engine.
func NewStore(engine *domain.RulesEngine) *Store {
	return core.NewMemoryStore(engine)
}
