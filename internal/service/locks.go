package service

import (
	"sync"

	"github.com/google/uuid"
)

// CubiertaLocks serializa las operaciones de ciclo de vida por cubierta:
// append de historial + recálculo + persistencia de la proyección no pueden
// intercalarse para la misma cubierta o el recálculo correría sobre un set de
// eventos parcial. Operaciones sobre cubiertas distintas corren en paralelo.
type CubiertaLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewCubiertaLocks() *CubiertaLocks {
	return &CubiertaLocks{locks: make(map[uuid.UUID]*lockEntry)}
}

// Lock acquires the per-tire mutex and returns its release function.
// Entries are reference-counted and removed when the last holder releases,
// so the map does not grow with the fleet's full history.
func (l *CubiertaLocks) Lock(id uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &lockEntry{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
