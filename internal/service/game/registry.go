package game

import (
	"sync"

	appErr "blackjack-service/pkg/errors"
	"blackjack-service/pkg/utils/random"
)

const tableIDLength = 6

// tableRegistry is the only structure touched by more than one entry
// point (create, leave, timeout sweep), so all map access serializes
// through its mutex. Individual tables guard themselves.
type tableRegistry struct {
	mu     sync.Mutex
	tables map[string]*TableRuntime
	seated map[int64]string // userID -> tableID
}

func newTableRegistry() *tableRegistry {
	return &tableRegistry{
		tables: make(map[string]*TableRuntime),
		seated: make(map[int64]string),
	}
}

// create allocates a fresh table code, builds the runtime under the
// registry lock, and seats the owner binding in one step.
func (r *tableRegistry) create(ownerID int64, build func(tableID string) *TableRuntime) (*TableRuntime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seated[ownerID]; ok {
		return nil, appErr.ErrAlreadySeated
	}

	id := random.Code(tableIDLength)
	for _, exists := r.tables[id]; exists; _, exists = r.tables[id] {
		id = random.Code(tableIDLength)
	}

	rt := build(id)
	r.tables[id] = rt
	r.seated[ownerID] = id
	return rt, nil
}

func (r *tableRegistry) get(tableID string) (*TableRuntime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tables[tableID]
	if !ok {
		return nil, appErr.ErrTableNotFound
	}
	return rt, nil
}

// bind reserves the seat mapping before the table join runs, so a user
// can never end up seated at two tables.
func (r *tableRegistry) bind(userID int64, tableID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seated[userID]; ok {
		return appErr.ErrAlreadySeated
	}
	r.seated[userID] = tableID
	return nil
}

func (r *tableRegistry) unbind(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.seated, userID)
}

// seatOf returns the table a user is seated at, if any.
func (r *tableRegistry) seatOf(userID int64) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.seated[userID]
	return id, ok
}

func (r *tableRegistry) remove(tableID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tables, tableID)
}

// snapshot copies the current table set so callers iterate without
// holding the registry lock. A table removed mid-iteration is safe: its
// closed flag makes late mutations no-ops.
func (r *tableRegistry) snapshot() []*TableRuntime {
	r.mu.Lock()
	defer r.mu.Unlock()

	tables := make([]*TableRuntime, 0, len(r.tables))
	for _, rt := range r.tables {
		tables = append(tables, rt)
	}
	return tables
}
