// Package ownerlock serializes multi-step sequences that read and rewrite a
// single user's check list. The store is only atomic per key, so without
// this two concurrent creates could both pass the quota gate or one append
// could overwrite the other. Locks are keyed by owner id; distinct owners
// never contend.
package ownerlock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Table is a keyed mutex table. The zero value is not usable; call New.
type Table struct {
	mu     sync.Mutex
	owners map[string]*entry
}

func New() *Table {
	return &Table{owners: make(map[string]*entry)}
}

// Lock acquires the mutex for owner and returns the matching unlock func.
// Entries are reference-counted and removed when the last holder releases,
// so the table does not grow with the number of owners ever seen.
func (t *Table) Lock(owner string) (unlock func()) {
	t.mu.Lock()
	e, ok := t.owners[owner]
	if !ok {
		e = &entry{}
		t.owners[owner] = e
	}
	e.refs++
	t.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		t.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(t.owners, owner)
		}
		t.mu.Unlock()
	}
}
