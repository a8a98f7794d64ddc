// Package memory provides in-process implementations of every repository.
// It backs the test suites and STORAGE_DRIVER=memory.
package memory

import (
	"sort"
	"sync"
)

// table is a goroutine-safe row store keyed by id. Rows are copied on the way
// in and out so callers never share memory with the store.
type table[T any] struct {
	mu    sync.RWMutex
	rows  map[string]T
	order map[string]int
	next  int
	cp    func(T) T
}

func newTable[T any](cp func(T) T) *table[T] {
	if cp == nil {
		cp = func(v T) T { return v }
	}
	return &table[T]{rows: map[string]T{}, order: map[string]int{}, cp: cp}
}

// insert stores v unless a row with id exists or clash reports a conflict
// with an existing row.
func (t *table[T]) insert(id string, v T, clash func(T) bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; ok {
		return false
	}
	if clash != nil {
		for _, row := range t.rows {
			if clash(row) {
				return false
			}
		}
	}
	t.rows[id] = t.cp(v)
	t.next++
	t.order[id] = t.next
	return true
}

func (t *table[T]) get(id string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v, ok := t.rows[id]
	if !ok {
		return v, false
	}
	return t.cp(v), true
}

// update runs fn on a copy of the row and stores the result unless fn fails.
func (t *table[T]) update(id string, fn func(*T) error) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.rows[id]
	if !ok {
		return false, nil
	}
	v = t.cp(v)
	if err := fn(&v); err != nil {
		return true, err
	}
	t.rows[id] = v
	return true, nil
}

func (t *table[T]) remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	delete(t.order, id)
	return true
}

// removeWhere deletes every row matching pred and returns their ids.
func (t *table[T]) removeWhere(pred func(T) bool) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var ids []string
	for id, row := range t.rows {
		if pred(row) {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		delete(t.rows, id)
		delete(t.order, id)
	}
	return ids
}

// updateWhere applies fn to every row matching pred and returns how many
// rows it touched.
func (t *table[T]) updateWhere(pred func(T) bool, fn func(*T)) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var n int64
	for id, row := range t.rows {
		if !pred(row) {
			continue
		}
		row = t.cp(row)
		fn(&row)
		t.rows[id] = row
		n++
	}
	return n
}

// find returns matching rows, newest insert first. A nil pred matches all.
func (t *table[T]) find(pred func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]string, 0, len(t.rows))
	for id, row := range t.rows {
		if pred == nil || pred(row) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return t.order[ids[i]] > t.order[ids[j]] })

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.cp(t.rows[id]))
	}
	return out
}

func (t *table[T]) first(pred func(T) bool) (T, bool) {
	rows := t.find(pred)
	if len(rows) == 0 {
		var zero T
		return zero, false
	}
	return rows[0], true
}

func limit[T any](rows []T, n int64) []T {
	if n > 0 && int64(len(rows)) > n {
		return rows[:n]
	}
	return rows
}
