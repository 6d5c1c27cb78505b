// Package handle implements the handle table: a monotonic, freelist-backed
// integer allocator bounded by MaxPersHandle, with records kept in an
// ordered map (google/btree, already an indirect dependency of the corpus
// this library is grounded on) so clearing and lookup stay O(log n) under
// the table's own mutex.
package handle

import (
	"sync"

	"github.com/google/btree"

	"github.com/genivi/pclient/pkg/metrics"
	"github.com/genivi/pclient/pkg/pclerror"
	"github.com/genivi/pclient/pkg/pcltypes"
)

type entry[T any] struct {
	id   int
	data T
}

func lessEntry[T any](a, b entry[T]) bool { return a.id < b.id }

// Table is one of the three identical-discipline handle tables (file
// handles, key handles, open-path handles), parameterized over the
// per-handle record type T.
type Table[T any] struct {
	mu       sync.Mutex
	nextIdx  int
	freelist []int
	records  *btree.BTreeG[entry[T]]
	label    string
}

// New builds an empty handle table with no metrics label.
func New[T any]() *Table[T] {
	return NewLabeled[T]("")
}

// NewLabeled builds an empty handle table whose allocation failures are
// reported under the given "table" metrics label (file, key, open_path).
func NewLabeled[T any](label string) *Table[T] {
	return &Table[T]{
		nextIdx: 1,
		records: btree.NewG(32, lessEntry[T]),
		label:   label,
	}
}

// Allocate assigns a fresh handle id for data and stores it: pop the
// freelist if non-empty, else take nextIdx++. Returns max-handle once
// MaxPersHandle live handles are outstanding.
func (t *Table[T]) Allocate(data T) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.records.Len() >= pcltypes.MaxPersHandle {
		metrics.HandleAllocFailuresTotal.WithLabelValues(t.label).Inc()
		return 0, pclerror.New(pclerror.CodeMaxHandle)
	}

	var id int
	if n := len(t.freelist); n > 0 {
		id = t.freelist[n-1]
		t.freelist = t.freelist[:n-1]
	} else {
		id = t.nextIdx
		t.nextIdx++
	}

	t.records.ReplaceOrInsert(entry[T]{id: id, data: data})
	return id, nil
}

// Get returns the record for handle id.
func (t *Table[T]) Get(id int) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.records.Get(entry[T]{id: id})
	return e.data, ok
}

// Set overwrites the record for a still-open handle id (used to record
// backup_created, cache_status, etc. after allocation).
func (t *Table[T]) Set(id int, data T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.records.Get(entry[T]{id: id}); !ok {
		return false
	}
	t.records.ReplaceOrInsert(entry[T]{id: id, data: data})
	return true
}

// Close releases handle id, pushing it onto the freelist for reuse.
func (t *Table[T]) Close(id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.records.Delete(entry[T]{id: id}); !ok {
		return false
	}
	t.freelist = append(t.freelist, id)
	return true
}

// CloseAll releases every open handle, invoking onClose for each record
// before it is dropped, and returns the table to its initial empty state.
// Used during prepare-shutdown and process deinit.
func (t *Table[T]) CloseAll(onClose func(id int, data T)) {
	t.mu.Lock()
	var ids []int
	var datas []T
	t.records.Ascend(func(e entry[T]) bool {
		ids = append(ids, e.id)
		datas = append(datas, e.data)
		return true
	})
	t.records.Clear(false)
	t.freelist = nil
	t.nextIdx = 1
	t.mu.Unlock()

	if onClose != nil {
		for i, id := range ids {
			onClose(id, datas[i])
		}
	}
}

// Len reports the number of live handles.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.records.Len()
}
