package storage

import (
	"fmt"
	"log"
	"sync"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/google/btree"
	"github.com/pkg/errors"

	"github.com/cube2222/udtf/device"
)

// Table is a named set of fragments. Every fragment is a record with the table's schema.
type Table struct {
	Name      string
	Schema    *arrow.Schema
	Fragments []arrow.Record
}

func (t *Table) columnIndex(name string) (int, error) {
	indices := t.Schema.FieldIndices(name)
	if len(indices) == 0 {
		return -1, errors.Errorf("table %s has no column %s", t.Name, name)
	}
	return indices[0], nil
}

// Release drops the table's references to its fragments.
func (t *Table) Release() {
	for _, fragment := range t.Fragments {
		fragment.Release()
	}
	t.Fragments = nil
}

const tablesBTreeDegree = 8

type tableItem struct {
	name  string
	table *Table
}

func (item *tableItem) Less(than btree.Item) bool {
	thanTyped, ok := than.(*tableItem)
	if !ok {
		panic(fmt.Sprintf("invalid table item comparison: %T", than))
	}

	return item.name < thanTyped.name
}

type chunkKey struct {
	table    string
	column   string
	fragment int
	deviceID int
}

// Store holds tables and the device-resident copies of their chunks.
// It's safe for concurrent use.
type Store struct {
	mu           sync.Mutex
	tables       *btree.BTree
	devices      map[int]device.Device
	deviceChunks map[chunkKey]*deviceChunk
}

func NewStore() *Store {
	return &Store{
		tables:       btree.New(tablesBTreeDegree),
		devices:      make(map[int]device.Device),
		deviceChunks: make(map[chunkKey]*deviceChunk),
	}
}

// NewRecordStore creates a store with a single table consisting of one fragment.
func NewRecordStore(name string, record arrow.Record, devices ...device.Device) *Store {
	store := NewStore()
	record.Retain()
	store.AddTable(&Table{
		Name:      name,
		Schema:    record.Schema(),
		Fragments: []arrow.Record{record},
	})
	for _, d := range devices {
		store.AttachDevice(d)
	}
	return store
}

// AddTable registers the table. The store takes over the table's fragment references.
// Replacing a table evicts the device chunks cached for the previous one.
func (s *Store) AddTable(table *Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old := s.tables.ReplaceOrInsert(&tableItem{name: table.Name, table: table}); old != nil {
		for key, chunk := range s.deviceChunks {
			if key.table != table.Name {
				continue
			}
			if err := chunk.unref(); err != nil {
				log.Printf("couldn't free device chunk of %s.%s fragment %d: %s", key.table, key.column, key.fragment, err)
			}
			delete(s.deviceChunks, key)
		}
		old.(*tableItem).table.Release()
	}
}

func (s *Store) Table(name string) (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.tables.Get(&tableItem{name: name})
	if item == nil {
		return nil, errors.Errorf("table %s not found", name)
	}
	return item.(*tableItem).table, nil
}

// TableNames returns the names of all tables in ascending order.
func (s *Store) TableNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, s.tables.Len())
	s.tables.Ascend(func(item btree.Item) bool {
		out = append(out, item.(*tableItem).name)
		return true
	})
	return out
}

// AttachDevice makes GPU-level fetches for the device's id possible.
func (s *Store) AttachDevice(d device.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[d.ID()] = d
}

// Close evicts all cached device chunks and releases all tables.
// Chunks still held by callers stay valid until they're released.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for key, chunk := range s.deviceChunks {
		if err := chunk.unref(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.deviceChunks, key)
	}
	s.tables.Ascend(func(item btree.Item) bool {
		item.(*tableItem).table.Release()
		return true
	})
	s.tables = btree.New(tablesBTreeDegree)
	return firstErr
}
