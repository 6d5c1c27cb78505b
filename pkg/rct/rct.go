// Package rct is the RCT store: it opens and caches read-only
// per-application/per-group Resource Configuration Tables and answers
// resource_id -> ResourceConfig lookups, synthesizing the documented
// default entry for the local namespace.
package rct

import (
	"encoding/json"
	"fmt"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/genivi/pclient/pkg/pclconfig"
	"github.com/genivi/pclient/pkg/pclerror"
	"github.com/genivi/pclient/pkg/pcltypes"
)

var rctBucket = []byte("rct")

// Kind classifies which RCT a ResourceKey's ldbid selects.
type Kind int

const (
	KindLocal Kind = iota
	KindGroupShared
	KindPublicShared
)

// Classify implements the ldbid classification rule: ldbid==0 is the
// public-shared RCT; 0<ldbid<0x80 is the group-shared RCT (group=ldbid);
// anything else (including the 0xFF local sentinel) is the application's
// local RCT.
func Classify(ldbid uint32) (kind Kind, group uint32) {
	switch {
	case ldbid == pcltypes.LdbidPublic:
		return KindPublicShared, 0
	case ldbid < pcltypes.LdbidSharedMax:
		return KindGroupShared, ldbid
	default:
		return KindLocal, 0
	}
}

// table is one opened, fully-loaded RCT: immutable once built, consumed
// read-only.
type table struct {
	entries map[string]pcltypes.ResourceConfig
}

func openTable(path string) (*table, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("open rct %s: %w", path, err)
	}
	defer db.Close()

	t := &table{entries: make(map[string]pcltypes.ResourceConfig)}
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(rctBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var cfg pcltypes.ResourceConfig
			if err := json.Unmarshal(v, &cfg); err != nil {
				return fmt.Errorf("decode rct entry %s: %w", k, err)
			}
			t.entries[string(k)] = cfg
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (t *table) lookup(resourceID string) (pcltypes.ResourceConfig, bool) {
	cfg, ok := t.entries[resourceID]
	return cfg, ok
}

type cacheKey struct {
	kind  Kind
	group uint32
	appID string
}

// Store is the process-global RCT cache: opened read-only on first demand,
// keyed by (type, group), drained on deinit.
type Store struct {
	mu     sync.Mutex
	tables map[cacheKey]*table
	paths  pclconfig.Paths
}

// NewStore builds an empty RCT store for the application rooted at paths.
func NewStore(paths pclconfig.Paths) *Store {
	return &Store{tables: make(map[cacheKey]*table), paths: paths}
}

// Lookup resolves resourceID's ResourceConfig for the namespace key.Ldbid
// addresses, opening and caching the backing RCT on first use. A miss in
// the local namespace synthesizes the default local entry; a miss
// elsewhere is "no-entry".
func (s *Store) Lookup(key pcltypes.ResourceKey, appID string) (pcltypes.ResourceConfig, error) {
	kind, group := Classify(key.Ldbid)
	t, err := s.tableFor(kind, group, appID)
	if err != nil {
		if kind == KindLocal {
			return pcltypes.DefaultLocalConfig(), nil
		}
		return pcltypes.ResourceConfig{}, pclerror.New(pclerror.CodeNoPrctTable)
	}

	cfg, ok := t.lookup(key.ResourceID)
	if !ok {
		if kind == KindLocal {
			return pcltypes.DefaultLocalConfig(), nil
		}
		return pcltypes.ResourceConfig{}, pclerror.New(pclerror.CodeNoKeyData)
	}
	return cfg, nil
}

func (s *Store) tableFor(kind Kind, group uint32, appID string) (*table, error) {
	key := cacheKey{kind: kind, group: group, appID: appID}
	if kind == KindLocal {
		key.appID = appID
	} else {
		key.appID = ""
	}

	s.mu.Lock()
	if t, ok := s.tables[key]; ok {
		s.mu.Unlock()
		return t, nil
	}
	s.mu.Unlock()

	path := s.pathFor(kind, group)
	t, err := openTable(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.tables[key]; ok {
		return existing, nil
	}
	s.tables[key] = t
	return t, nil
}

func (s *Store) pathFor(kind Kind, group uint32) string {
	switch kind {
	case KindPublicShared:
		return s.paths.WriteThroughTree() + "/../shared/public/resource-table-cfg.itz"
	case KindGroupShared:
		return fmt.Sprintf("%s/../shared/group_%x/resource-table-cfg.itz", s.paths.WriteThroughTree(), group)
	default:
		return s.paths.RCTPath()
	}
}

// Close invalidates every cached RCT entry on deinit.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.tables {
		delete(s.tables, k)
	}
	return nil
}
