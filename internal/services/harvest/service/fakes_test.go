package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"almgetl/internal/core/normalize"
	"almgetl/internal/modkit/repokit"
	"almgetl/internal/platform/store"
	"almgetl/internal/services/harvest/domain"
	"almgetl/internal/services/harvest/ingest"
)

// memStore is an in-memory TxRunner whose transactions snapshot and restore state
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	props   map[int64]domain.Proposition
	entries map[int64][]domain.ProcessingEntry

	// failOn makes the named repo op fail while set
	failOn string
	// panicOn makes the named repo op panic while set
	panicOn string

	commits   int
	rollbacks int
	locks     int
	execs     []string
}

func newMemStore() *memStore {
	return &memStore{
		props:   map[int64]domain.Proposition{},
		entries: map[int64][]domain.ProcessingEntry{},
	}
}

func (m *memStore) Exec(_ context.Context, sql string, _ ...any) (store.CommandTag, error) {
	m.execs = append(m.execs, sql)
	return nil, nil
}

func (m *memStore) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (m *memStore) QueryRow(context.Context, string, ...any) store.Row       { return nil }

func (m *memStore) Tx(_ context.Context, fn func(q repokit.Queryer) error) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapID := m.nextID
	snapProps := make(map[int64]domain.Proposition, len(m.props))
	for k, v := range m.props {
		snapProps[k] = v
	}
	snapEntries := make(map[int64][]domain.ProcessingEntry, len(m.entries))
	for k, v := range m.entries {
		snapEntries[k] = append([]domain.ProcessingEntry(nil), v...)
	}
	restore := func() {
		m.nextID, m.props, m.entries = snapID, snapProps, snapEntries
		m.rollbacks++
	}

	defer func() {
		if p := recover(); p != nil {
			restore()
			panic(p)
		}
	}()
	if err := fn(m); err != nil {
		restore()
		return err
	}
	m.commits++
	return nil
}

// binder binds every queryer to the same in-memory repo
func (m *memStore) binder() repokit.Binder[domain.StorageRepo] {
	return repokit.BindFunc[domain.StorageRepo](func(repokit.Queryer) domain.StorageRepo { return memRepo{m} })
}

func (m *memStore) snapshot() (map[int64]domain.Proposition, map[int64][]domain.ProcessingEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.props, m.entries
}

type memRepo struct{ m *memStore }

func (r memRepo) check(op string) error {
	if r.m.panicOn == op {
		panic("boom in " + op)
	}
	if r.m.failOn == op {
		return fmt.Errorf("%s failed", op)
	}
	return nil
}

func (r memRepo) LockKey(context.Context, domain.NaturalKey) error {
	r.m.locks++
	return r.check("lock")
}

func (r memRepo) FindByKey(_ context.Context, k domain.NaturalKey) (int64, bool, error) {
	if err := r.check("find"); err != nil {
		return 0, false, err
	}
	for id := int64(1); id <= r.m.nextID; id++ {
		if p, ok := r.m.props[id]; ok && p.Key().Equal(k) {
			return id, true, nil
		}
	}
	return 0, false, nil
}

func (r memRepo) Insert(_ context.Context, p domain.Proposition) (int64, error) {
	if err := r.check("insert"); err != nil {
		return 0, err
	}
	r.m.nextID++
	p.ID, p.Processings = r.m.nextID, nil
	r.m.props[p.ID] = p
	return p.ID, nil
}

func (r memRepo) Update(_ context.Context, id int64, p domain.Proposition) error {
	if err := r.check("update"); err != nil {
		return err
	}
	p.ID, p.Processings = id, nil
	r.m.props[id] = p
	return nil
}

func (r memRepo) ListEntries(_ context.Context, id int64) ([]domain.ProcessingEntry, error) {
	if err := r.check("list"); err != nil {
		return nil, err
	}
	return append([]domain.ProcessingEntry(nil), r.m.entries[id]...), nil
}

func (r memRepo) AppendEntry(_ context.Context, id int64, e domain.ProcessingEntry) error {
	if err := r.check("append"); err != nil {
		return err
	}
	r.m.entries[id] = append(r.m.entries[id], e)
	return nil
}

// pageFetcher serves canned pages; unknown pages are empty
type pageFetcher struct {
	mu    sync.Mutex
	pages map[int][]domain.RawProposition
	errs  map[int]error
	gate  map[int]chan struct{}
	calls []int
	panic map[int]bool
}

func (f *pageFetcher) Fetch(ctx context.Context, page int) ([]domain.RawProposition, error) {
	f.mu.Lock()
	f.calls = append(f.calls, page)
	gate := f.gate[page]
	items, err, boom := f.pages[page], f.errs[page], f.panic[page]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if boom {
		panic("fetch exploded")
	}
	return items, err
}

func (f *pageFetcher) called() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls...)
}

func items(t *testing.T, body string) []domain.RawProposition {
	t.Helper()
	var out []domain.RawProposition
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return out
}

// one returns a single item page whose ementa identifies it
func one(t *testing.T, ementa string) []domain.RawProposition {
	t.Helper()
	return items(t, fmt.Sprintf(`[{"autor":"Dep","ementa":%q,"tipoProjeto":"PL","numero":"1","ano":2023}]`, ementa))
}

func newTransformer() domain.Transformer {
	return ingest.NewTransformer(ingest.NewNormalizer(normalize.New()))
}

func newTestService(t *testing.T, m *memStore, f domain.Fetcher, workers int) *Service {
	t.Helper()
	return New(m, m.binder(), f, newTransformer(), Config{Workers: workers}, nil)
}
