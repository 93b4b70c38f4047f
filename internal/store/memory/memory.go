// Package memory is an in-process store.Store used by tests and the
// "memory" driver. It reproduces the behavior the service depends on from
// the hosted backend: auto-assigned ids, merge patches, server timestamps
// and subscriptions that replay the full matching set on every change.
package memory

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ripple-app/ripple/internal/store"
	"github.com/ripple-app/ripple/shared/errors"
)

type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]store.Fields
	subs        map[int]*subscription
	nextSubId   int
	now         func() time.Time
}

func New() *Store {
	return &Store{
		collections: make(map[string]map[string]store.Fields),
		subs:        make(map[int]*subscription),
		now:         time.Now,
	}
}

// SetClock overrides the server-timestamp source. Tests use it to make
// createdAt ordering deterministic.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Create(ctx context.Context, collection string, data store.Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[collection]
	if !ok {
		col = make(map[string]store.Fields)
		s.collections[collection] = col
	}
	col[id] = s.resolve(data)
	s.notifyLocked(collection)
	return id, nil
}

func (s *Store) Set(ctx context.Context, path string, data store.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	collection, id, err := splitPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[collection]
	if !ok {
		col = make(map[string]store.Fields)
		s.collections[collection] = col
	}
	col[id] = s.resolve(data)
	s.notifyLocked(collection)
	return nil
}

// Patch merges fields into the document, creating it when absent. The
// hosted backend's merge write behaves the same way.
func (s *Store) Patch(ctx context.Context, path string, data store.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	collection, id, err := splitPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[collection]
	if !ok {
		col = make(map[string]store.Fields)
		s.collections[collection] = col
	}
	merged := col[id]
	if merged == nil {
		merged = make(store.Fields)
	}
	for k, v := range s.resolve(data) {
		merged[k] = v
	}
	col[id] = merged
	s.notifyLocked(collection)
	return nil
}

func (s *Store) Get(ctx context.Context, path string) (store.Record, error) {
	if err := ctx.Err(); err != nil {
		return store.Record{}, err
	}
	collection, id, err := splitPath(path)
	if err != nil {
		return store.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.collections[collection][id]
	if !ok {
		return store.Record{}, errors.NotFound
	}
	return store.Record{Id: id, Data: copyFields(data)}, nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	collection, id, err := splitPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if col, ok := s.collections[collection]; ok {
		delete(col, id)
	}
	s.notifyLocked(collection)
	return nil
}

func (s *Store) Query(ctx context.Context, q store.Query) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resultLocked(q), nil
}

func (s *Store) Subscribe(ctx context.Context, q store.Query) (store.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub := &subscription{
		store: s,
		query: q,
		ch:    make(chan []store.Record, 1),
		done:  make(chan struct{}),
	}

	s.mu.Lock()
	sub.id = s.nextSubId
	s.nextSubId++
	s.subs[sub.id] = sub
	sub.pushLocked(s.resultLocked(q)) // initial snapshot
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}

// notifyLocked re-evaluates every subscription on the mutated collection.
func (s *Store) notifyLocked(collection string) {
	for _, sub := range s.subs {
		if sub.query.Collection != collection {
			continue
		}
		sub.pushLocked(s.resultLocked(sub.query))
	}
}

func (s *Store) resultLocked(q store.Query) []store.Record {
	var out []store.Record
	for id, data := range s.collections[q.Collection] {
		if !matches(data, q.Filters) {
			continue
		}
		out = append(out, store.Record{Id: id, Data: copyFields(data)})
	}
	sortRecords(out, q.OrderBy)
	return out
}

func (s *Store) resolve(data store.Fields) store.Fields {
	out := make(store.Fields, len(data))
	for k, v := range data {
		if v == store.ServerTimestamp {
			out[k] = s.now().UTC()
			continue
		}
		out[k] = v
	}
	return out
}

func matches(data store.Fields, filters []store.Filter) bool {
	for _, f := range filters {
		if !reflect.DeepEqual(data[f.Field], f.Value) {
			return false
		}
	}
	return true
}

func sortRecords(recs []store.Record, orderBy []store.Order) {
	if len(orderBy) == 0 {
		sort.Slice(recs, func(i, j int) bool { return recs[i].Id < recs[j].Id })
		return
	}
	sort.Slice(recs, func(i, j int) bool {
		for _, o := range orderBy {
			c := compareValues(recs[i].Data[o.Field], recs[j].Data[o.Field])
			if c == 0 {
				continue
			}
			if o.Direction == store.Desc {
				return c > 0
			}
			return c < 0
		}
		return recs[i].Id < recs[j].Id
	})
}

// compareValues orders the field types the service stores. Absent fields
// sort first.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			switch {
			case as < bs:
				return -1
			case as > bs:
				return 1
			default:
				return 0
			}
		}
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func copyFields(data store.Fields) store.Fields {
	out := make(store.Fields, len(data))
	for k, v := range data {
		if ss, ok := v.([]string); ok {
			out[k] = append([]string(nil), ss...)
			continue
		}
		out[k] = v
	}
	return out
}

func splitPath(path string) (collection, id string, err error) {
	last := -1
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			last = i
			break
		}
	}
	if last <= 0 || last == len(path)-1 {
		return "", "", errors.Validation("malformed document path %q", path)
	}
	return path[:last], path[last+1:], nil
}

type subscription struct {
	store     *Store
	query     store.Query
	id        int
	ch        chan []store.Record
	done      chan struct{}
	closeOnce sync.Once
}

func (sub *subscription) Updates() <-chan []store.Record {
	return sub.ch
}

// Close tears the subscription down. Idempotent; a snapshot still buffered
// in the channel is simply discarded with it.
func (sub *subscription) Close() {
	sub.closeOnce.Do(func() {
		sub.store.mu.Lock()
		delete(sub.store.subs, sub.id)
		close(sub.done)
		close(sub.ch)
		sub.store.mu.Unlock()
	})
}

// pushLocked delivers a snapshot without blocking: a stale undelivered
// snapshot is replaced by the newer one. Caller holds the store mutex,
// which also serializes pushes against Close.
func (sub *subscription) pushLocked(recs []store.Record) {
	select {
	case <-sub.done:
		return
	default:
	}
	for {
		select {
		case sub.ch <- recs:
			return
		default:
			select {
			case <-sub.ch:
			default:
			}
		}
	}
}
