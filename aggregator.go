package bulkwrite

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

// Aggregator groups named accumulators and flushes them together.
// Its set of names is fixed at construction.
type Aggregator struct {
	keys  []string
	items map[string]*Accumulator
}

// NewAggregator groups items under their names, in argument order.
func NewAggregator(items ...*Accumulator) (*Aggregator, error) {
	m := &Aggregator{
		keys:  make([]string, 0, len(items)),
		items: make(map[string]*Accumulator, len(items)),
	}
	for i, item := range items {
		if item == nil {
			return nil, errors.Wrapf(ErrInvalidAccumulator, "argument %d is nil", i)
		}
		if err := m.add(item.Name(), item); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// FromAccumulators groups items under their map keys, sorted.
func FromAccumulators(items map[string]*Accumulator) (*Aggregator, error) {
	keys := lo.Keys(items)
	sort.Strings(keys)

	m := &Aggregator{
		keys:  make([]string, 0, len(keys)),
		items: make(map[string]*Accumulator, len(keys)),
	}
	for _, key := range keys {
		if items[key] == nil {
			return nil, errors.Wrapf(ErrInvalidAccumulator, "%q is nil", key)
		}
		if err := m.add(key, items[key]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// FromCollections creates one accumulator per collection, named by its map
// key, and groups them with keys sorted.
func FromCollections(collections map[string]Collection, opts ...Option) (*Aggregator, error) {
	items := make(map[string]*Accumulator, len(collections))
	for key, collection := range collections {
		item, err := New(collection, append(opts[:len(opts):len(opts)], WithName(key))...)
		if err != nil {
			return nil, errors.Wrapf(err, "collection %q", key)
		}
		items[key] = item
	}
	return FromAccumulators(items)
}

func (m *Aggregator) add(key string, item *Accumulator) error {
	if _, ok := m.items[key]; ok {
		return errors.Wrapf(ErrDuplicateName, "%q", key)
	}
	m.keys = append(m.keys, key)
	m.items[key] = item
	return nil
}

// Get returns the accumulator named key, or nil.
func (m *Aggregator) Get(key string) *Accumulator {
	return m.items[key]
}

func (m *Aggregator) Lookup(key string) (*Accumulator, bool) {
	item, ok := m.items[key]
	return item, ok
}

// Keys returns a copy of the member names in order.
func (m *Aggregator) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of pending operations across all members.
func (m *Aggregator) Len() int {
	return lo.SumBy(m.keys, func(key string) int {
		return m.items[key].Len()
	})
}

// Execute flushes every member concurrently and returns their results in
// Keys order. If any flush fails the first error is returned; members that
// were already written are not rolled back.
func (m *Aggregator) Execute(ctx context.Context, opts ...*options.BulkWriteOptions) ([]*Result, error) {
	results := make([]*Result, len(m.keys))

	var g errgroup.Group
	for i, key := range m.keys {
		item := m.items[key]
		g.Go(func() error {
			result, err := item.Execute(ctx, opts...)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ExecuteInTransaction captures every member's pending operations, then
// writes the captured batches one member at a time inside a transaction.
// A retried transaction resends the same batches.
func (m *Aggregator) ExecuteInTransaction(ctx context.Context, runner TransactionRunner, opts ...*options.BulkWriteOptions) ([]*Result, error) {
	if isNil(runner) {
		return nil, errors.WithStack(ErrInvalidTransaction)
	}

	batches := lo.Map(m.keys, func(key string, _ int) []Operation {
		return m.items[key].Reset()
	})

	var results []*Result
	err := runner.RunInTransaction(ctx, func(ctx context.Context) error {
		results = make([]*Result, len(m.keys))
		for i, key := range m.keys {
			result, err := m.items[key].flush(ctx, batches[i], opts...)
			if err != nil {
				return err
			}
			results[i] = result
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Snapshot returns every member's snapshot in Keys order.
func (m *Aggregator) Snapshot() []Snapshot {
	return lo.Map(m.keys, func(key string, _ int) Snapshot {
		return m.items[key].Snapshot()
	})
}

func (m *Aggregator) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Snapshot())
}

func (m *Aggregator) String() string {
	var b strings.Builder
	b.WriteString("Aggregator{")
	for i, key := range m.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(m.items[key].String())
	}
	b.WriteString("}")
	return b.String()
}
