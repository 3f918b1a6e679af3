// Package bulkwrite queues MongoDB write operations per collection and
// flushes them as bulk writes.
package bulkwrite

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Accumulator holds the pending write operations of one collection.
// It is safe for concurrent use.
type Accumulator struct {
	mu         sync.Mutex
	operations []Operation

	collection Collection
	name       string
	logger     logrus.FieldLogger
}

// New returns an empty Accumulator writing to collection.
func New(collection Collection, opts ...Option) (*Accumulator, error) {
	if isNil(collection) {
		return nil, errors.WithStack(ErrInvalidCollection)
	}

	o := &accumulatorOptions{
		name:   collection.Name(),
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Accumulator{
		collection: collection,
		name:       o.name,
		logger:     o.logger,
	}, nil
}

// Name returns the display name.
func (a *Accumulator) Name() string {
	return a.name
}

// Collection returns the collection handle operations are written to.
func (a *Accumulator) Collection() Collection {
	return a.collection
}

// Len returns the number of pending operations.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.operations)
}

// Push appends operations as they are and returns the new pending count.
func (a *Accumulator) Push(ops ...Operation) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.operations = append(a.operations, ops...)
	return len(a.operations)
}

func (a *Accumulator) InsertOne(document interface{}) *Accumulator {
	a.Push(InsertOneOperation{Document: document})
	return a
}

// InsertMany queues one insertOne per document. Documents are never combined
// into a single insert, so the store reports errors per document.
func (a *Accumulator) InsertMany(documents ...interface{}) *Accumulator {
	ops := make([]Operation, 0, len(documents))
	for _, document := range documents {
		ops = append(ops, InsertOneOperation{Document: document})
	}
	a.Push(ops...)
	return a
}

// InsertAll is InsertMany for a typed slice.
func InsertAll[T any](a *Accumulator, documents []T) *Accumulator {
	return a.InsertMany(lo.ToAnySlice(documents)...)
}

func (a *Accumulator) ReplaceOne(filter, replacement interface{}, opts ...OperationOption) *Accumulator {
	o := applyOperationOptions(opts)
	a.Push(ReplaceOneOperation{
		Filter:      filter,
		Replacement: replacement,
		Collation:   o.collation,
		Hint:        o.hint,
		Upsert:      o.upsert,
	})
	return a
}

func (a *Accumulator) UpdateOne(filter, update interface{}, opts ...OperationOption) *Accumulator {
	o := applyOperationOptions(opts)
	a.Push(UpdateOneOperation{
		Filter:       filter,
		Update:       update,
		Collation:    o.collation,
		Hint:         o.hint,
		Upsert:       o.upsert,
		ArrayFilters: o.arrayFilters,
	})
	return a
}

func (a *Accumulator) UpdateMany(filter, update interface{}, opts ...OperationOption) *Accumulator {
	o := applyOperationOptions(opts)
	a.Push(UpdateManyOperation{
		Filter:       filter,
		Update:       update,
		Collation:    o.collation,
		Hint:         o.hint,
		Upsert:       o.upsert,
		ArrayFilters: o.arrayFilters,
	})
	return a
}

func (a *Accumulator) DeleteOne(filter interface{}, opts ...OperationOption) *Accumulator {
	o := applyOperationOptions(opts)
	a.Push(DeleteOneOperation{
		Filter:    filter,
		Collation: o.collation,
		Hint:      o.hint,
	})
	return a
}

func (a *Accumulator) DeleteMany(filter interface{}, opts ...OperationOption) *Accumulator {
	o := applyOperationOptions(opts)
	a.Push(DeleteManyOperation{
		Filter:    filter,
		Collation: o.collation,
		Hint:      o.hint,
	})
	return a
}

// Concat appends the pending operations of others to a. The arguments are
// left untouched. Nothing is appended unless every argument is valid.
func (a *Accumulator) Concat(others ...*Accumulator) (*Accumulator, error) {
	if len(others) == 0 {
		return nil, errors.WithStack(ErrNothingToConcat)
	}
	for i, other := range others {
		if other == nil {
			return nil, errors.Wrapf(ErrInvalidConcat, "argument %d is nil", i)
		}
	}

	var ops []Operation
	for _, other := range others {
		ops = append(ops, other.pending()...)
	}
	a.Push(ops...)
	return a, nil
}

// Reset empties the pending sequence and returns what it held.
func (a *Accumulator) Reset() []Operation {
	a.mu.Lock()
	defer a.mu.Unlock()
	ops := a.operations
	a.operations = nil
	return ops
}

// Execute sends every pending operation in a single bulk write.
//
// The pending sequence is captured and cleared before the call is made:
// operations pushed while the write is in flight go to the next Execute, and
// a failed write is not retried. Errors from the store are returned as is.
func (a *Accumulator) Execute(ctx context.Context, opts ...*options.BulkWriteOptions) (*Result, error) {
	return a.flush(ctx, a.Reset(), opts...)
}

func (a *Accumulator) flush(ctx context.Context, ops []Operation, opts ...*options.BulkWriteOptions) (*Result, error) {
	result := &Result{
		Name:  a.name,
		Count: len(ops),
	}
	// The driver rejects empty batches.
	if len(ops) == 0 {
		return result, nil
	}

	models := lo.Map(ops, func(op Operation, _ int) mongo.WriteModel {
		if op == nil {
			return nil
		}
		return op.WriteModel()
	})

	start := time.Now()
	bulk, err := a.collection.BulkWrite(ctx, models, opts...)
	logger := a.logger.WithFields(logrus.Fields{
		"collection": a.name,
		"count":      len(ops),
		"duration":   time.Since(start),
	})
	if err != nil {
		logger.WithError(err).Debug("bulk write failed")
		return nil, err
	}

	if bulk != nil {
		logger = logger.WithFields(logrus.Fields{
			"inserted": bulk.InsertedCount,
			"matched":  bulk.MatchedCount,
			"modified": bulk.ModifiedCount,
			"deleted":  bulk.DeletedCount,
			"upserted": bulk.UpsertedCount,
		})
	}
	logger.Debug("bulk write flushed")

	result.Bulk = bulk
	return result, nil
}

func (a *Accumulator) pending() []Operation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append(make([]Operation, 0, len(a.operations)), a.operations...)
}

// Snapshot returns the pending operations without clearing them.
func (a *Accumulator) Snapshot() Snapshot {
	return Snapshot{
		Name:       a.name,
		Operations: a.pending(),
	}
}

func (a *Accumulator) MarshalJSON() ([]byte, error) {
	return a.Snapshot().MarshalJSON()
}

func (a *Accumulator) String() string {
	return fmt.Sprintf("Accumulator(%s => %d)", a.name, a.Len())
}
