package bulkwrite

import (
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Option configures an Accumulator.
type Option func(*accumulatorOptions)

type accumulatorOptions struct {
	name   string
	logger logrus.FieldLogger
}

// WithName overrides the display name, which defaults to the collection name.
func WithName(name string) Option {
	return func(o *accumulatorOptions) {
		o.name = name
	}
}

// WithLogger sets the logger used to report flushes.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *accumulatorOptions) {
		o.logger = logger
	}
}

// OperationOption sets a per-operation option on replace, update and delete
// operations. Options an operation kind does not support are ignored.
type OperationOption func(*operationOptions)

type operationOptions struct {
	collation    *options.Collation
	hint         interface{}
	upsert       *bool
	arrayFilters []interface{}
}

// WithUpsert inserts a document when no document matches the filter.
// Ignored by delete operations.
func WithUpsert(upsert bool) OperationOption {
	return func(o *operationOptions) {
		o.upsert = &upsert
	}
}

// WithCollation sets the collation used to match the filter.
func WithCollation(collation *options.Collation) OperationOption {
	return func(o *operationOptions) {
		o.collation = collation
	}
}

// WithHint sets the index to use, either as an index name or a key document.
func WithHint(hint interface{}) OperationOption {
	return func(o *operationOptions) {
		o.hint = hint
	}
}

// WithArrayFilters sets the filters selecting array elements to update.
// Only used by update operations.
func WithArrayFilters(filters ...interface{}) OperationOption {
	return func(o *operationOptions) {
		o.arrayFilters = filters
	}
}

func applyOperationOptions(opts []OperationOption) *operationOptions {
	o := &operationOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
