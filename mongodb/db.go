package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	bulkwrite "github.com/dtome123/go-mongo-bulkwrite"
)

// Option defines a function to configure dbOptions.
type Option func(*dbOptions)

type dbOptions struct {
	writeURL          string
	readURL           string
	database          string
	monitor           *event.CommandMonitor
	timeout           time.Duration
	separateReadWrite bool
	logger            logrus.FieldLogger
}

// WithSingleURL sets a single MongoDB URL for both read and write operations.
func WithSingleURL(url string) Option {
	return func(o *dbOptions) {
		o.writeURL = url
		o.readURL = url
		o.separateReadWrite = false
	}
}

// WithMongoURLs sets separate MongoDB URLs for write and read operations.
// If readURL is empty, it defaults to writeURL.
func WithMongoURLs(writeURL, readURL string) Option {
	return func(o *dbOptions) {
		o.writeURL = writeURL
		if readURL == "" {
			o.readURL = writeURL
		} else {
			o.readURL = readURL
		}
		o.separateReadWrite = true
	}
}

// WithSeparateReadWrite enables or disables separate read/write connections.
// Only has effect if URLs are set separately.
func WithSeparateReadWrite(enabled bool) Option {
	return func(o *dbOptions) {
		o.separateReadWrite = enabled
	}
}

// WithDatabase sets the database name.
func WithDatabase(db string) Option {
	return func(o *dbOptions) {
		o.database = db
	}
}

// WithMonitor sets a command monitor for metrics/logging.
func WithMonitor(monitor *event.CommandMonitor) Option {
	return func(o *dbOptions) {
		o.monitor = monitor
	}
}

// WithTimeout sets a timeout for connection context.
func WithTimeout(timeout time.Duration) Option {
	return func(o *dbOptions) {
		o.timeout = timeout
	}
}

// WithLogger sets the logger handed to the database and to the accumulators
// it creates.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *dbOptions) {
		o.logger = logger
	}
}

type Database struct {
	writeDB *mongo.Database
	readDB  *mongo.Database
	logger  logrus.FieldLogger
}

func newDBOptions(opts ...Option) (*dbOptions, error) {
	options := &dbOptions{
		timeout:           10 * time.Second,
		separateReadWrite: true, // default to true
		logger:            logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(options)
	}

	if options.writeURL == "" {
		return nil, errors.New("write URL is required")
	}

	// if separateReadWrite is false, force readURL = writeURL
	if !options.separateReadWrite || options.readURL == "" {
		options.readURL = options.writeURL
	}

	if options.database == "" {
		return nil, errors.New("database name is required")
	}

	return options, nil
}

// NewDatabase creates a new Database connection with the given options.
func NewDatabase(opts ...Option) (*Database, error) {
	options, err := newDBOptions(opts...)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), options.timeout)
	defer cancel()

	writeClientOpts := optionsMongoClient(options.writeURL, options.monitor, readpref.Primary())
	writeClient, err := mongo.Connect(ctx, writeClientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to write DB: %w", err)
	}

	readClient := writeClient
	if options.readURL != options.writeURL {
		readClientOpts := optionsMongoClient(options.readURL, options.monitor, readpref.SecondaryPreferred())
		readClient, err = mongo.Connect(ctx, readClientOpts)
		if err != nil {
			_ = writeClient.Disconnect(ctx)
			return nil, fmt.Errorf("failed to connect to read DB: %w", err)
		}
	}

	if err := writeClient.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("write DB ping failed: %w", err)
	}

	if err := readClient.Ping(ctx, readpref.SecondaryPreferred()); err != nil {
		return nil, fmt.Errorf("read DB ping failed: %w", err)
	}

	options.logger.WithField("database", options.database).Info("connected to mongo")

	return &Database{
		writeDB: writeClient.Database(options.database),
		readDB:  readClient.Database(options.database),
		logger:  options.logger,
	}, nil
}

func optionsMongoClient(uri string, monitor *event.CommandMonitor, rp *readpref.ReadPref) *options.ClientOptions {
	opts := options.Client().ApplyURI(uri).SetReadPreference(rp)
	if monitor != nil {
		opts.SetMonitor(monitor)
	}
	return opts
}

// Disconnect closes the read and write clients.
func (d *Database) Disconnect(ctx context.Context) error {
	if err := d.writeDB.Client().Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect write DB failed: %w", err)
	}
	if d.readDB.Client() != d.writeDB.Client() {
		if err := d.readDB.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("disconnect read DB failed: %w", err)
		}
	}
	d.logger.WithField("database", d.writeDB.Name()).Info("disconnected from mongo")
	return nil
}

// WithTransaction executes a callback inside a MongoDB transaction.
func (d *Database) WithTransaction(ctx context.Context, callback func(sc mongo.SessionContext) (interface{}, error)) error {
	session, err := d.writeDB.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session failed: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, callback)
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// RunInTransaction runs fn inside a transaction on the write client.
func (d *Database) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return d.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
}

var _ bulkwrite.TransactionRunner = (*Database)(nil)

// ReadCollection returns a read-only collection.
func (d *Database) ReadCollection(name string) *mongo.Collection {
	return d.readDB.Collection(name)
}

// WriteCollection returns a write-only collection.
func (d *Database) WriteCollection(name string) *mongo.Collection {
	return d.writeDB.Collection(name)
}

// Accumulator returns an accumulator writing to the named write collection.
func (d *Database) Accumulator(name string, opts ...bulkwrite.Option) (*bulkwrite.Accumulator, error) {
	return bulkwrite.New(d.WriteCollection(name), append([]bulkwrite.Option{bulkwrite.WithLogger(d.logger)}, opts...)...)
}

// Aggregator returns an aggregator with one accumulator per name, in order.
func (d *Database) Aggregator(names []string, opts ...bulkwrite.Option) (*bulkwrite.Aggregator, error) {
	items := make([]*bulkwrite.Accumulator, 0, len(names))
	for _, name := range names {
		item, err := d.Accumulator(name, opts...)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return bulkwrite.NewAggregator(items...)
}
