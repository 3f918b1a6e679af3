package mongodb

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultEnvPrefix is the environment prefix LoadConfig uses when none is given.
const DefaultEnvPrefix = "MONGO_"

// Config holds connection and flush settings.
type Config struct {
	URL                      string        `koanf:"url"`
	ReadURL                  string        `koanf:"read_url"`
	Database                 string        `koanf:"database"`
	Timeout                  time.Duration `koanf:"timeout"`
	SeparateReadWrite        bool          `koanf:"separate_read_write"`
	Ordered                  bool          `koanf:"ordered"`
	BypassDocumentValidation bool          `koanf:"bypass_document_validation"`
}

var defaultConfig = map[string]interface{}{
	"timeout":             "10s",
	"separate_read_write": false,
	"ordered":             true,
}

// LoadConfig reads a Config from the defaults, then from values, then from
// environment variables starting with prefix. MONGO_READ_URL sets read_url.
func LoadConfig(prefix string, values map[string]interface{}) (*Config, error) {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaultConfig, "."), nil); err != nil {
		return nil, fmt.Errorf("load config defaults failed: %w", err)
	}
	if len(values) > 0 {
		if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
			return nil, fmt.Errorf("load config values failed: %w", err)
		}
	}
	if err := k.Load(env.Provider(prefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, prefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load config from environment failed: %w", err)
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return nil, fmt.Errorf("decode config failed: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("url is required")
	}
	if c.Database == "" {
		return errors.New("database is required")
	}
	return nil
}

// Options converts the config into NewDatabase options.
func (c *Config) Options() []Option {
	opts := []Option{WithDatabase(c.Database)}
	if c.SeparateReadWrite {
		opts = append(opts, WithMongoURLs(c.URL, c.ReadURL))
	} else {
		opts = append(opts, WithSingleURL(c.URL))
	}
	if c.Timeout > 0 {
		opts = append(opts, WithTimeout(c.Timeout))
	}
	return opts
}

// BulkWriteOptions returns the options to pass to Execute.
func (c *Config) BulkWriteOptions() *options.BulkWriteOptions {
	return options.BulkWrite().
		SetOrdered(c.Ordered).
		SetBypassDocumentValidation(c.BypassDocumentValidation)
}
