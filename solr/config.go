package solr

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config groups the environment-driven tunables. Values are taken from
// variables with the prefix "SOLR_". Example:
// SOLR_URL=http://solr:8983/solr/core0 SOLR_TIMEOUT=30s .
type Config struct {
	URL     string        `envconfig:"URL"     default:"http://localhost:8983/solr"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"60s"`
	Debug   bool          `envconfig:"DEBUG"   default:"false"`
}

// LoadConfig populates Config from environment variables (prefix SOLR_).
func LoadConfig() (Config, error) {
	var c Config
	return c, envconfig.Process("SOLR", &c)
}

// NewFromEnv constructs a Client from environment configuration.
func NewFromEnv(opts ...Option) (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	all := []Option{WithTimeout(cfg.Timeout)}
	if cfg.Debug {
		all = append(all, WithDebugLogging(true))
	}
	all = append(all, opts...)
	return New(cfg.URL, all...), nil
}
