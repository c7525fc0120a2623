package loader

import (
	"time"

	"github.com/okian/rankboard/pkg/logger"
)

// Option applies a configuration option to the CSVLoader.
type Option func(*CSVLoader)

// WithStrict makes the first malformed row abort the load.
func WithStrict(strict bool) Option {
	return func(l *CSVLoader) { l.strict = strict }
}

// WithRetryDelay sets how long to wait before retrying a full sink.
func WithRetryDelay(d time.Duration) Option {
	return func(l *CSVLoader) {
		if d > 0 {
			l.retryDelay = d
		}
	}
}

// WithColumns overrides the header names of the name and score columns.
func WithColumns(name, score string) Option {
	return func(l *CSVLoader) {
		if name != "" {
			l.nameColumn = name
		}
		if score != "" {
			l.scoreColumn = score
		}
	}
}

// WithLogger sets a custom logger for the loader.
func WithLogger(lg logger.Logger) Option {
	return func(l *CSVLoader) {
		if lg != nil {
			l.logger = lg
		}
	}
}
