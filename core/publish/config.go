package publish

import "time"

// Config holds configuration for the publish coordinator.
type Config struct {
	// Parallel publishes the relational and search targets concurrently.
	Parallel bool `mapstructure:"parallel" default:"true"`
	// BatchSize is the number of documents sent per bulk call.
	BatchSize int `mapstructure:"batch_size" default:"1000"`
	// StaleAfter is the age after which an unreferenced staging artifact is dropped.
	StaleAfter time.Duration `mapstructure:"stale_after" default:"1h"`
}
