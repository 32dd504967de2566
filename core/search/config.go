package search

// Config holds configuration for the search cluster.
type Config struct {
	// Enabled turns the search target on. When false only the relational store is published.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Addresses lists the cluster node URLs.
	Addresses []string `mapstructure:"addresses" default:"http://localhost:9200"`
	// Username for basic auth.
	Username string `mapstructure:"username" default:""`
	// Password for basic auth.
	Password string `mapstructure:"password" default:""`
	// TimeoutSeconds bounds every request to the cluster.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"60"`
	// Shards is the primary shard count of new indices.
	Shards int `mapstructure:"shards" default:"1"`
	// Replicas is the replica count of new indices.
	Replicas int `mapstructure:"replicas" default:"0"`
	// BulkWorkers is the number of concurrent bulk workers.
	BulkWorkers int `mapstructure:"bulk_workers" default:"2"`
}
