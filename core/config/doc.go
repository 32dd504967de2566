// Package config provides configuration management for the medicamentos ETL.
//
// Values come from a .env file (if present) and environment variables. Defaults are declared
// with `default` struct tags on each section and registered by reflection.
//
// # Configuration Structure
//
// The Config struct is divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Database: PostgreSQL connection details
//   - Search: search cluster addresses, credentials and index settings
//   - Storage: MinIO credentials and bucket for raw inputs and dataset archives
//   - Pipeline: input files, identifier length and merge policy
//   - Publish: parallelism, bulk batch size and stale artifact age
//   - Log: Logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Database.Host)
package config
