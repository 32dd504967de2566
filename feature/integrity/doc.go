// Package integrity checks that published datasets are consistent across targets.
//
// Each target commits its own swap, so a degraded publish can leave the table and
// the search alias holding different generations. The checks here make that visible.
//
// # Checks Provided
//
//   - Table: the production table exists, with its row count and primary key.
//   - Alias: the alias resolves to exactly one index, and how many documents it exposes.
//   - Counts: table rows and alias documents agree.
//   - Orphans: staging tables and indices that no production name points at.
//   - Storage: the raw and datasets prefixes exist in the bucket.
//
// Reports are cached per dataset for a configurable TTL; concurrent requests share a build.
//
// # HTTP Endpoints
//
//   - GET /integrity/:name : Checks one dataset (supports ?fresh=true).
//   - GET /integrity/storage : Checks the bucket layout (supports ?fix=true).
//   - GET /publish/sessions : Lists recent publish sessions.
package integrity
