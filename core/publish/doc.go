// Package publish replaces production datasets without exposing consumers to partial state.
//
// Two Swapper implementations are provided:
//
//   - RelationalSwapper loads a staging table with COPY, then in one transaction drops the
//     primary key, deletes the production rows, copies the staging rows in and recreates
//     the key. Readers see the old rows until commit. A key violation rolls everything back.
//   - SearchSwapper bulk-indexes into a timestamped index, verifies the document count, and
//     moves the alias with a single alias update before deleting the previous index.
//
// The Coordinator runs every swapper for a dataset, optionally in parallel. Targets are
// independent: when one fails and another succeeds the outcome is degraded and rerunning the
// publish with the same dataset converges both. Publishes to the same production artifact are
// serialized within the process; the relational swap also takes a PostgreSQL advisory lock.
//
// Failures are *Error values classified by Kind. Cleanup failures are never fatal and are
// reported as session warnings.
package publish
