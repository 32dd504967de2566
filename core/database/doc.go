// Package database handles PostgreSQL connections and schema inspection.
//
// Connect opens the pool with the lib/pq driver and wraps it in GORM's postgres
// dialect. The publisher needs both layers: GORM for transactions and raw
// statements, and lib/pq for COPY-based staging loads and typed *pq.Error codes.
//
// # Schema Inspection
//
// The inspector reads information_schema to decide whether a production table exists,
// whether its columns match the dataset about to replace it, what its primary-key
// constraint is called and which staging tables are left behind.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(ctx, db, "medicamentos")
package database
