package publish

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"medicamentos-etl/core/database"
	"medicamentos-etl/core/dataset"
)

// RelationalTarget is the name of the relational swapper.
const RelationalTarget = "relational"

// RelationalSwapper replaces the contents of a production table through a staging table.
type RelationalSwapper struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

// NewRelationalSwapper creates a swapper over a PostgreSQL connection.
func NewRelationalSwapper(db *gorm.DB, log *zap.Logger) *RelationalSwapper {
	if log == nil {
		log = zap.NewNop()
	}
	return &RelationalSwapper{db: db, log: log, now: time.Now}
}

func (r *RelationalSwapper) Name() string {
	return RelationalTarget
}

func (r *RelationalSwapper) Production(dest Destination) string {
	return dest.Table
}

// Swap loads t into a staging table and replaces sess.Production in one transaction.
// Production is never observable empty or partially written.
func (r *RelationalSwapper) Swap(ctx context.Context, sess *Session, t *dataset.Table) error {
	production := sess.Production

	if err := r.checkSchema(ctx, production, t); err != nil {
		return err
	}

	staging := StagingTableName(production, r.now())
	sess.SetStaging(staging)

	if err := r.stage(ctx, staging, t); err != nil {
		r.dropQuietly(staging, sess)
		return newError(KindStagingLoad, RelationalTarget, "load staging table", err)
	}
	sess.Advance(StateLoaded)
	sess.Logger().Info("Staging table loaded", zap.Int("rows", t.Len()))

	renamed, err := r.swap(ctx, production, staging, t)
	if err != nil {
		r.dropQuietly(staging, sess)
		return newError(KindSwap, RelationalTarget, "swap transaction", err)
	}
	sess.Advance(StateSwapped)
	sess.Logger().Info("Production table swapped", zap.Bool("first_publish", renamed))

	if !renamed {
		if err := r.dropTable(ctx, staging); err != nil {
			sess.Warn(newError(KindCleanup, RelationalTarget, "drop staging table", err))
			return nil
		}
		sess.Retired = append(sess.Retired, staging)
	}
	sess.Advance(StateRetired)
	return nil
}

// checkSchema refuses datasets whose columns differ from an existing production table.
func (r *RelationalSwapper) checkSchema(ctx context.Context, production string, t *dataset.Table) error {
	exists, err := database.TableExists(ctx, r.db, production)
	if err != nil {
		return newError(KindStagingLoad, RelationalTarget, "inspect production table", err)
	}
	if !exists {
		return nil
	}

	columns, err := database.GetTableColumns(ctx, r.db, production)
	if err != nil {
		return newError(KindStagingLoad, RelationalTarget, "inspect production table", err)
	}
	existing := make(map[string]string, len(columns))
	for _, c := range columns {
		existing[c.Name] = c.DataType
	}

	var problems []string
	for _, c := range t.Columns {
		dataType, ok := existing[c.Name]
		if !ok {
			problems = append(problems, fmt.Sprintf("column %q not in %s", c.Name, production))
			continue
		}
		if !compatibleType(c.Type, dataType) {
			problems = append(problems, fmt.Sprintf("column %q is %s in %s, dataset has %s", c.Name, dataType, production, c.Type))
		}
		delete(existing, c.Name)
	}
	for name := range existing {
		problems = append(problems, fmt.Sprintf("column %q of %s missing from dataset", name, production))
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return newError(KindSchema, RelationalTarget, "compare schema", errors.New(strings.Join(problems, "; ")))
	}
	return nil
}

func compatibleType(ct dataset.ColumnType, dataType string) bool {
	switch dataType {
	case "text", "character varying", "character", "varchar", "char":
		return ct == dataset.Text
	case "double precision", "numeric", "real", "integer", "bigint", "smallint":
		return ct == dataset.Numeric
	default:
		return false
	}
}

// stage creates the staging table and fills it with COPY.
func (r *RelationalSwapper) stage(ctx context.Context, staging string, t *dataset.Table) error {
	if err := r.db.WithContext(ctx).Exec(createTableSQL(staging, t.Columns)).Error; err != nil {
		return fmt.Errorf("failed to create %s: %w", staging, err)
	}

	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin copy: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(staging, t.ColumnNames()...))
	if err != nil {
		return fmt.Errorf("failed to prepare copy into %s: %w", staging, err)
	}
	for i, row := range t.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to copy row %d: %w", i+1, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush copy into %s: %w", staging, err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("failed to close copy into %s: %w", staging, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit copy into %s: %w", staging, err)
	}
	return nil
}

// swap replaces production with the staging rows inside one transaction. When production does
// not exist yet the staging table is renamed instead, and renamed is true.
func (r *RelationalSwapper) swap(ctx context.Context, production, staging string, t *dataset.Table) (renamed bool, err error) {
	quotedProd := pq.QuoteIdentifier(production)
	quotedStg := pq.QuoteIdentifier(staging)
	columns := quoteAll(t.ColumnNames())

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serializes swaps of the same table across processes until commit.
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "publish:"+production).Error; err != nil {
			return fmt.Errorf("failed to acquire advisory lock: %w", err)
		}

		exists, err := database.TableExists(ctx, tx, production)
		if err != nil {
			return err
		}

		constraint := production + "_pkey"
		if !exists {
			renamed = true
			if err := tx.Exec(fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quotedStg, quotedProd)).Error; err != nil {
				return fmt.Errorf("failed to rename %s: %w", staging, err)
			}
		} else {
			if err := tx.Exec(fmt.Sprintf("LOCK TABLE %s IN ACCESS EXCLUSIVE MODE", quotedProd)).Error; err != nil {
				return fmt.Errorf("failed to lock %s: %w", production, err)
			}
			current, err := database.PrimaryKeyName(ctx, tx, production)
			if err != nil {
				return err
			}
			if current != "" {
				constraint = current
				if err := tx.Exec(fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", quotedProd, pq.QuoteIdentifier(current))).Error; err != nil {
					return fmt.Errorf("failed to drop primary key: %w", err)
				}
			}
			if err := tx.Exec(fmt.Sprintf("DELETE FROM %s", quotedProd)).Error; err != nil {
				return fmt.Errorf("failed to delete rows: %w", err)
			}
			insert := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", quotedProd, columns, columns, quotedStg)
			if err := tx.Exec(insert).Error; err != nil {
				return fmt.Errorf("failed to copy rows from staging: %w", err)
			}
		}

		if len(t.Key) > 0 {
			addPK := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s)",
				quotedProd, pq.QuoteIdentifier(constraint), quoteAll(t.Key))
			if err := tx.Exec(addPK).Error; err != nil {
				return fmt.Errorf("failed to add primary key: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return renamed, nil
}

// StaleArtifacts lists staging tables of production created before cutoff.
func (r *RelationalSwapper) StaleArtifacts(ctx context.Context, production string, cutoff time.Time) ([]string, error) {
	tables, err := database.ListTables(ctx, r.db, StagingPrefix(production))
	if err != nil {
		return nil, err
	}
	var stale []string
	for _, name := range tables {
		created, ok := ParseStagingTable(production, name)
		if ok && created.Before(cutoff) {
			stale = append(stale, name)
		}
	}
	return stale, nil
}

// DropArtifacts drops the named staging tables.
func (r *RelationalSwapper) DropArtifacts(ctx context.Context, names []string) error {
	var errs []error
	for _, name := range names {
		if err := r.dropTable(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *RelationalSwapper) dropTable(ctx context.Context, name string) error {
	if err := r.db.WithContext(ctx).Exec("DROP TABLE IF EXISTS " + pq.QuoteIdentifier(name)).Error; err != nil {
		return fmt.Errorf("failed to drop %s: %w", name, err)
	}
	return nil
}

// dropQuietly removes a staging table after a failure, even if ctx was cancelled.
func (r *RelationalSwapper) dropQuietly(name string, sess *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := r.dropTable(ctx, name); err != nil {
		sess.Warn(newError(KindCleanup, RelationalTarget, "drop staging table", err))
	}
}

func createTableSQL(name string, columns []dataset.Column) string {
	defs := make([]string, 0, len(columns))
	for _, c := range columns {
		sqlType := "TEXT"
		if c.Type == dataset.Numeric {
			sqlType = "DOUBLE PRECISION"
		}
		defs = append(defs, pq.QuoteIdentifier(c.Name)+" "+sqlType)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", pq.QuoteIdentifier(name), strings.Join(defs, ", "))
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = pq.QuoteIdentifier(n)
	}
	return strings.Join(quoted, ", ")
}
