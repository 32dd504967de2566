package checks

import (
	"context"
	"fmt"

	"medicamentos-etl/core/database"
	"medicamentos-etl/core/search"

	"gorm.io/gorm"
)

// TableReport describes a production table.
type TableReport struct {
	Name       string `json:"name"`
	Exists     bool   `json:"exists"`
	Rows       int64  `json:"rows"`
	Columns    int    `json:"columns"`
	PrimaryKey string `json:"primary_key,omitempty"`
}

// AliasReport describes a production search alias.
type AliasReport struct {
	Name    string   `json:"name"`
	Indices []string `json:"indices"`
	// Concrete is set when the name is an index rather than an alias.
	Concrete  bool  `json:"concrete,omitempty"`
	Documents int64 `json:"documents"`
}

// CheckTable inspects a production table. A missing table is not an error.
func CheckTable(ctx context.Context, db *gorm.DB, table string) (*TableReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	report := &TableReport{Name: table}

	exists, err := database.TableExists(ctx, db, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return report, nil
	}
	report.Exists = true

	cols, err := database.GetTableColumns(ctx, db, table)
	if err != nil {
		return nil, err
	}
	report.Columns = len(cols)

	if report.PrimaryKey, err = database.PrimaryKeyName(ctx, db, table); err != nil {
		return nil, err
	}
	if report.Rows, err = database.CountRows(ctx, db, table); err != nil {
		return nil, err
	}
	return report, nil
}

// CheckAlias resolves an alias and counts the documents visible through it.
func CheckAlias(ctx context.Context, client search.Client, alias string) (*AliasReport, error) {
	if client == nil {
		return nil, fmt.Errorf("search client is nil")
	}
	report := &AliasReport{Name: alias, Indices: []string{}}

	indices, err := client.AliasIndices(ctx, alias)
	if err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		concrete, err := client.IndexExists(ctx, alias)
		if err != nil {
			return nil, err
		}
		if !concrete {
			return report, nil
		}
		report.Concrete = true
		indices = []string{alias}
	}
	report.Indices = indices

	if report.Documents, err = client.Count(ctx, alias); err != nil {
		return nil, err
	}
	return report, nil
}
