package database

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ColumnInfo is one row of information_schema.columns.
type ColumnInfo struct {
	Name     string `gorm:"column:column_name"`
	DataType string `gorm:"column:data_type"`
}

// TableExists reports whether a table exists in the current schema.
func TableExists(ctx context.Context, db *gorm.DB, table string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		"SELECT count(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?",
		table,
	).Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return count > 0, nil
}

// GetTableColumns returns the columns of a table in ordinal order.
func GetTableColumns(ctx context.Context, db *gorm.DB, table string) ([]ColumnInfo, error) {
	var columns []ColumnInfo
	err := db.WithContext(ctx).Raw(
		"SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = ? ORDER BY ordinal_position",
		table,
	).Scan(&columns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", table, err)
	}
	for i := range columns {
		columns[i].DataType = strings.ToLower(columns[i].DataType)
	}
	return columns, nil
}

// PrimaryKeyName returns the name of the table's primary-key constraint, or "".
func PrimaryKeyName(ctx context.Context, db *gorm.DB, table string) (string, error) {
	var names []string
	err := db.WithContext(ctx).Raw(
		"SELECT constraint_name FROM information_schema.table_constraints WHERE table_schema = current_schema() AND table_name = ? AND constraint_type = 'PRIMARY KEY'",
		table,
	).Scan(&names).Error
	if err != nil {
		return "", fmt.Errorf("failed to get primary key for table %s: %w", table, err)
	}
	if len(names) == 0 {
		return "", nil
	}
	return names[0], nil
}

// ListTables returns the tables of the current schema whose name starts with prefix.
func ListTables(ctx context.Context, db *gorm.DB, prefix string) ([]string, error) {
	var names []string
	err := db.WithContext(ctx).Raw(
		"SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND starts_with(table_name, ?) ORDER BY table_name",
		prefix,
	).Scan(&names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tables with prefix %s: %w", prefix, err)
	}
	return names, nil
}

// CountRows returns the number of rows in a table.
func CountRows(ctx context.Context, db *gorm.DB, table string) (int64, error) {
	var count int64
	if err := db.WithContext(ctx).Table(table).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	return count, nil
}
