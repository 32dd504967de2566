package publish

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// maxIdentifierLength is PostgreSQL's NAMEDATALEN - 1.
	maxIdentifierLength = 63
	stagingMarker       = "__stg_"
	// len(stagingMarker) + 13 millisecond digits + "_" + 8 hex chars
	stagingSuffixLength = len(stagingMarker) + 13 + 1 + 8
)

// StagingPrefix returns the prefix shared by every staging table of a production table.
func StagingPrefix(table string) string {
	if limit := maxIdentifierLength - stagingSuffixLength; len(table) > limit {
		table = table[:limit]
	}
	return table + stagingMarker
}

// StagingTableName returns a unique staging table name for a production table.
func StagingTableName(table string, now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return StagingPrefix(table) + strconv.FormatInt(now.UnixMilli(), 10) + "_" + random
}

// ParseStagingTable returns the creation time encoded in a staging table name.
func ParseStagingTable(table, name string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(name, StagingPrefix(table))
	if !ok {
		return time.Time{}, false
	}
	millis, _, ok := strings.Cut(rest, "_")
	if !ok {
		return time.Time{}, false
	}
	return parseMillis(millis)
}

// IndexName returns the timestamped index name for an alias.
func IndexName(alias string, now time.Time) string {
	return strings.ToLower(alias) + "-" + strconv.FormatInt(now.UnixMilli(), 10)
}

// ParseIndexName returns the creation time encoded in an index name.
func ParseIndexName(alias, name string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(name, strings.ToLower(alias)+"-")
	if !ok {
		return time.Time{}, false
	}
	return parseMillis(rest)
}

func parseMillis(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
