package publish

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"medicamentos-etl/core/dataset"
	"medicamentos-etl/core/search"
)

func searchConfig() search.Config {
	return search.Config{Shards: 1}
}

func TestStagingTableNameRoundTrip(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_123)
	name := StagingTableName("medicamentos", now)
	assert.Regexp(t, `^medicamentos__stg_1700000000123_[0-9a-f]{8}$`, name)

	created, ok := ParseStagingTable("medicamentos", name)
	assert.True(t, ok)
	assert.True(t, created.Equal(now))

	_, ok = ParseStagingTable("medicamentos", "medicamentos")
	assert.False(t, ok)
	_, ok = ParseStagingTable("medicamentos", "medicamentos__stg_x_abc")
	assert.False(t, ok)
}

func TestStagingTableNameFitsIdentifierLimit(t *testing.T) {
	long := strings.Repeat("tabela_de_referencia_", 5)
	name := StagingTableName(long, time.UnixMilli(1_700_000_000_000))
	assert.LessOrEqual(t, len(name), 63)

	_, ok := ParseStagingTable(long, name)
	assert.True(t, ok)
}

func TestIndexNameRoundTrip(t *testing.T) {
	name := IndexName("Medicamentos", time.UnixMilli(2000))
	assert.Equal(t, "medicamentos-2000", name)

	created, ok := ParseIndexName("medicamentos", name)
	assert.True(t, ok)
	assert.Equal(t, int64(2000), created.UnixMilli())

	_, ok = ParseIndexName("medicamentos", "medicamentos-old")
	assert.False(t, ok)
}

func TestErrorClassification(t *testing.T) {
	schema := &dataset.SchemaError{Source: "anvisa", Missing: []string{"PRINCIPIO_ATIVO"}}
	assert.Equal(t, KindSchema, KindOf(schema))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))

	swap := newError(KindSwap, "relational", "swap transaction", errors.New("deadlock"))
	assert.True(t, swap.Retryable())
	assert.Contains(t, swap.Error(), "swap [relational] during swap transaction: deadlock")

	dup := newError(KindSwap, "relational", "swap transaction", &pq.Error{Code: "23505"})
	assert.False(t, dup.Retryable())

	cleanup := newError(KindCleanup, "search", "delete previous index", errors.New("x"))
	assert.False(t, cleanup.Retryable())
}

func TestSessionLogKeepsNewestFirst(t *testing.T) {
	log := NewSessionLog(2)
	log.Add(Session{ID: "1"})
	log.Add(Session{ID: "2"})
	log.Add(Session{ID: "3"})

	recent := log.Recent()
	assert.Len(t, recent, 2)
	assert.Equal(t, "3", recent[0].ID)
	assert.Equal(t, "2", recent[1].ID)
}
