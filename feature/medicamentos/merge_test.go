package medicamentos

import (
	"testing"

	"medicamentos-etl/core/dataset"
	"medicamentos-etl/core/publish"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(v float64) *float64 { return &v }

func cmedRecord(row int, reg string) CMEDRecord {
	return CMEDRecord{
		Row:            row,
		RegistroCMED:   reg,
		BaseIdentifier: BaseIdentifier(reg),
		Produto:        "P" + reg,
		Prices:         Prices{SemICMS: price(float64(row))},
	}
}

func TestMerge_InnerJoinOnBaseIdentifier(t *testing.T) {
	anvisa := []AnvisaRecord{
		{Row: 1, Identifier: "222222222", PrincipioAtivo: "B"},
		{Row: 2, Identifier: "111111111", PrincipioAtivo: "A"},
		{Row: 3, Identifier: "333333333", PrincipioAtivo: "C"},
	}
	cmed := []CMEDRecord{
		cmedRecord(1, "1111111110011"),
		cmedRecord(2, "2222222220011"),
		cmedRecord(3, "4444444440011"),
	}

	out, stats, err := Merge(anvisa, cmed, MatchFirst)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "222222222", out[0].Identifier)
	assert.Equal(t, "2222222220011", out[0].RegistroCMED)
	assert.Equal(t, "B", out[0].PrincipioAtivo)
	assert.Equal(t, "111111111", out[1].Identifier)

	assert.Equal(t, MergeStats{Matched: 2, UnmatchedAnvisa: 1, UnmatchedCMED: 1}, stats)
}

func TestMerge_LongIdentifierJoinsOnBase(t *testing.T) {
	anvisa := []AnvisaRecord{{Row: 1, Identifier: NormalizeIdentifier("1.2345.6789.012", 12)}}
	cmed := []CMEDRecord{cmedRecord(1, "123456789")}

	out, stats, err := Merge(anvisa, cmed, MatchFirst)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "123456789012", out[0].Identifier)
	assert.Equal(t, 1, stats.Matched)
}

func TestMerge_ShortRegistrationDoesNotJoinPaddedIdentifier(t *testing.T) {
	anvisa := []AnvisaRecord{{Row: 1, Identifier: NormalizeIdentifier("1234", BaseLength)}}
	cmed := []CMEDRecord{cmedRecord(1, "1234")}

	out, stats, err := Merge(anvisa, cmed, MatchFirst)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, MergeStats{UnmatchedAnvisa: 1, UnmatchedCMED: 1}, stats)
}

func TestMerge_Policies(t *testing.T) {
	anvisa := []AnvisaRecord{
		{Row: 1, Identifier: "111111111"},
		{Row: 2, Identifier: "222222222"},
	}
	cmed := []CMEDRecord{
		cmedRecord(1, "1111111110021"),
		cmedRecord(2, "2222222220011"),
		cmedRecord(3, "1111111110011"),
	}

	t.Run("first keeps file order", func(t *testing.T) {
		out, stats, err := Merge(anvisa, cmed, MatchFirst)
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "1111111110021", out[0].RegistroCMED)
		assert.Equal(t, 1, stats.Ambiguous)
		assert.Equal(t, 0, stats.UnmatchedCMED)
	})

	t.Run("all keeps every pair", func(t *testing.T) {
		out, stats, err := Merge(anvisa, cmed, MatchAll)
		require.NoError(t, err)
		require.Len(t, out, 3)
		assert.Equal(t, "1111111110021", out[0].RegistroCMED)
		assert.Equal(t, "1111111110011", out[1].RegistroCMED)
		assert.Equal(t, "2222222220011", out[2].RegistroCMED)
		assert.Equal(t, 3, stats.Matched)
	})

	t.Run("reject fails", func(t *testing.T) {
		_, _, err := Merge(anvisa, cmed, MatchReject)
		require.Error(t, err)
		assert.Equal(t, publish.KindAmbiguousJoin, publish.KindOf(err))
		assert.Contains(t, err.Error(), "111111111")
	})
}

func TestMerge_Empty(t *testing.T) {
	out, stats, err := Merge(nil, []CMEDRecord{cmedRecord(1, "123456789")}, MatchFirst)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 1, stats.UnmatchedCMED)
}

func TestParseMatchPolicy(t *testing.T) {
	p, err := ParseMatchPolicy("")
	require.NoError(t, err)
	assert.Equal(t, MatchFirst, p)

	p, err = ParseMatchPolicy(" ALL ")
	require.NoError(t, err)
	assert.Equal(t, MatchAll, p)

	_, err = ParseMatchPolicy("last")
	assert.Error(t, err)
}

func TestToTable(t *testing.T) {
	rec := CanonicalRecord{
		Identifier:     "111111111",
		PrincipioAtivo: "DIPIRONA",
		CMEDRecord:     cmedRecord(4, "1111111110011"),
	}
	table := ToTable("medicamentos", []CanonicalRecord{rec}, MatchFirst)
	require.NoError(t, table.Validate())

	assert.Len(t, table.Columns, 12+len(PriceColumns)+2)
	assert.Equal(t, ColIdentifier, table.Columns[0].Name)
	assert.Equal(t, dataset.Numeric, table.Columns[12].Type)
	assert.Equal(t, ColListaConcessao, table.Columns[len(table.Columns)-1].Name)
	assert.Equal(t, []string{ColIdentifier}, table.Key)

	row := table.Rows[0]
	assert.Equal(t, "111111111", row[0])
	assert.Nil(t, row[1], "empty text is null")
	assert.Equal(t, "DIPIRONA", row[2])
	assert.Nil(t, row[12])
	assert.Equal(t, 4.0, row[13])

	wide := ToTable("medicamentos", nil, MatchAll)
	assert.Equal(t, []string{ColIdentifier, ColRegistroCMED}, wide.Key)
}
