package medicamentos_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"medicamentos-etl/core/dataset"
	"medicamentos-etl/core/metrics"
	"medicamentos-etl/core/publish"
	"medicamentos-etl/core/search"
	"medicamentos-etl/core/search/memsearch"
	"medicamentos-etl/feature/medicamentos"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	anvisaFixture = "TIPO_PRODUTO;NOME_PRODUTO;NUMERO_REGISTRO_PRODUTO;CLASSE_TERAPEUTICA;PRINCIPIO_ATIVO\n" +
		"MEDICAMENTO;DIPIRONA;1.0497.1234;ANALGESICOS;DIPIRONA MONOIDRATADA\n" +
		"MEDICAMENTO;AMOXICILINA;1.0573.0001;ANTIBIOTICOS;AMOXICILINA\n" +
		"MEDICAMENTO;SEM PRECO;1.9999.0001;OUTROS;NENHUM\n"

	cmedFixture = "PREÇOS MÁXIMOS DE MEDICAMENTOS POR PRINCÍPIO ATIVO\n" +
		"Atualizada em 01/05/2024\n" +
		"LABORATÓRIO;CNPJ;REGISTRO;PRODUTO;APRESENTAÇÃO;PMC 0 %;PMC 18 %\n" +
		"EMS;57.507.378/0001-01;1.0497.1234.001-1;DIPIRONA;500 MG;10,50;12,81\n" +
		"EUROFARMA;61.190.096/0001-92;1.0573.0001.002-3;AMOXICILINA;500 MG;abc;30,00\n" +
		"EMS;57.507.378/0001-01;1.0497.1234.002-1;DIPIRONA;1 G;-;-\n" +
		"ACHE;60.659.463/0001-91;1.0111.0001.001-1;OUTRO;1 UN;5,00;6,00\n"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testConfig(t *testing.T) medicamentos.Config {
	dir := t.TempDir()
	cfg := medicamentos.Config{
		DataDir:          filepath.Join(dir, "dados_brutos"),
		ProcessedDir:     filepath.Join(dir, "dados_processados"),
		AnvisaFile:       "DADOS_ABERTOS_MEDICAMENTOS.csv",
		AnvisaEncoding:   "latin1",
		CMEDPattern:      "cmed_*.csv",
		CMEDEncoding:     "utf-8",
		CMEDSkipRows:     2,
		UnifiedFile:      "medicamentos_unificados.csv",
		IdentifierLength: 9,
		MatchPolicy:      "first",
		Table:            "medicamentos",
		Alias:            "medicamentos",
	}
	writeFile(t, filepath.Join(cfg.DataDir, cfg.AnvisaFile), anvisaFixture)
	writeFile(t, filepath.Join(cfg.DataDir, "cmed_2024_05.csv"), cmedFixture)
	return cfg
}

type recordingPublisher struct {
	tables []*dataset.Table
	dests  []publish.Destination
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, t *dataset.Table, dest publish.Destination) (*publish.Report, error) {
	p.tables = append(p.tables, t)
	p.dests = append(p.dests, dest)
	report := &publish.Report{Dataset: t.Name, Rows: t.Len(), Outcome: publish.OutcomeSuccess}
	if p.err != nil {
		report.Outcome = publish.OutcomeFailed
	}
	return report, p.err
}

func newService(t *testing.T, cfg medicamentos.Config, pub medicamentos.Publisher, m *metrics.Metrics) *medicamentos.Service {
	t.Helper()
	src := medicamentos.NewSource(cfg, nil, "", zap.NewNop())
	svc, err := medicamentos.NewService(cfg, src, pub, m, zap.NewNop())
	require.NoError(t, err)
	return svc
}

func TestService_Transform(t *testing.T) {
	cfg := testConfig(t)
	m := metrics.New()
	svc := newService(t, cfg, &recordingPublisher{}, m)

	result, err := svc.Transform(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.AnvisaRows)
	assert.Equal(t, 4, result.CMEDRows)
	assert.Equal(t, medicamentos.MergeStats{Matched: 2, UnmatchedAnvisa: 1, UnmatchedCMED: 1}, result.Merge)
	assert.Equal(t, 2, result.Degradations.Total)
	assert.Equal(t, 1, result.Degradations.Dropped)
	assert.Equal(t, 1, result.Degradations.ByReason["cmed:unparseable_price"])
	assert.Equal(t, 1, result.Degradations.ByReason["cmed:no_prices"])
	assert.Empty(t, result.Archived)

	expected := `
# HELP medicamentos_rows_read_total Rows read from each source file.
# TYPE medicamentos_rows_read_total counter
medicamentos_rows_read_total{source="anvisa"} 3
medicamentos_rows_read_total{source="cmed"} 4
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "medicamentos_rows_read_total"))

	content, err := os.ReadFile(result.Output)
	require.NoError(t, err)
	text := string(content)
	assert.True(t, strings.HasPrefix(text, "\ufeffNUMERO_REGISTRO_PRODUTO;CLASSE_TERAPEUTICA;"))
	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "104971234;ANALGESICOS;DIPIRONA MONOIDRATADA;EMS;"))
	assert.Contains(t, lines[1], ";10.5;")
	assert.True(t, strings.HasPrefix(lines[2], "105730001;"))
}

func TestService_PublishReadsExchangeFile(t *testing.T) {
	cfg := testConfig(t)
	pub := &recordingPublisher{}
	svc := newService(t, cfg, pub, nil)

	_, err := svc.Transform(context.Background())
	require.NoError(t, err)

	report, err := svc.Publish(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Rows)

	require.Len(t, pub.tables, 1)
	table := pub.tables[0]
	assert.Equal(t, medicamentos.Columns(), table.Columns)
	assert.Equal(t, "104971234", table.Rows[0][0])
	assert.Equal(t, 10.5, table.Rows[0][table.ColumnIndex(medicamentos.PriceColumns[1])])
	assert.Nil(t, table.Rows[1][table.ColumnIndex(medicamentos.PriceColumns[1])])
	assert.Equal(t, publish.Destination{Table: "medicamentos", Alias: "medicamentos"}, pub.dests[0])
}

func TestService_RunPublishesToSearch(t *testing.T) {
	cfg := testConfig(t)
	store := memsearch.New()
	swapper := publish.NewSearchSwapper(store, search.Config{Shards: 1}, 100, zap.NewNop())
	coord := publish.NewCoordinator(publish.Config{Parallel: true, BatchSize: 100}, zap.NewNop(), nil, swapper)
	svc := newService(t, cfg, coord, nil)

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, publish.OutcomeSuccess, result.Publish.Outcome)

	n, err := store.Count(context.Background(), "medicamentos")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	doc, ok := store.Get("medicamentos", "104971234")
	require.True(t, ok)
	assert.Equal(t, "EMS", doc["LABORATORIO"])
}

func TestService_RunReturnsTransformOnPublishFailure(t *testing.T) {
	cfg := testConfig(t)
	pub := &recordingPublisher{err: errors.New("database unavailable")}
	svc := newService(t, cfg, pub, nil)

	result, err := svc.Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 2, result.Transform.Merge.Matched)
	assert.Equal(t, publish.OutcomeFailed, result.Publish.Outcome)
}

func TestService_MissingInputs(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.DataDir, "cmed_2024_05.csv")))
	svc := newService(t, cfg, &recordingPublisher{}, nil)

	_, err := svc.Transform(context.Background())
	assert.ErrorIs(t, err, medicamentos.ErrInputsNotFound)
}

func TestService_RejectPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.MatchPolicy = "reject"
	writeFile(t, filepath.Join(cfg.DataDir, "cmed_2024_05.csv"), cmedFixture+
		"EMS;57.507.378/0001-01;1.0497.1234.003-1;DIPIRONA;2 G;20,00;24,00\n")
	svc := newService(t, cfg, &recordingPublisher{}, nil)

	_, err := svc.Transform(context.Background())
	assert.Equal(t, publish.KindAmbiguousJoin, publish.KindOf(err))
	_, statErr := os.Stat(svc.ExchangeFile())
	assert.True(t, os.IsNotExist(statErr), "nothing is written when the merge is rejected")
}

func TestNewService_Validation(t *testing.T) {
	cfg := testConfig(t)
	cfg.MatchPolicy = "sometimes"
	_, err := medicamentos.NewService(cfg, nil, nil, nil, zap.NewNop())
	assert.Error(t, err)

	cfg.MatchPolicy = "first"
	cfg.IdentifierLength = 8
	_, err = medicamentos.NewService(cfg, nil, nil, nil, zap.NewNop())
	assert.Error(t, err)
}
