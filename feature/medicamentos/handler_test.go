package medicamentos_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"medicamentos-etl/core/dataset"
	"medicamentos-etl/core/publish"
	"medicamentos-etl/feature/medicamentos"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(svc *medicamentos.Service) *fiber.App {
	app := fiber.New()
	_ = medicamentos.NewFeature(svc).Load(app)
	return app
}

func TestHandleRun(t *testing.T) {
	cfg := testConfig(t)
	pub := &recordingPublisher{}
	app := newApp(newService(t, cfg, pub, nil))

	resp, err := app.Test(httptest.NewRequest("POST", "/pipeline/run", nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body medicamentos.RunResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Transform.Merge.Matched)
	assert.Equal(t, publish.OutcomeSuccess, body.Publish.Outcome)
	assert.Len(t, pub.tables, 1)
}

func TestHandleTransform_InputsNotFound(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.DataDir, cfg.AnvisaFile)))
	app := newApp(newService(t, cfg, &recordingPublisher{}, nil))

	resp, err := app.Test(httptest.NewRequest("POST", "/pipeline/transform", nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestHandleTransform_SchemaError(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.DataDir, cfg.AnvisaFile), "NUMERO_REGISTRO_PRODUTO;NOME_PRODUTO\n1;A\n")
	app := newApp(newService(t, cfg, &recordingPublisher{}, nil))

	resp, err := app.Test(httptest.NewRequest("POST", "/pipeline/transform", nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, 422, resp.StatusCode)
}

func TestHandlePublish_Degraded(t *testing.T) {
	cfg := testConfig(t)
	svc := newService(t, cfg, &recordingPublisher{}, nil)
	_, err := svc.Transform(context.Background())
	require.NoError(t, err)

	degraded := &degradedPublisher{}
	app := newApp(newService(t, cfg, degraded, nil))

	req := httptest.NewRequest("POST", "/pipeline/publish", strings.NewReader(`{"file":"`+svc.ExchangeFile()+`"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, 207, resp.StatusCode)

	var body struct {
		Error  string          `json:"error"`
		Report *publish.Report `json:"report"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Error, "search")
	assert.Equal(t, publish.OutcomeDegraded, body.Report.Outcome)
}

func TestHandlePublish_MissingFile(t *testing.T) {
	cfg := testConfig(t)
	app := newApp(newService(t, cfg, &recordingPublisher{}, nil))

	resp, err := app.Test(httptest.NewRequest("POST", "/pipeline/publish", nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
}

type degradedPublisher struct{}

func (degradedPublisher) Publish(_ context.Context, t *dataset.Table, dest publish.Destination) (*publish.Report, error) {
	report := &publish.Report{
		Dataset: t.Name,
		Rows:    t.Len(),
		Outcome: publish.OutcomeDegraded,
		Targets: []publish.TargetResult{
			{Target: "relational", Production: dest.Table, Outcome: publish.OutcomeSuccess},
			{Target: "search", Production: dest.Alias, Outcome: publish.OutcomeFailed},
		},
	}
	return report, &publish.PublishError{
		Report: report,
		Errs:   []error{&publish.Error{Kind: publish.KindSwap, Target: "search", Step: "update aliases", Err: errors.New("cluster unavailable")}},
	}
}
