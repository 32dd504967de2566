package integrity

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"medicamentos-etl/core/search/memsearch"
	"medicamentos-etl/core/storage/mocks"
	"medicamentos-etl/feature/integrity/checks"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T, opts Options) *fiber.App {
	app := fiber.New()
	require.NoError(t, NewFeature(NewService(opts, zap.NewNop())).Load(app))
	return app
}

func TestHandleDatasetCheck(t *testing.T) {
	store := memsearch.New()
	seedAlias(t, store, "medicamentos", map[string]int{"medicamentos-1000": 2})
	app := setupTestApp(t, Options{Search: store})

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/medicamentos?fresh=true", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var report Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.True(t, report.Consistent)
	assert.Equal(t, int64(2), report.Alias.Documents)
	assert.Nil(t, report.Table)
}

func TestHandleStructureCheck(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("BucketExists", mock.Anything, "medicamentos").Return(true, nil)
	mockClient.On("ListObjects", mock.Anything, "medicamentos", mock.Anything).Return(mocks.Objects())
	app := setupTestApp(t, Options{Storage: mockClient, Bucket: "medicamentos"})

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/storage", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var report checks.StructureReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.True(t, report.BucketExists)
	assert.Equal(t, []string{"raw", "datasets"}, report.Missing)
	mockClient.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleStructureCheck_Fix(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("BucketExists", mock.Anything, "medicamentos").Return(true, nil)
	mockClient.On("ListObjects", mock.Anything, "medicamentos", mock.Anything).Return(mocks.Objects())
	mockClient.On("PutObject", mock.Anything, "medicamentos", mock.Anything, mock.Anything, int64(0), mock.Anything).Return(minio.UploadInfo{}, nil)
	app := setupTestApp(t, Options{Storage: mockClient, Bucket: "medicamentos"})

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/storage?fix=true", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var report checks.StructureReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Empty(t, report.Missing)
	assert.Equal(t, []string{"raw", "datasets"}, report.Fixed)
	mockClient.AssertNumberOfCalls(t, "PutObject", 2)
}

func TestHandleStructureCheck_NoStorage(t *testing.T) {
	app := setupTestApp(t, Options{})

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/storage", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestHandleSessions(t *testing.T) {
	app := setupTestApp(t, Options{})

	resp, err := app.Test(httptest.NewRequest("GET", "/publish/sessions", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var sessions []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sessions))
	assert.Empty(t, sessions)
}
