package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/tidycsv/internal/config"
	"github.com/JonMunkholm/tidycsv/internal/core"
	"github.com/JonMunkholm/tidycsv/internal/metrics"
	"github.com/JonMunkholm/tidycsv/internal/storage"
	"github.com/JonMunkholm/tidycsv/internal/table"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = "name,qty,tag\nA,1,X\nA,1,X\nB,,y \n"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, RequestTimeout: 10 * time.Second, ShutdownTimeout: time.Second},
		Upload: config.UploadConfig{
			MaxFileSize:        1 << 20,
			DefaultNumeric:     "median",
			DefaultCategorical: "mode",
			ResultRetention:    time.Minute,
		},
		Security: config.SecurityConfig{EnableCSP: true},
		Logging:  config.LoggingConfig{Level: "info", Format: "text"},
		Metrics:  config.MetricsConfig{Enabled: true},
	}
}

type testEnv struct {
	srv     *Server
	fs      afero.Fs
	metrics *metrics.Collector
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()
	fs := afero.NewMemMapFs()
	store, err := storage.NewWithFs(fs, "uploads", "cleaned")
	require.NoError(t, err)

	collector := metrics.New()
	svc := core.NewService(store,
		core.WithRecorder(collector),
		core.WithRetention(cfg.Upload.ResultRetention),
	)
	t.Cleanup(svc.Close)

	srv := NewServer(cfg, svc, collector)
	t.Cleanup(func() { _ = srv.Shutdown(t.Context()) })
	return &testEnv{srv: srv, fs: fs, metrics: collector}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(rec, req)
	return rec
}

// uploadRequest builds a multipart request. An empty fileName omits the
// file part.
func uploadRequest(t *testing.T, path, fileName string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mwr := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mwr.WriteField(k, v))
	}
	if fileName != "" {
		part, err := mwr.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mwr.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mwr.FormDataContentType())
	return req
}

func decodeRun(t *testing.T, body io.Reader) core.RunResult {
	t.Helper()
	var res core.RunResult
	require.NoError(t, json.NewDecoder(body).Decode(&res))
	return res
}

func TestIndex(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `enctype="multipart/form-data"`)
	assert.Contains(t, body, `<option value="median" selected>`)
	assert.Contains(t, body, `name="categorical_strategy"`)
	assert.Contains(t, body, "1 MB")
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestUpload_HTMLSummary(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.do(uploadRequest(t, "/upload", "data.csv", []byte(sampleCSV), map[string]string{
		"numeric_strategy":     "mean",
		"categorical_strategy": "mode",
	}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Contains(t, body, "Cleaning summary")
	assert.Contains(t, body, `href="/cleaned/cleaned_data.csv"`)
	assert.Contains(t, body, "<th scope=\"row\">Duplicates removed</th><td>1</td>")

	data, err := afero.ReadFile(env.fs, "cleaned/cleaned_data.csv")
	require.NoError(t, err)
	assert.Equal(t, "name,qty,tag\na,1,x\nb,1,y\n", string(data))
}

func TestUpload_EscapesUserContent(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.do(uploadRequest(t, "/upload", "x.csv", []byte("<script>\n1\n"), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script>")
	assert.Contains(t, rec.Body.String(), "&lt;script&gt;")
}

func TestUpload_JSONWhenAccepted(t *testing.T) {
	env := newTestEnv(t, testConfig())

	req := uploadRequest(t, "/upload", "data.csv", []byte(sampleCSV), map[string]string{"numeric_strategy": "mean"})
	req.Header.Set("Accept", "application/json")
	rec := env.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeRun(t, rec.Body)
	assert.Equal(t, "cleaned_data.csv", res.CleanedFileName)
	assert.Equal(t, 3, res.Summary.RowsBefore)
	assert.Equal(t, 2, res.Summary.RowsAfter)
	assert.Equal(t, "mean", res.Summary.NumericStrategy)
	assert.Equal(t, "", res.Summary.CategoricalStrategy)
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name       string
		fileName   string
		content    string
		wantStatus int
		wantCode   string
	}{
		{"no file", "", "", http.StatusBadRequest, "FILE004"},
		{"unsupported type", "report.pdf", "%PDF", http.StatusUnsupportedMediaType, "FILE006"},
		{"malformed csv", "bad.csv", "a,b\n1,2,3\n", http.StatusBadRequest, "FILE002"},
		{"empty file", "empty.csv", "", http.StatusBadRequest, "FILE005"},
		{"too large", "big.csv", "a\n" + strings.Repeat("1\n", 600_000), http.StatusRequestEntityTooLarge, "FILE001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, testConfig())

			req := uploadRequest(t, "/upload", tt.fileName, []byte(tt.content), nil)
			req.Header.Set("Accept", "application/json")
			rec := env.do(req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotEmpty(t, resp.Action)
		})
	}
}

func TestUpload_ErrorPageHTML(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.do(uploadRequest(t, "/upload", "bad.csv", []byte("a\n\"open\n"), nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "FILE002")
}

func TestUpload_RejectsOversizedStrategy(t *testing.T) {
	env := newTestEnv(t, testConfig())

	req := uploadRequest(t, "/upload", "a.csv", []byte("a\n1\n"), map[string]string{
		"numeric_strategy": strings.Repeat("x", 65),
	})
	req.Header.Set("Accept", "application/json")
	rec := env.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "VAL001", resp.Code)
	assert.Equal(t, []string{"numeric_strategy"}, resp.Fields)
}

func TestDownload(t *testing.T) {
	env := newTestEnv(t, testConfig())
	rec := env.do(uploadRequest(t, "/upload", "data.tsv", []byte("a\tb\nX\t1\n"), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/cleaned/cleaned_data.tsv", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/tab-separated-values", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=cleaned_data.tsv`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "a\tb\nx\t1\n", rec.Body.String())
}

func TestDownload_XLSX(t *testing.T) {
	env := newTestEnv(t, testConfig())

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"city", "pop"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{" Oslo ", 700}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"", 300}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rec := env.do(uploadRequest(t, "/upload", "cities.xlsx", buf.Bytes(), map[string]string{"categorical_strategy": "mode"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(httptest.NewRequest(http.MethodGet, "/cleaned/cleaned_cities.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, table.FormatXLSX.ContentType(), rec.Header().Get("Content-Type"))

	tbl, err := table.Read(rec.Body, table.FormatXLSX, "cleaned_cities.xlsx")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"oslo", "700"}, {"oslo", "300"}}, tbl.Records())
}

func TestDownload_Errors(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.do(httptest.NewRequest(http.MethodGet, "/cleaned/cleaned_missing.csv", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "FILE007")

	rec = env.do(httptest.NewRequest(http.MethodGet, "/cleaned/..%2Fuploads%2Fx.csv", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/cleaned/notes.pdf", nil))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestAPIClean_AndRunLookup(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.do(uploadRequest(t, "/api/clean", "data.csv", []byte(sampleCSV), map[string]string{
		"numeric_strategy":     "average",
		"categorical_strategy": "mode",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	res := decodeRun(t, rec.Body)
	assert.Equal(t, "none", res.Summary.NumericApplied)
	require.Len(t, res.Summary.Warnings, 1)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/runs/"+res.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeRun(t, rec.Body)
	assert.Equal(t, res.ID, got.ID)
	assert.Equal(t, res.Summary.MissingByColumnBefore, got.Summary.MissingByColumnBefore)
}

func TestRunLookup_Errors(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/runs/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/runs/0b6f3c52-6a43-4f0e-9a43-6d2d0b1c9e11", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "UPL003", resp.Code)
}

func TestAPI_RequiresKeyWhenConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	env := newTestEnv(t, cfg)

	rec := env.do(uploadRequest(t, "/api/clean", "a.csv", []byte("a\n1\n"), nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := uploadRequest(t, "/api/clean", "a.csv", []byte("a\n1\n"), nil)
	req.Header.Set("X-API-Key", "secret")
	rec = env.do(req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// The HTML form is not behind the key.
	rec = env.do(uploadRequest(t, "/upload", "a.csv", []byte("a\n1\n"), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 1}
	env := newTestEnv(t, cfg)

	assert.Equal(t, http.StatusOK, env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	env.do(uploadRequest(t, "/upload", "a.csv", []byte("a\n1\n"), nil))

	rec = env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `tidycsv_runs_total{detail="csv",outcome="success"} 1`)
	assert.Contains(t, body, `tidycsv_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("run x: %w", core.ErrRunNotFound), http.StatusNotFound},
		{fmt.Errorf("clean: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{errNoFile, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false
	env := newTestEnv(t, cfg)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatic(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.do(httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
}
