package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/health-reports/constants"
	"github.com/joseph-ayodele/health-reports/internal/classify"
	"github.com/joseph-ayodele/health-reports/internal/common"
	"github.com/joseph-ayodele/health-reports/internal/entity"
	"github.com/joseph-ayodele/health-reports/internal/pipeline"
)

func uploadRequest(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/reports", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestUploadCreatesReport(t *testing.T) {
	f := newFixture(t)
	h := NewHTTPHandler(f.svc, nil, 0, nil)

	req := uploadRequest(t, "Lipid_Panel_John.png", pngBytes())
	req.Header.Set(credentialHeader, "sk-override")
	rec := serve(h, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	var rep entity.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, constants.ReportTypeLipid, rep.Type)
	assert.Len(t, rep.Metrics, 3)
	assert.Contains(t, rec.Body.String(), `"ocrProvider":"vendor/vision-c"`)

	require.Len(t, f.proc.docs, 1)
	assert.Equal(t, constants.MediaTypePNG, f.proc.docs[0].MediaType)
	assert.Equal(t, "sk-override", f.proc.credential)
}

func TestUploadUsesConfiguredKeyByDefault(t *testing.T) {
	f := newFixture(t)
	h := NewHTTPHandler(f.svc, nil, 0, nil)

	rec := serve(h, uploadRequest(t, "scan.png", pngBytes()))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "sk-configured", f.proc.credential)
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		procErr  error
		status   int
		code     string
	}{
		{
			name:     "unsupported media type",
			filename: "notes.txt",
			data:     []byte("plain text"),
			status:   http.StatusUnsupportedMediaType,
			code:     common.CodeUnsupportedMediaType,
		},
		{
			name:     "empty file",
			filename: "scan.png",
			data:     nil,
			status:   http.StatusBadRequest,
			code:     http.StatusText(http.StatusBadRequest),
		},
		{
			name:     "missing credential",
			filename: "scan.png",
			data:     pngBytes(),
			procErr:  common.NewAppError(common.CodeMissingCredential, "no key", common.ErrMissingCredential),
			status:   http.StatusPreconditionFailed,
			code:     common.CodeMissingCredential,
		},
		{
			name:     "no text extracted",
			filename: "scan.pdf",
			data:     []byte("%PDF-1.4"),
			procErr:  common.NewAppError(common.CodeNoTextExtracted, "nothing", common.ErrNoTextExtracted),
			status:   http.StatusUnprocessableEntity,
			code:     common.CodeNoTextExtracted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.proc.err = tt.procErr
			h := NewHTTPHandler(f.svc, nil, 0, nil)

			rec := serve(h, uploadRequest(t, tt.filename, tt.data))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestUploadAnalysisFailureCarriesText(t *testing.T) {
	f := newFixture(t)
	f.proc.err = &pipeline.AnalysisError{
		ExtractedText: "Hemoglobin 13.5 g/dL",
		Provider:      "vendor/vision-c",
		Err:           common.NewAppError(common.CodeAnalysisFailed, "bad json", common.ErrAnalysisFailed),
	}
	h := NewHTTPHandler(f.svc, nil, 0, nil)

	rec := serve(h, uploadRequest(t, "scan.png", pngBytes()))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, common.CodeAnalysisFailed, body.Code)
	assert.Equal(t, "Hemoglobin 13.5 g/dL", body.ExtractedText)
}

func TestUploadRejectsOversizeBody(t *testing.T) {
	f := newFixture(t)
	h := NewHTTPHandler(f.svc, nil, 1024, nil)

	rec := serve(h, uploadRequest(t, "scan.png", make([]byte, 4096)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, common.CodeOversizeDocument, decodeError(t, rec).Code)
	assert.Empty(t, f.proc.docs)
}

func TestGetReportShapesMetrics(t *testing.T) {
	f := newFixture(t)
	seeded := f.seed(t)
	h := NewHTTPHandler(f.svc, nil, 0, nil)

	tests := []struct {
		name  string
		path  string
		names []string
	}{
		{name: "as stored", path: "/v1/reports/" + seeded.ID, names: []string{"HDL", "LDL", "Glucose"}},
		{name: "latest", path: "/v1/reports/latest", names: []string{"HDL", "LDL", "Glucose"}},
		{name: "risk sorted", path: "/v1/reports/latest?sort=risk", names: []string{"LDL", "Glucose", "HDL"}},
		{name: "category", path: "/v1/reports/latest?category=lipids", names: []string{"HDL", "LDL"}},
		{name: "query", path: "/v1/reports/latest?q=gluc", names: []string{"Glucose"}},
		{name: "at risk sorted", path: "/v1/reports/latest?at_risk=true&sort=risk", names: []string{"LDL", "Glucose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, http.StatusOK, rec.Code)

			var rep entity.Report
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
			var got []string
			for _, m := range rep.Metrics {
				got = append(got, m.Name)
			}
			assert.Equal(t, tt.names, got)
		})
	}
}

func TestGetReportNotFound(t *testing.T) {
	f := newFixture(t)
	h := NewHTTPHandler(f.svc, nil, 0, nil)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/v1/reports/latest", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, common.CodeNotFound, decodeError(t, rec).Code)
}

func TestGetReportMalformedID(t *testing.T) {
	f := newFixture(t)
	h := NewHTTPHandler(f.svc, nil, 0, nil)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/v1/reports/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	seeded := f.seed(t)
	h := NewHTTPHandler(f.svc, nil, 0, nil)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/v1/reports/"+seeded.ID+"/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body summaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, classify.RiskCounts{Total: 3, Danger: 1, Warning: 1, Normal: 1}, body.Risks)
	assert.Equal(t, []string{"Lipids", "Metabolic"}, body.Categories)
}

func TestExportXLSX(t *testing.T) {
	f := newFixture(t)
	seeded := f.seed(t)
	h := NewHTTPHandler(f.svc, nil, 0, nil)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/v1/reports/"+seeded.ID+"/export.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), seeded.ID)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
}

func TestListModelsAndClear(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	h := NewHTTPHandler(f.svc, nil, 0, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	req.Header.Set(credentialHeader, "sk-override")
	rec := serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"models":["vendor/vision-a","vendor/vision-b"]}`, rec.Body.String())
	assert.Equal(t, []string{"sk-override"}, f.providers.keys)

	rec = serve(h, httptest.NewRequest(http.MethodDelete, "/v1/reports", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":1}`, rec.Body.String())

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/v1/reports/latest", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	ok := NewHTTPHandler(f.svc, func(ctx context.Context) error { return nil }, 0, nil)
	assert.Equal(t, http.StatusOK, serve(ok, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)

	down := NewHTTPHandler(f.svc, func(ctx context.Context) error { return errors.New("db down") }, 0, nil)
	assert.Equal(t, http.StatusServiceUnavailable, serve(down, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newFixture(t)
	h := NewHTTPHandler(f.svc, nil, 0, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec := serve(h, req)
	assert.Equal(t, "req-123", rec.Header().Get(requestIDHeader))
}
