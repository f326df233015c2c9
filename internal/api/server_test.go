package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"unveildocs/internal/analysis"
	"unveildocs/internal/config"
	"unveildocs/internal/document"
	"unveildocs/internal/providers"
	"unveildocs/internal/workflows"

	"github.com/stretchr/testify/require"
	tclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
)

const leaseText = "This Lease Agreement is entered into between Landlord and Tenant. " +
	"Tenant shall pay rent of $1,500 on the first day of each month."

type fakeRun struct {
	tclient.WorkflowRun
	id string
}

func (r fakeRun) GetID() string    { return r.id }
func (r fakeRun) GetRunID() string { return "run-1" }

type fakeValue struct{ v any }

func (f fakeValue) HasValue() bool { return f.v != nil }

func (f fakeValue) Get(valuePtr interface{}) error {
	b, err := json.Marshal(f.v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, valuePtr)
}

type fakeTemporal struct {
	started  []tclient.StartWorkflowOptions
	inputs   []workflows.BatchAnalysisInput
	progress map[string]workflows.BatchProgress
	startErr error
}

func (f *fakeTemporal) ExecuteWorkflow(_ context.Context, options tclient.StartWorkflowOptions, _ interface{}, args ...interface{}) (tclient.WorkflowRun, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.started = append(f.started, options)
	f.inputs = append(f.inputs, args[0].(workflows.BatchAnalysisInput))
	return fakeRun{id: options.ID}, nil
}

func (f *fakeTemporal) QueryWorkflow(_ context.Context, workflowID string, _ string, queryType string, _ ...interface{}) (converter.EncodedValue, error) {
	p, ok := f.progress[workflowID]
	if !ok || queryType != workflows.QueryGetBatchProgress {
		return nil, errors.New("workflow not found")
	}
	return fakeValue{v: p}, nil
}

func newTestServer(t *testing.T, tc WorkflowClient) http.Handler {
	t.Helper()
	cfg := config.Defaults()
	cfg.MaxUpload = 1 << 10
	svc, err := analysis.NewService(analysis.Config{Model: providers.NewStaticManager("mock", providers.NewMockProvider())})
	require.NoError(t, err)
	srv := NewServer(cfg, Deps{
		Processor: document.NewProcessor(document.Config{MaxFileSize: cfg.MaxUpload}),
		Service:   svc,
		ModelName: "mock",
		Temporal:  tc,
	})
	return srv.Routes()
}

func multipartBody(t *testing.T, field, filename string, data []byte, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range extra {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, rec)
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "missing error envelope: %s", rec.Body.String())
	return e["code"].(string)
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, true, body["ok"])
	require.Equal(t, "mock", body["model"])
	require.Equal(t, false, body["batch_available"])
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestDocumentUploadText(t *testing.T) {
	h := newTestServer(t, nil)
	body, ct := multipartBody(t, "file", "lease.txt", []byte(leaseText), nil)
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decodeBody(t, rec)
	require.Equal(t, "lease.txt", out["filename"])
	ext := out["extraction"].(map[string]any)
	require.Equal(t, true, ext["success"])
	require.Contains(t, ext["text"], "Tenant shall pay rent")
	require.NotNil(t, out["quality"])
}

func TestDocumentUploadRejectsUnsupportedFormat(t *testing.T) {
	h := newTestServer(t, nil)
	body, ct := multipartBody(t, "upload", "old.doc", []byte("legacy bytes"), nil)
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	require.Equal(t, "UD-API-4015", errorCode(t, rec))
	require.Contains(t, rec.Body.String(), "unsupported_format")
}

func TestDocumentUploadRejectsOversizedFile(t *testing.T) {
	h := newTestServer(t, nil)
	body, ct := multipartBody(t, "file", "big.txt", bytes.Repeat([]byte("a"), 2<<10), nil)
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "exceeds maximum allowed")
}

func TestDocumentAnalyze(t *testing.T) {
	h := newTestServer(t, nil)
	body, ct := multipartBody(t, "file", "lease.txt", []byte(leaseText), map[string]string{"analysis_type": "risks"})
	req := httptest.NewRequest(http.MethodPost, "/documents/analyze", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decodeBody(t, rec)
	ai := out["ai_analysis"].(map[string]any)
	require.Equal(t, true, ai["success"])
	require.Equal(t, "risks", ai["analysis_type"])
}

func TestAnalyzeAskExplain(t *testing.T) {
	h := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"text":"`+leaseText+`","analysis_type":"summary"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "summary", decodeBody(t, rec)["analysis_type"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"text":"`+leaseText+`","question":"When is payment due?"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "When is payment due?", decodeBody(t, rec)["question"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/explain", strings.NewReader(`{"clause":"Tenant shall indemnify Landlord."}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, true, decodeBody(t, rec)["success"])
}

func TestAnalyzeValidation(t *testing.T) {
	h := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"text":"short"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	out := decodeBody(t, rec)
	require.Equal(t, false, out["success"])
	require.Equal(t, "invalid_input", out["error_type"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"text":"`+leaseText+`","analysis_type":"poetry"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "UD-API-4001", errorCode(t, rec))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{not json`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Malformed JSON request body.")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ask", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, "UD-API-4005", errorCode(t, rec))
}

func TestBatchesUnavailableWithoutTemporal(t *testing.T) {
	h := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/batches", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "UD-API-5030", errorCode(t, rec))
}

func TestBatchStartAndProgress(t *testing.T) {
	tc := &fakeTemporal{progress: map[string]workflows.BatchProgress{}}
	h := newTestServer(t, tc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/batches", strings.NewReader(`{"input_dir":"/srv/contracts","analysis_type":"key_points"}`)))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	out := decodeBody(t, rec)
	batchID := out["batch_id"].(string)
	require.Equal(t, "batch-"+batchID, out["workflow_id"])

	require.Len(t, tc.inputs, 1)
	require.Equal(t, "/srv/contracts", tc.inputs[0].InputDir)
	require.Equal(t, analysis.TypeKeyPoints, tc.inputs[0].AnalysisType)
	require.Equal(t, 3, tc.inputs[0].MaxConcurrentChildren)
	require.Equal(t, "unveildocs", tc.started[0].TaskQueue)

	tc.progress["batch-"+batchID] = workflows.BatchProgress{BatchID: batchID, Total: 4, Done: 2}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/batches/"+batchID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	prog := decodeBody(t, rec)
	require.EqualValues(t, 4, prog["total"])
	require.EqualValues(t, 2, prog["done"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/batches/unknown", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBatchStartConflict(t *testing.T) {
	h := newTestServer(t, &fakeTemporal{startErr: errors.New("workflow already started")})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/batches", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "UD-API-4009", errorCode(t, rec))
}

func TestStatusForKind(t *testing.T) {
	require.Equal(t, http.StatusTooManyRequests, statusForKind("quota_exceeded"))
	require.Equal(t, http.StatusBadGateway, statusForKind("max_retries_exceeded"))
	require.Equal(t, http.StatusUnprocessableEntity, statusForKind("extraction_failed"))
	require.Equal(t, http.StatusInternalServerError, statusForKind("unknown"))
}
