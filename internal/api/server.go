package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"unveildocs/internal/analysis"
	"unveildocs/internal/config"
	"unveildocs/internal/document"
	"unveildocs/internal/extract"
	"unveildocs/internal/util"
	"unveildocs/internal/workflows"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
)

// WorkflowClient is the part of the Temporal client the API uses.
type WorkflowClient interface {
	ExecuteWorkflow(ctx context.Context, options tclient.StartWorkflowOptions, workflow interface{}, args ...interface{}) (tclient.WorkflowRun, error)
	QueryWorkflow(ctx context.Context, workflowID string, runID string, queryType string, args ...interface{}) (converter.EncodedValue, error)
}

type Deps struct {
	Processor    *document.Processor
	Service      *analysis.Service
	ModelName    string
	OCRAvailable bool
	// Temporal is optional. Batch endpoints answer 503 without it.
	Temporal WorkflowClient
	Logger   *slog.Logger
}

type Server struct {
	cfg          config.Config
	processor    *document.Processor
	service      *analysis.Service
	modelName    string
	ocrAvailable bool
	temporal     WorkflowClient
	log          *slog.Logger
}

func NewServer(cfg config.Config, d Deps) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Server{
		cfg:          cfg,
		processor:    d.Processor,
		service:      d.Service,
		modelName:    d.ModelName,
		ocrAvailable: d.OCRAvailable,
		temporal:     d.Temporal,
		log:          d.Logger,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)
	r.Use(withCORS)

	r.Get("/healthz", s.handleHealthz)
	r.Post("/documents", s.handleDocument)
	r.Post("/documents/analyze", s.handleDocumentAnalyze)
	r.Post("/analyze", s.handleAnalyze)
	r.Post("/ask", s.handleAsk)
	r.Post("/explain", s.handleExplain)
	r.Post("/batches", s.handleBatchStart)
	r.Get("/batches/{batchID}", s.handleBatchProgress)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
	})
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":                true,
		"model":             s.modelName,
		"demo_mode":         s.cfg.DemoMode,
		"ocr_available":     s.ocrAvailable,
		"batch_available":   s.temporal != nil,
		"supported_formats": extract.SupportedExtensions,
		"max_upload_bytes":  s.cfg.MaxUpload,
		"analysis_types":    analysis.Types,
	})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		writeErr(w, statusForKind(util.KindOf(err)), err)
		return
	}
	rep, err := s.processor.Process(r.Context(), up)
	if err != nil {
		writeErr(w, statusForKind(util.KindOf(err)), err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleDocumentAnalyze(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		writeErr(w, statusForKind(util.KindOf(err)), err)
		return
	}
	t, err := analysis.ParseType(r.FormValue("analysis_type"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	rep, err := s.processor.Process(r.Context(), up)
	if err != nil {
		writeErr(w, statusForKind(util.KindOf(err)), err)
		return
	}
	res := s.service.AnalyzeDocument(r.Context(), rep.Extraction.Text, t)
	code := http.StatusOK
	if !res.Success {
		code = statusForKind(res.ErrorKind)
	}
	writeJSON(w, code, map[string]any{
		"document_id": rep.DocumentID,
		"filename":    rep.Filename,
		"extraction":  rep.Extraction,
		"analysis":    rep.Analysis,
		"quality":     rep.Quality,
		"ai_analysis": res,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text         string `json:"text"`
		AnalysisType string `json:"analysis_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	t, err := analysis.ParseType(req.AnalysisType)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	writeResult(w, s.service.AnalyzeDocument(r.Context(), req.Text, t))
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text     string `json:"text"`
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	writeResult(w, s.service.AnswerQuestion(r.Context(), req.Text, req.Question))
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Clause  string `json:"clause"`
		Context string `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	writeResult(w, s.service.ExplainClause(r.Context(), req.Clause, req.Context))
}

func (s *Server) handleBatchStart(w http.ResponseWriter, r *http.Request) {
	if s.temporal == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("batch analysis is not configured"))
		return
	}
	var req struct {
		InputDir              string `json:"input_dir"`
		AnalysisType          string `json:"analysis_type"`
		MaxConcurrentChildren int    `json:"max_concurrent_children"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	t, err := analysis.ParseType(req.AnalysisType)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	inputDir := strings.TrimSpace(req.InputDir)
	if inputDir == "" {
		inputDir = s.cfg.BatchInputDir
	}
	maxChildren := req.MaxConcurrentChildren
	if maxChildren <= 0 {
		maxChildren = s.cfg.BatchMaxChildren
	}

	batchID := uuid.NewString()
	we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:                    batchWorkflowID(batchID),
		TaskQueue:             s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}, workflows.BatchAnalysisWorkflow, workflows.BatchAnalysisInput{
		BatchID:               batchID,
		InputDir:              inputDir,
		AnalysisType:          t,
		MaxConcurrentChildren: maxChildren,
	})
	if err != nil {
		writeErr(w, http.StatusConflict, err)
		return
	}
	s.log.Info("api.batch.started", "batch_id", batchID, "input_dir", inputDir, "analysis_type", t)
	writeJSON(w, http.StatusAccepted, map[string]any{"batch_id": batchID, "workflow_id": we.GetID(), "run_id": we.GetRunID()})
}

func (s *Server) handleBatchProgress(w http.ResponseWriter, r *http.Request) {
	if s.temporal == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("batch analysis is not configured"))
		return
	}
	batchID := chi.URLParam(r, "batchID")
	resp, err := s.temporal.QueryWorkflow(r.Context(), batchWorkflowID(batchID), "", workflows.QueryGetBatchProgress)
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	var prog workflows.BatchProgress
	if err := resp.Get(&prog); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, prog)
}

// readUpload takes the "file" part, or the first file part when the client
// used another field name.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (document.Upload, error) {
	limit := s.cfg.MaxUpload
	if limit <= 0 {
		limit = document.DefaultMaxFileSize
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return document.Upload{}, util.NewError(util.KindInvalidInput, "File size exceeds maximum allowed (%d bytes)", limit)
		}
		return document.Upload{}, util.WrapError(util.KindInvalidInput, err, "parse multipart")
	}
	fh, ok := firstFile(r.MultipartForm.File)
	if !ok {
		return document.Upload{}, &util.Error{Kind: util.KindInvalidInput, Err: util.ErrEmptyUpload}
	}
	f, err := fh.Open()
	if err != nil {
		return document.Upload{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	// One byte over the limit is enough for the processor to reject it.
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return document.Upload{}, fmt.Errorf("read upload: %w", err)
	}
	return document.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func firstFile(m map[string][]*multipart.FileHeader) (*multipart.FileHeader, bool) {
	if v := m["file"]; len(v) > 0 {
		return v[0], true
	}
	for _, v := range m {
		if len(v) > 0 {
			return v[0], true
		}
	}
	return nil, false
}

func batchWorkflowID(batchID string) string {
	return "batch-" + batchID
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("api.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// writeResult sends an analysis result. Failed results keep the result body
// and take their status from the failure kind.
func writeResult(w http.ResponseWriter, res *analysis.Result) {
	code := http.StatusOK
	if !res.Success {
		code = statusForKind(res.ErrorKind)
	}
	writeJSON(w, code, res)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	body := map[string]any{
		"code":    apiErr.Code,
		"message": apiErr.Message,
	}
	if apiErr.Kind != "" {
		body["kind"] = apiErr.Kind
	}
	writeJSON(w, code, map[string]any{"error": body})
}

func statusForKind(kind util.ErrorKind) int {
	switch kind {
	case util.KindInvalidInput:
		return http.StatusBadRequest
	case util.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case util.KindDecodeFailed, util.KindExtractionFailed, util.KindParseFailure:
		return http.StatusUnprocessableEntity
	case util.KindQuotaExceeded:
		return http.StatusTooManyRequests
	case util.KindAuthentication, util.KindNetwork, util.KindServerError, util.KindMaxRetriesExceeded:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

type apiError struct {
	Code    string
	Message string
	Kind    util.ErrorKind
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "UD-API-4000"
	var kind util.ErrorKind
	var kerr *util.Error
	if errors.As(err, &kerr) {
		kind = kerr.Kind
	}

	switch {
	case status == http.StatusBadGateway:
		return apiError{Code: "UD-API-5020", Message: "AI model backend unavailable. Retry shortly.", Kind: kind}
	case status == http.StatusServiceUnavailable:
		return apiError{Code: "UD-API-5030", Message: "Batch analysis is not configured on this server.", Kind: kind}
	case status >= 500:
		return apiError{Code: "UD-API-5000", Message: "Internal server error. Please retry or check service logs.", Kind: kind}
	case status == http.StatusBadRequest:
		code = "UD-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "UD-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusMethodNotAllowed:
		code = "UD-API-4005"
		msg = "This endpoint does not support the requested method."
	case status == http.StatusConflict:
		code = "UD-API-4009"
		msg = "Operation conflicts with current state. Retry after checking status."
	case status == http.StatusUnsupportedMediaType:
		code = "UD-API-4015"
		msg = "Unsupported file type."
	case status == http.StatusUnprocessableEntity:
		code = "UD-API-4022"
		msg = "The document could not be read."
	case status == http.StatusTooManyRequests:
		code = "UD-API-4029"
		msg = "AI model quota exceeded. Retry later."
	}

	// Kinded 4xx errors carry user-facing messages.
	if kerr != nil && status < 500 {
		msg = err.Error()
	} else if err != nil && strings.Contains(strings.ToLower(err.Error()), "invalid json") {
		msg = "Malformed JSON request body."
	}
	return apiError{Code: code, Message: msg, Kind: kind}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
