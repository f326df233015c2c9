package activities

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"unveildocs/internal/analysis"
	"unveildocs/internal/document"
	"unveildocs/internal/extract"
	"unveildocs/internal/util"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
)

type Activities struct {
	outRoot   string
	processor *document.Processor
	service   *analysis.Service
	recorder  analysis.CallRecorder
	log       *slog.Logger
}

// New wires the batch activities. recorder may be nil when auditing is off.
func New(outRoot string, p *document.Processor, s *analysis.Service, recorder analysis.CallRecorder, logger *slog.Logger) *Activities {
	if logger == nil {
		logger = slog.Default()
	}
	return &Activities{outRoot: outRoot, processor: p, service: s, recorder: recorder, log: logger}
}

func (a *Activities) ListDocumentsActivity(ctx context.Context, in ListDocumentsInput) (ListDocumentsOutput, error) {
	_ = ctx
	entries, err := os.ReadDir(in.InputDir)
	if err != nil {
		return ListDocumentsOutput{}, fmt.Errorf("read input dir: %w", err)
	}
	supported := map[string]bool{}
	for _, ext := range extract.SupportedExtensions {
		supported[ext] = true
	}
	paths := make([]string, 0)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if supported[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(in.InputDir, e.Name()))
		}
	}
	sort.Strings(paths)
	return ListDocumentsOutput{Paths: paths}, nil
}

func (a *Activities) ProcessDocumentActivity(ctx context.Context, in ProcessDocumentInput) (ProcessDocumentOutput, error) {
	data, err := os.ReadFile(in.Path)
	if err != nil {
		return ProcessDocumentOutput{}, fmt.Errorf("read document: %w", err)
	}
	out := ProcessDocumentOutput{Filename: filepath.Base(in.Path)}
	rep, err := a.processor.Process(ctx, document.Upload{Filename: out.Filename, Data: data})
	if rep != nil {
		out.DocumentID = rep.DocumentID
	}
	if err != nil {
		if ctx.Err() != nil {
			return ProcessDocumentOutput{}, ctx.Err()
		}
		out.ErrorKind = string(util.KindOf(err))
		out.Error = err.Error()
		a.log.Warn("activities.process.failed", "path", in.Path, "kind", out.ErrorKind, "error", err)
		return out, nil
	}

	res := rep.Extraction
	out.Success = true
	out.Text = res.Text
	out.Method = res.Method
	out.OCRUsed = res.OCRUsed
	out.WordCount = res.Metadata.WordCount
	out.QualityScore = rep.Quality.Score
	out.QualityLevel = string(rep.Quality.Level)

	path := a.reportPath(in.BatchID, rep.DocumentID, "extraction.json")
	if err := util.WriteJSONAtomic(path, rep); err != nil {
		return ProcessDocumentOutput{}, fmt.Errorf("write extraction report: %w", err)
	}
	out.ReportPath = path
	return out, nil
}

// AnalyzeDocumentActivity returns failed analyses as results. Only
// cancellation surfaces as an error, and it is never retried.
func (a *Activities) AnalyzeDocumentActivity(ctx context.Context, in AnalyzeDocumentInput) (AnalyzeDocumentOutput, error) {
	res := a.service.AnalyzeDocument(ctx, in.Text, in.AnalysisType)
	if !res.Success && ctx.Err() != nil {
		return AnalyzeDocumentOutput{}, temporal.NewNonRetryableApplicationError("analysis cancelled", string(res.ErrorKind), ctx.Err())
	}
	return AnalyzeDocumentOutput{Result: res}, nil
}

func (a *Activities) WriteReportActivity(ctx context.Context, in WriteReportInput) (WriteReportOutput, error) {
	_ = ctx
	path := a.reportPath(in.BatchID, in.DocumentID, in.Name)
	if err := util.WriteJSONAtomic(path, in.Payload); err != nil {
		return WriteReportOutput{}, err
	}
	return WriteReportOutput{Path: path}, nil
}

// RecordAnalysisActivity writes the audit row for a batch analysis. It is a
// no-op when no recorder is configured.
func (a *Activities) RecordAnalysisActivity(ctx context.Context, in RecordAnalysisInput) error {
	if a.recorder == nil || in.Result == nil {
		return nil
	}
	r := in.Result
	return a.recorder.RecordCall(ctx, analysis.CallRecord{
		ID:           uuid.NewString(),
		Operation:    "batch:" + in.BatchID + ":" + string(in.AnalysisType),
		AnalysisType: in.AnalysisType,
		Provider:     r.Provider,
		Model:        r.ModelUsed,
		Attempts:     r.Attempts,
		Success:      r.Success,
		ErrorKind:    r.ErrorKind,
		Usage:        r.TokenUsage,
		Duration:     time.Duration(r.ProcessingTime * float64(time.Second)),
		CreatedAt:    time.Now().UTC(),
	})
}

func (a *Activities) reportPath(batchID, documentID, name string) string {
	parts := []string{a.outRoot, safeSegment(batchID)}
	if documentID != "" {
		parts = append(parts, safeSegment(documentID))
	}
	return filepath.Join(append(parts, filepath.Base(name))...)
}

func safeSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "_"
	}
	return strings.NewReplacer("/", "-", "\\", "-", "..", "-").Replace(s)
}
