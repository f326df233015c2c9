package analysis

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"unveildocs/internal/providers"
	"unveildocs/internal/retry"
	"unveildocs/internal/util"

	"github.com/google/uuid"
)

const (
	minDocumentChars        = 10
	defaultMaxDocumentChars = 100000
	defaultMaxQuestionChars = 8000
	truncationMarker        = "...[TRUNCATED]"
)

// CallRecord describes one finished model call for auditing.
type CallRecord struct {
	ID           string
	Operation    string
	AnalysisType Type
	Provider     string
	Model        string
	Attempts     int
	Success      bool
	ErrorKind    util.ErrorKind
	Usage        providers.Usage
	Duration     time.Duration
	CreatedAt    time.Time
}

type CallRecorder interface {
	RecordCall(ctx context.Context, rec CallRecord) error
}

type Config struct {
	Model            providers.LLMProvider
	Retry            retry.Policy
	MaxDocumentChars int
	MaxQuestionChars int
	// Recorder is optional. Recording failures are logged and ignored.
	Recorder CallRecorder
	Logger   *slog.Logger
}

// Service runs prompt building, the model call under retry, parsing and
// validation for every analysis operation. One Service is shared by all
// requests.
type Service struct {
	model     providers.LLMProvider
	policy    retry.Policy
	maxDoc    int
	maxCtx    int
	recorder  CallRecorder
	validator *Validator
	log       *slog.Logger
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Model == nil {
		return nil, util.ErrNoModelAvailable
	}
	if cfg.MaxDocumentChars <= 0 {
		cfg.MaxDocumentChars = defaultMaxDocumentChars
	}
	if cfg.MaxQuestionChars <= 0 {
		cfg.MaxQuestionChars = defaultMaxQuestionChars
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Retry.Classify == nil {
		cfg.Retry.Classify = providers.ClassifyError
	}
	if cfg.Retry.Logger == nil {
		cfg.Retry.Logger = cfg.Logger
	}
	v, err := NewValidator()
	if err != nil {
		return nil, err
	}
	return &Service{
		model:     cfg.Model,
		policy:    cfg.Retry,
		maxDoc:    cfg.MaxDocumentChars,
		maxCtx:    cfg.MaxQuestionChars,
		recorder:  cfg.Recorder,
		validator: v,
		log:       cfg.Logger,
	}, nil
}

// AnalyzeDocument asks the model for a structured analysis of text. Text
// shorter than ten characters fails without a model call.
func (s *Service) AnalyzeDocument(ctx context.Context, text string, t Type) *Result {
	res := &Result{AnalysisType: t, Payload: map[string]any{}}
	if len([]rune(strings.TrimSpace(text))) < minDocumentChars {
		return res.fail(util.NewError(util.KindInvalidInput, "Document text is too short or empty"))
	}
	if _, ok := analysisSchemas[t]; !ok {
		return res.fail(util.NewError(util.KindInvalidInput, "unknown analysis type %q", t))
	}
	body, truncated := truncate(text, s.maxDoc, truncationMarker)
	if truncated {
		s.log.Warn("analysis.truncated", "chars", len([]rune(text)), "limit", s.maxDoc)
	}
	stats := &DocumentStats{OriginalLength: len([]rune(text)), WasTruncated: truncated}
	stats.AnalyzedLength = stats.OriginalLength
	if truncated {
		stats.AnalyzedLength = s.maxDoc
	}
	res.DocumentStats = stats
	req := providers.GenerateRequest{Operation: "analyze:" + string(t), Prompt: BuildAnalysisPrompt(t, body)}
	return s.run(ctx, res, t, req)
}

// AnswerQuestion answers a question using at most the configured prefix of
// the document as context.
func (s *Service) AnswerQuestion(ctx context.Context, text, question string) *Result {
	res := &Result{AnalysisType: opAsk, Question: question, Payload: map[string]any{}}
	if strings.TrimSpace(question) == "" {
		return res.fail(util.NewError(util.KindInvalidInput, "Question is required"))
	}
	if len([]rune(strings.TrimSpace(text))) < minDocumentChars {
		return res.fail(util.NewError(util.KindInvalidInput, "Document text is too short or empty"))
	}
	docContext, _ := truncate(text, s.maxCtx, "...")
	req := providers.GenerateRequest{Operation: string(opAsk), Prompt: BuildQuestionPrompt(docContext, question), Subject: question}
	return s.run(ctx, res, opAsk, req)
}

// ExplainClause restates a clause in plain language. extra is optional
// surrounding context.
func (s *Service) ExplainClause(ctx context.Context, clause, extra string) *Result {
	res := &Result{AnalysisType: opExplain, Clause: clause, Payload: map[string]any{}}
	if strings.TrimSpace(clause) == "" {
		return res.fail(util.NewError(util.KindInvalidInput, "Clause text is required"))
	}
	req := providers.GenerateRequest{Operation: string(opExplain), Prompt: BuildClausePrompt(clause, extra), Subject: clause}
	return s.run(ctx, res, opExplain, req)
}

type generation struct {
	resp providers.GenerateResponse
	info providers.ProviderInfo
}

func (s *Service) run(ctx context.Context, res *Result, t Type, req providers.GenerateRequest) *Result {
	start := time.Now()
	gen, out, err := retry.Do(ctx, s.policy, func(ctx context.Context, attempt int) (generation, error) {
		s.log.Debug("analysis.attempt", "operation", req.Operation, "attempt", attempt)
		// A started call is never cut short; partial output cannot be parsed.
		resp, info, err := s.model.Generate(context.WithoutCancel(ctx), req)
		res.Provider, res.ModelUsed = info.Name, info.Model
		return generation{resp: resp, info: info}, err
	})
	res.Attempts = out.Attempts
	res.ProcessingTime = roundSeconds(time.Since(start))
	defer s.record(ctx, req.Operation, t, res, time.Since(start))

	if err != nil {
		s.log.Warn("analysis.failed", "operation", req.Operation, "attempts", out.Attempts, "kind", util.KindOf(err), "error", err)
		return res.fail(err)
	}

	parsed := ParseResponse(gen.resp.Text)
	if parsed.Kind != ParseStructured {
		s.log.Warn("analysis.parse_fallback", "operation", req.Operation, "kind", util.KindParseFailure, "method", parsed.Kind, "error", parsed.Err)
	}
	res.Success = true
	res.Payload = s.validator.Validate(t, parsed)
	res.ParseMethod = parsed.Kind
	res.RawResponse = gen.resp.Text
	res.TokenUsage = gen.resp.Usage
	res.Provider, res.ModelUsed = gen.info.Name, gen.info.Model
	s.log.Info("analysis.done", "operation", req.Operation, "model", res.ModelUsed, "attempts", out.Attempts, "parse", parsed.Kind, "seconds", res.ProcessingTime)
	return res
}

func (s *Service) record(ctx context.Context, op string, t Type, res *Result, d time.Duration) {
	if s.recorder == nil {
		return
	}
	rec := CallRecord{
		ID:           uuid.NewString(),
		Operation:    op,
		AnalysisType: t,
		Provider:     res.Provider,
		Model:        res.ModelUsed,
		Attempts:     res.Attempts,
		Success:      res.Success,
		ErrorKind:    res.ErrorKind,
		Usage:        res.TokenUsage,
		Duration:     d,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.recorder.RecordCall(context.WithoutCancel(ctx), rec); err != nil {
		s.log.Warn("analysis.record_failed", "operation", op, "error", err)
	}
}

// truncate cuts s to limit runes and appends marker when it had to.
func truncate(s string, limit int, marker string) (string, bool) {
	r := []rune(s)
	if len(r) <= limit {
		return s, false
	}
	return string(r[:limit]) + marker, true
}

func roundSeconds(d time.Duration) float64 {
	return float64(d.Round(10*time.Millisecond)) / float64(time.Second)
}
