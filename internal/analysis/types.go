package analysis

import (
	"fmt"
	"strings"

	"unveildocs/internal/providers"
	"unveildocs/internal/util"
)

type Type string

const (
	TypeComprehensive Type = "comprehensive"
	TypeSummary       Type = "summary"
	TypeKeyPoints     Type = "key_points"
	TypeRisks         Type = "risks"
)

// Operations that are not document analyses share the validator.
const (
	opAsk     Type = "ask"
	opExplain Type = "explain"
)

var Types = []Type{TypeComprehensive, TypeSummary, TypeKeyPoints, TypeRisks}

// ParseType accepts an analysis type name. Empty means comprehensive.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TypeComprehensive, nil
	}
	for _, t := range Types {
		if string(t) == s {
			return t, nil
		}
	}
	return "", util.NewError(util.KindInvalidInput, "unknown analysis type %q", s)
}

// DocumentStats sizes are in runes. AnalyzedLength counts the document text
// sent to the model, without the truncation marker.
type DocumentStats struct {
	OriginalLength int  `json:"original_length"`
	AnalyzedLength int  `json:"analyzed_length"`
	WasTruncated   bool `json:"was_truncated"`
}

// Result is the outcome of one analysis, question or explanation call. A
// failed result has Success false plus Error and ErrorKind; it is never
// returned as a Go error.
type Result struct {
	Success        bool            `json:"success"`
	AnalysisType   Type            `json:"analysis_type"`
	Question       string          `json:"question,omitempty"`
	Clause         string          `json:"clause,omitempty"`
	ModelUsed      string          `json:"model_used,omitempty"`
	Provider       string          `json:"provider,omitempty"`
	Payload        map[string]any  `json:"result"`
	ParseMethod    ParseKind       `json:"parse_method,omitempty"`
	RawResponse    string          `json:"raw_response"`
	ProcessingTime float64         `json:"processing_time"`
	TokenUsage     providers.Usage `json:"token_usage"`
	Attempts       int             `json:"attempts"`
	DocumentStats  *DocumentStats  `json:"document_stats,omitempty"`
	Error          string          `json:"error,omitempty"`
	ErrorKind      util.ErrorKind  `json:"error_type,omitempty"`
}

func (r *Result) fail(err error) *Result {
	r.Success = false
	r.Payload = map[string]any{}
	r.Error = err.Error()
	r.ErrorKind = util.KindOf(err)
	return r
}

func (r *Result) String() string {
	if !r.Success {
		return fmt.Sprintf("%s failed (%s): %s", r.AnalysisType, r.ErrorKind, r.Error)
	}
	return fmt.Sprintf("%s via %s in %.2fs", r.AnalysisType, r.ModelUsed, r.ProcessingTime)
}
