package workflows

import "unveildocs/internal/analysis"

type BatchAnalysisInput struct {
	BatchID               string        `json:"batch_id"`
	InputDir              string        `json:"input_dir"`
	AnalysisType          analysis.Type `json:"analysis_type"`
	MaxConcurrentChildren int           `json:"max_concurrent_children"`
}

type DocumentAnalysisInput struct {
	BatchID      string        `json:"batch_id"`
	Path         string        `json:"path"`
	AnalysisType analysis.Type `json:"analysis_type"`
}

type DocumentStatus struct {
	DocumentID   string            `json:"document_id"`
	Path         string            `json:"path"`
	CurrentStep  string            `json:"current_step"`
	Status       string            `json:"status"`
	FailReason   string            `json:"fail_reason,omitempty"`
	ErrorKind    string            `json:"error_kind,omitempty"`
	Method       string            `json:"method,omitempty"`
	QualityLevel string            `json:"quality_level,omitempty"`
	Model        string            `json:"model_used,omitempty"`
	Steps        map[string]string `json:"steps"`
}

type BatchProgress struct {
	BatchID       string            `json:"batch_id"`
	AnalysisType  analysis.Type     `json:"analysis_type"`
	Total         int               `json:"total"`
	Done          int               `json:"done"`
	Failed        int               `json:"failed"`
	PerDocument   map[string]string `json:"per_document_status"`
	ChildWorkflow map[string]string `json:"child_workflow_ids,omitempty"`
}
