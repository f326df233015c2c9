package activities

import "unveildocs/internal/analysis"

type ListDocumentsInput struct {
	InputDir string `json:"input_dir"`
}

type ListDocumentsOutput struct {
	Paths []string `json:"paths"`
}

type ProcessDocumentInput struct {
	BatchID string `json:"batch_id"`
	Path    string `json:"path"`
}

// ProcessDocumentOutput reports extraction failures in-band so the workflow
// can finish the document as failed instead of retrying.
type ProcessDocumentOutput struct {
	DocumentID   string  `json:"document_id"`
	Filename     string  `json:"filename"`
	Success      bool    `json:"success"`
	Text         string  `json:"text,omitempty"`
	Method       string  `json:"method,omitempty"`
	OCRUsed      bool    `json:"ocr_used"`
	WordCount    int     `json:"word_count"`
	QualityScore float64 `json:"quality_score"`
	QualityLevel string  `json:"quality_level,omitempty"`
	ErrorKind    string  `json:"error_kind,omitempty"`
	Error        string  `json:"error,omitempty"`
	ReportPath   string  `json:"report_path,omitempty"`
}

type AnalyzeDocumentInput struct {
	DocumentID   string        `json:"document_id"`
	Text         string        `json:"text"`
	AnalysisType analysis.Type `json:"analysis_type"`
}

type AnalyzeDocumentOutput struct {
	Result *analysis.Result `json:"result"`
}

type WriteReportInput struct {
	BatchID    string `json:"batch_id"`
	DocumentID string `json:"document_id,omitempty"`
	Name       string `json:"name"`
	Payload    any    `json:"payload"`
}

type WriteReportOutput struct {
	Path string `json:"path"`
}

type RecordAnalysisInput struct {
	BatchID      string           `json:"batch_id"`
	DocumentID   string           `json:"document_id"`
	AnalysisType analysis.Type    `json:"analysis_type"`
	Result       *analysis.Result `json:"result"`
}
