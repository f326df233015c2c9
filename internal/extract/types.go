// Package extract turns PDF, DOCX and plain-text uploads into cleaned text,
// per-unit records and document metadata.
package extract

import (
	"time"

	"unveildocs/internal/util"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatDOC  Format = "doc"
	FormatTXT  Format = "txt"
)

// SupportedExtensions lists the formats that can be extracted.
var SupportedExtensions = []string{".pdf", ".docx", ".txt"}

type UnitKind string

const (
	UnitPage      UnitKind = "page"
	UnitParagraph UnitKind = "paragraph"
	UnitHeading   UnitKind = "heading"
	UnitTable     UnitKind = "table"
)

// LowYieldChars is the cleaned-length floor below which a PDF page is
// treated as image-only.
const LowYieldChars = 50

// Unit is one page, paragraph, heading or table.
type Unit struct {
	Index     int      `json:"index"`
	Kind      UnitKind `json:"kind"`
	Text      string   `json:"text"`
	CharCount int      `json:"char_count"`
	WordCount int      `json:"word_count"`
	Level     int      `json:"level,omitempty"`
	LowYield  bool     `json:"low_yield,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func newUnit(index int, kind UnitKind, text string) Unit {
	return Unit{
		Index:     index,
		Kind:      kind,
		Text:      text,
		CharCount: len([]rune(text)),
		WordCount: util.CountWords(text),
	}
}

type Hyperlink struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type Metadata struct {
	Title          string     `json:"title,omitempty"`
	Author         string     `json:"author,omitempty"`
	Subject        string     `json:"subject,omitempty"`
	Creator        string     `json:"creator,omitempty"`
	Description    string     `json:"description,omitempty"`
	Keywords       string     `json:"keywords,omitempty"`
	Category       string     `json:"category,omitempty"`
	LastModifiedBy string     `json:"last_modified_by,omitempty"`
	Created        *time.Time `json:"created,omitempty"`
	Modified       *time.Time `json:"modified,omitempty"`

	Filename string `json:"filename,omitempty"`
	Format   Format `json:"format,omitempty"`
	Encoding string `json:"encoding,omitempty"`

	PageCount      int   `json:"page_count,omitempty"`
	ParagraphCount int   `json:"paragraph_count,omitempty"`
	TableCount     int   `json:"table_count,omitempty"`
	HeadingCount   int   `json:"heading_count,omitempty"`
	HyperlinkCount int   `json:"hyperlink_count,omitempty"`
	LineCount      int   `json:"line_count,omitempty"`
	WordCount      int   `json:"word_count"`
	CharCount      int   `json:"char_count"`
	LowYieldPages  []int `json:"low_yield_pages,omitempty"`
	OCRPages       []int `json:"ocr_pages,omitempty"`
}

// Extraction method tags.
const (
	MethodLayout     = "layout"
	MethodStructural = "structural"
	MethodDOCX       = "docx"
	MethodText       = "text"
	MethodFailed     = "failed"
	ocrSuffix        = "+ocr"
)

// Result is the outcome of extracting one upload. RawText holds the
// pre-cleaning text and is only used for quality scoring.
type Result struct {
	Format     Format         `json:"format"`
	Text       string         `json:"text"`
	RawText    string         `json:"-"`
	Units      []Unit         `json:"units"`
	Hyperlinks []Hyperlink    `json:"hyperlinks,omitempty"`
	Metadata   Metadata       `json:"metadata"`
	Method     string         `json:"method"`
	OCRUsed    bool           `json:"ocr_used"`
	Success    bool           `json:"success"`
	Error      string         `json:"error,omitempty"`
	ErrorKind  util.ErrorKind `json:"error_kind,omitempty"`
}

// UnitErrors counts units whose extraction failed.
func (r *Result) UnitErrors() int {
	n := 0
	for _, u := range r.Units {
		if u.Error != "" {
			n++
		}
	}
	return n
}

// Failed builds the single failure result for a document-level error.
func Failed(format Format, err error) *Result {
	return &Result{
		Format:    format,
		Method:    MethodFailed,
		Error:     err.Error(),
		ErrorKind: util.KindOf(err),
	}
}
