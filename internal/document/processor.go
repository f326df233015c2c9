package document

import (
	"context"
	"log/slog"
	"strings"

	"unveildocs/internal/extract"
	"unveildocs/internal/ocr"
	"unveildocs/internal/util"
)

const DefaultMaxFileSize int64 = 10 << 20

type Config struct {
	MaxFileSize int64
	OCR         ocr.Engine
	// PDF overrides the default layout-then-structural extractor.
	PDF    *extract.PDFExtractor
	Logger *slog.Logger
}

// Upload is one submitted file.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Report is the full result of processing an upload. Analysis and Quality
// are zero when extraction failed.
type Report struct {
	DocumentID string          `json:"document_id"`
	Filename   string          `json:"filename"`
	Extraction *extract.Result `json:"extraction"`
	Analysis   TextAnalysis    `json:"analysis"`
	Quality    *QualityReport  `json:"quality,omitempty"`
}

type Processor struct {
	maxSize int64
	pdf     *extract.PDFExtractor
	log     *slog.Logger
}

func NewProcessor(cfg Config) *Processor {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.OCR == nil {
		cfg.OCR = ocr.Noop{}
	}
	pdf := cfg.PDF
	if pdf == nil {
		pdf = &extract.PDFExtractor{
			Layout:     extract.LayoutEngine{},
			Structural: extract.StructuralEngine{},
			OCR:        cfg.OCR,
			Logger:     cfg.Logger,
		}
	}
	return &Processor{maxSize: cfg.MaxFileSize, pdf: pdf, log: cfg.Logger}
}

// Process validates, extracts, analyses and scores an upload. The returned
// report is non-nil whenever validation passed, including on extraction
// failure; err carries the failure kind.
func (p *Processor) Process(ctx context.Context, up Upload) (*Report, error) {
	if err := p.validate(up); err != nil {
		return nil, err
	}
	rep := &Report{DocumentID: util.SHA256Hex(up.Data), Filename: up.Filename}

	format, err := extract.DetectFormat(up.Filename, up.ContentType, up.Data)
	if err != nil {
		p.log.Warn("document.unsupported", "filename", up.Filename, "error", err)
		rep.Extraction = extract.Failed(format, err)
		return rep, err
	}

	var res *extract.Result
	switch format {
	case extract.FormatPDF:
		res, err = p.pdf.Extract(ctx, up.Data)
	case extract.FormatDOCX:
		res, err = extract.ExtractDOCX(up.Data)
	default:
		res, err = extract.ExtractTXT(up.Data)
	}
	res.Metadata.Filename = up.Filename
	res.Metadata.Format = format
	rep.Extraction = res
	if err != nil {
		p.log.Warn("document.extract_failed", "filename", up.Filename, "format", format, "kind", util.KindOf(err), "error", err)
		return rep, err
	}

	rep.Analysis = Analyze(res.Text)
	q := Assess(res)
	rep.Quality = &q
	p.log.Info("document.processed",
		"filename", up.Filename,
		"format", format,
		"method", res.Method,
		"words", res.Metadata.WordCount,
		"quality", q.Score,
	)
	return rep, nil
}

func (p *Processor) validate(up Upload) error {
	if strings.TrimSpace(up.Filename) == "" {
		return &util.Error{Kind: util.KindInvalidInput, Err: util.ErrMissingFilename}
	}
	if int64(len(up.Data)) > p.maxSize {
		return util.NewError(util.KindInvalidInput,
			"File size (%d bytes) exceeds maximum allowed (%d bytes)", len(up.Data), p.maxSize)
	}
	if len(up.Data) == 0 {
		return &util.Error{Kind: util.KindInvalidInput, Err: util.ErrEmptyUpload}
	}
	return nil
}
