package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"unveildocs/internal/ocr"
	"unveildocs/internal/textclean"
	"unveildocs/internal/util"
)

// OCR thresholds. The layout path only repairs a minority of pages; a
// document that is mostly image-only goes to the basic path, which OCRs the
// whole file once enough pages are empty.
const (
	layoutOCRCeiling = 0.8
	basicOCRFloor    = 0.3
)

// PDFExtractor prefers Layout and falls back to Structural. Either engine
// may be nil.
type PDFExtractor struct {
	Layout     PageEngine
	Structural PageEngine
	OCR        ocr.Engine
	Logger     *slog.Logger
}

func (x *PDFExtractor) logger() *slog.Logger {
	if x.Logger == nil {
		return slog.Default()
	}
	return x.Logger
}

func (x *PDFExtractor) ocrAvailable() bool {
	return x.OCR != nil && x.OCR.Available()
}

// pageRun is the outcome of one engine pass over every page.
type pageRun struct {
	method string
	units  []Unit
	raw    []string
	low    []int
	info   Metadata
}

func (r *pageRun) lowFraction() float64 {
	if len(r.units) == 0 {
		return 1
	}
	return float64(len(r.low)) / float64(len(r.units))
}

// Extract never aborts on a single page failure. Cancellation is checked
// between pages.
func (x *PDFExtractor) Extract(ctx context.Context, data []byte) (*Result, error) {
	log := x.logger()

	layout, layoutErr := x.run(ctx, x.Layout, data)
	if layoutErr != nil && ctx.Err() != nil {
		return x.cancelled(ctx)
	}
	if layoutErr == nil && (!x.ocrAvailable() || layout.lowFraction() < layoutOCRCeiling) {
		runOCR := x.ocrAvailable() && len(layout.low) > 0
		return x.finish(ctx, data, layout, runOCR, layout.low)
	}
	if layoutErr != nil {
		log.Warn("extract.pdf.layout_failed", "error", layoutErr)
	} else {
		log.Info("extract.pdf.mostly_low_yield", "low_pages", len(layout.low), "pages", len(layout.units))
	}

	basic, basicErr := x.run(ctx, x.Structural, data)
	if basicErr != nil {
		if ctx.Err() != nil {
			return x.cancelled(ctx)
		}
		if layoutErr != nil {
			err := util.WrapError(util.KindExtractionFailed, basicErr, "pdf extraction failed")
			log.Error("extract.pdf.failed", "layout_error", layoutErr, "structural_error", basicErr)
			return Failed(FormatPDF, err), err
		}
		log.Warn("extract.pdf.structural_failed", "error", basicErr)
		basic = layout
	}

	wholeDoc := x.ocrAvailable() && len(basic.low) > 0 && basic.lowFraction() >= basicOCRFloor
	return x.finish(ctx, data, basic, wholeDoc, nil)
}

func (x *PDFExtractor) cancelled(ctx context.Context) (*Result, error) {
	err := util.WrapError(util.KindUnknown, ctx.Err(), util.ErrRequestCancelled.Error())
	return Failed(FormatPDF, err), err
}

func (x *PDFExtractor) run(ctx context.Context, engine PageEngine, data []byte) (*pageRun, error) {
	if engine == nil || !engine.Available() {
		return nil, fmt.Errorf("pdf engine unavailable")
	}
	src, err := engine.Open(data)
	if err != nil {
		return nil, err
	}
	n := src.NumPages()
	if n <= 0 {
		return nil, fmt.Errorf("%s: document has no pages", engine.Name())
	}
	run := &pageRun{method: engine.Name(), info: src.Info()}
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, perr := src.PageText(i)
		text := textclean.Clean(raw)
		u := newUnit(i-1, UnitPage, text)
		if perr != nil {
			u.Error = perr.Error()
			x.logger().Warn("extract.pdf.page_failed", "engine", engine.Name(), "page", i, "error", perr)
		}
		if perr != nil || u.CharCount < LowYieldChars {
			u.LowYield = true
			run.low = append(run.low, i)
		}
		run.units = append(run.units, u)
		run.raw = append(run.raw, raw)
	}
	return run, nil
}

// finish assembles the page text and, when runOCR is set, appends OCR text
// for pages (nil meaning the whole document).
func (x *PDFExtractor) finish(ctx context.Context, data []byte, run *pageRun, runOCR bool, pages []int) (*Result, error) {
	res := x.assemble(run)
	if runOCR {
		x.appendOCR(ctx, data, res, pages)
		if ctx.Err() != nil {
			return x.cancelled(ctx)
		}
	}
	return res, nil
}

func (x *PDFExtractor) assemble(run *pageRun) *Result {
	var b strings.Builder
	for _, u := range run.units {
		fmt.Fprintf(&b, "\n--- Page %d ---\n%s\n", u.Index+1, u.Text)
	}
	md := run.info
	md.Format = FormatPDF
	md.PageCount = len(run.units)
	md.LowYieldPages = run.low
	res := &Result{
		Format:   FormatPDF,
		Text:     strings.TrimSpace(b.String()),
		RawText:  strings.Join(run.raw, "\n"),
		Units:    run.units,
		Metadata: md,
		Method:   run.method,
		Success:  true,
	}
	res.Metadata.WordCount = sumWords(run.units)
	res.Metadata.CharCount = len([]rune(res.Text))
	return res
}

// appendOCR adds recognised text after the extracted pages. OCR failure
// leaves the extracted text as it was.
func (x *PDFExtractor) appendOCR(ctx context.Context, data []byte, res *Result, pages []int) {
	log := x.logger()
	log.Info("extract.pdf.ocr", "pages", pages, "whole_document", pages == nil)
	out, err := x.OCR.Recognize(ctx, data, pages)
	if err != nil {
		log.Warn("extract.pdf.ocr_failed", "error", err)
		return
	}
	var b strings.Builder
	words := 0
	for _, p := range out {
		if p.Err != "" {
			log.Warn("extract.pdf.ocr_page_failed", "page", p.Number, "error", p.Err)
			continue
		}
		text := textclean.Clean(p.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "\n--- OCR Page %d ---\n%s\n", p.Number, text)
		res.Metadata.OCRPages = append(res.Metadata.OCRPages, p.Number)
		res.RawText += "\n" + p.Text
		words += util.CountWords(text)
	}
	if b.Len() == 0 {
		return
	}
	res.Text = strings.TrimSpace(res.Text + "\n\n--- OCR Results ---\n" + b.String())
	res.OCRUsed = true
	res.Method += ocrSuffix
	res.Metadata.WordCount += words
	res.Metadata.CharCount = len([]rune(res.Text))
}

func sumWords(units []Unit) int {
	n := 0
	for _, u := range units {
		n += u.WordCount
	}
	return n
}
