package document

import (
	"fmt"
	"strings"

	"unveildocs/internal/extract"
	"unveildocs/internal/textclean"
)

type QualityLevel string

const (
	QualityExcellent QualityLevel = "excellent"
	QualityGood      QualityLevel = "good"
	QualityFair      QualityLevel = "fair"
	QualityPoor      QualityLevel = "poor"
	QualityVeryPoor  QualityLevel = "very_poor"
)

type QualityReport struct {
	Score            float64      `json:"score"`
	Level            QualityLevel `json:"level"`
	Issues           []string     `json:"issues"`
	Warnings         []string     `json:"warnings"`
	ExtractionMethod string       `json:"extraction_method"`
	OCRUsed          bool         `json:"ocr_used"`
	UnitErrorCount   int          `json:"unit_error_count"`
}

// Assess scores extraction fidelity from 100 downwards. The score never
// drops below zero and never rises when a unit error is added.
func Assess(res *extract.Result) QualityReport {
	q := QualityReport{
		Issues:           []string{},
		Warnings:         []string{},
		ExtractionMethod: res.Method,
		OCRUsed:          res.OCRUsed,
		UnitErrorCount:   res.UnitErrors(),
	}
	score := 100.0

	if len([]rune(strings.TrimSpace(res.Text))) < 10 {
		score -= 50
		q.Issues = append(q.Issues, "Very little or no text extracted")
	}
	if res.OCRUsed {
		score -= 20
		q.Warnings = append(q.Warnings, "OCR was used - text accuracy may be lower")
	}
	if n := len(res.Units); n > 0 && q.UnitErrorCount > 0 {
		score -= float64(q.UnitErrorCount) / float64(n) * 30
		label := "units"
		if res.Format == extract.FormatPDF {
			label = "pages"
		}
		q.Warnings = append(q.Warnings, fmt.Sprintf("%d %s had extraction errors", q.UnitErrorCount, label))
	}

	raw := res.RawText
	if raw == "" {
		raw = res.Text
	}
	if specialCharRatio(raw) > 0.1 {
		score -= 15
		q.Warnings = append(q.Warnings, "High number of special characters detected")
	}
	if words := strings.Fields(res.Text); len(words) > 0 {
		total := 0
		for _, w := range words {
			total += len([]rune(w))
		}
		if float64(total)/float64(len(words)) < 3 {
			score -= 10
			q.Warnings = append(q.Warnings, "Unusually short average word length")
		}
	}

	if score < 0 {
		score = 0
	}
	q.Score = round(score, 2)
	q.Level = levelFor(q.Score)
	return q
}

func levelFor(score float64) QualityLevel {
	switch {
	case score >= 90:
		return QualityExcellent
	case score >= 75:
		return QualityGood
	case score >= 60:
		return QualityFair
	case score >= 40:
		return QualityPoor
	}
	return QualityVeryPoor
}

// specialCharRatio is the share of runes the cleaner would strip.
func specialCharRatio(s string) float64 {
	total, special := 0, 0
	for _, r := range s {
		total++
		if !textclean.Allowed(r) {
			special++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(special) / float64(total)
}
