package document

import (
	"strings"
	"testing"

	"unveildocs/internal/extract"

	"github.com/stretchr/testify/require"
)

func pdfResult(pages int, failed int) *extract.Result {
	res := &extract.Result{Format: extract.FormatPDF, Method: extract.MethodLayout, Success: true}
	var sb strings.Builder
	for i := 0; i < pages; i++ {
		u := extract.Unit{Index: i + 1, Kind: extract.UnitPage, Text: "Tenant agrees to maintain the premises"}
		if i < failed {
			u.Text = ""
			u.Error = "broken content stream"
		}
		sb.WriteString(u.Text + "\n")
		res.Units = append(res.Units, u)
	}
	res.Text = sb.String()
	res.RawText = res.Text
	return res
}

func TestAssessCleanDocument(t *testing.T) {
	q := Assess(pdfResult(4, 0))
	require.Equal(t, 100.0, q.Score)
	require.Equal(t, QualityExcellent, q.Level)
	require.Empty(t, q.Issues)
	require.Empty(t, q.Warnings)
	require.Equal(t, extract.MethodLayout, q.ExtractionMethod)
}

func TestAssessUnitErrorsLowerScore(t *testing.T) {
	prev := 101.0
	for failed := 0; failed <= 4; failed++ {
		q := Assess(pdfResult(4, failed))
		require.LessOrEqual(t, q.Score, prev, "failed=%d", failed)
		require.Equal(t, failed, q.UnitErrorCount)
		prev = q.Score
	}
	q := Assess(pdfResult(4, 2))
	require.Equal(t, 85.0, q.Score)
	require.Contains(t, q.Warnings, "2 pages had extraction errors")
}

func TestAssessEmptyTextAndOCR(t *testing.T) {
	res := &extract.Result{Format: extract.FormatTXT, Text: "", OCRUsed: true}
	q := Assess(res)
	require.Equal(t, 30.0, q.Score)
	require.Equal(t, QualityVeryPoor, q.Level)
	require.Equal(t, []string{"Very little or no text extracted"}, q.Issues)
}

func TestAssessSpecialCharsAndShortWords(t *testing.T) {
	raw := "a b c d e f g h ~~~~ |||| ^^^^ <<<<"
	res := &extract.Result{Format: extract.FormatTXT, Text: "a b c d e f g h", RawText: raw}
	q := Assess(res)
	require.Equal(t, 75.0, q.Score)
	require.Equal(t, QualityGood, q.Level)
	require.Contains(t, q.Warnings, "High number of special characters detected")
	require.Contains(t, q.Warnings, "Unusually short average word length")
}

func TestAssessNeverNegative(t *testing.T) {
	res := &extract.Result{Format: extract.FormatPDF, Text: "~", RawText: "~~~~", OCRUsed: true,
		Units: []extract.Unit{{Error: "x"}}}
	q := Assess(res)
	require.Equal(t, 0.0, q.Score)
}

func TestLevelThresholds(t *testing.T) {
	require.Equal(t, QualityExcellent, levelFor(90))
	require.Equal(t, QualityGood, levelFor(75))
	require.Equal(t, QualityFair, levelFor(60))
	require.Equal(t, QualityPoor, levelFor(40))
	require.Equal(t, QualityVeryPoor, levelFor(39.9))
}
