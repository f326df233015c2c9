package document

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnalyzeEmpty(t *testing.T) {
	require.Equal(t, TextAnalysis{}, Analyze(""))
}

func TestAnalyzeCounts(t *testing.T) {
	a := Analyze("The Tenant shall pay rent. Payment is due monthly!\n\nContact billing@example.com or 555-123-4567.")
	require.Equal(t, 13, a.WordCount)
	require.Equal(t, 4, a.SentenceCount)
	require.Equal(t, 2, a.ParagraphCount)
	require.Equal(t, 3.25, a.AvgWordsPerSentence)
	require.True(t, a.Language.HasFinancialTerms)
	require.True(t, a.Language.HasEmailAddresses)
	require.True(t, a.Language.HasPhoneNumbers)
	require.False(t, a.Language.HasDates)
}

func TestAnalyzeSentenceFloor(t *testing.T) {
	a := Analyze("no terminal punctuation here")
	require.Equal(t, 1, a.SentenceCount)
	require.Equal(t, 4.0, a.AvgWordsPerSentence)
	require.False(t, a.Language.HasLegalTerms)
}

func TestAnalyzeAddressesAndDates(t *testing.T) {
	a := Analyze("Premises at 221 Baker street, signed 2024-03-01.")
	require.True(t, a.Language.HasAddresses)
	require.True(t, a.Language.HasDates)
}

func TestAnalyzeReadability(t *testing.T) {
	a := Analyze("ABCD indemnification")
	require.Equal(t, 2, a.WordCount)
	require.Equal(t, 9.5, a.Readability.AvgWordLength)
	require.Equal(t, 0.5, a.Readability.ComplexWordRatio)
}
