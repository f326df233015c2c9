package document

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

var (
	legalTerms = []string{
		"agreement", "contract", "clause", "provision", "party", "whereas",
		"hereby", "therefore", "liability", "indemnify", "terminate",
	}
	financialTerms = []string{
		"payment", "fee", "cost", "price", "amount", "currency", "dollar",
		"invoice", "billing", "compensation",
	}

	dateRe    = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b|\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`)
	addressRe = regexp.MustCompile(`(?i)\b\d+\s+[A-Za-z\s]+(?:Street|St|Avenue|Ave|Road|Rd|Drive|Dr|Lane|Ln)\b`)
	phoneRe   = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
	emailRe   = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

type Readability struct {
	AvgWordLength    float64 `json:"avg_word_length"`
	ComplexWordRatio float64 `json:"complex_word_ratio"`
	UppercaseRatio   float64 `json:"uppercase_ratio"`
}

type LanguageFlags struct {
	HasLegalTerms     bool `json:"has_legal_terms"`
	HasFinancialTerms bool `json:"has_financial_terms"`
	HasDates          bool `json:"has_dates"`
	HasAddresses      bool `json:"has_addresses"`
	HasPhoneNumbers   bool `json:"has_phone_numbers"`
	HasEmailAddresses bool `json:"has_email_addresses"`
}

type TextAnalysis struct {
	WordCount           int           `json:"word_count"`
	CharCount           int           `json:"char_count"`
	SentenceCount       int           `json:"sentence_count"`
	ParagraphCount      int           `json:"paragraph_count"`
	AvgWordsPerSentence float64       `json:"avg_words_per_sentence"`
	Readability         Readability   `json:"readability_indicators"`
	Language            LanguageFlags `json:"language_characteristics"`
}

// Analyze computes counts, readability indicators and vocabulary flags. It
// depends only on text.
func Analyze(text string) TextAnalysis {
	if text == "" {
		return TextAnalysis{}
	}
	words := strings.Fields(text)
	chars := 0
	upper := 0
	for _, r := range text {
		chars++
		if unicode.IsUpper(r) {
			upper++
		}
	}

	sentences := strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?")
	if sentences < 1 {
		sentences = 1
	}
	paragraphs := 0
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs++
		}
	}

	a := TextAnalysis{
		WordCount:      len(words),
		CharCount:      chars,
		SentenceCount:  sentences,
		ParagraphCount: paragraphs,
	}
	a.AvgWordsPerSentence = round(float64(len(words))/float64(sentences), 2)
	if len(words) > 0 {
		total, complexWords := 0, 0
		for _, w := range words {
			n := len([]rune(w))
			total += n
			if n > 6 {
				complexWords++
			}
		}
		a.Readability.AvgWordLength = round(float64(total)/float64(len(words)), 2)
		a.Readability.ComplexWordRatio = round(float64(complexWords)/float64(len(words)), 3)
	}
	a.Readability.UppercaseRatio = round(float64(upper)/float64(chars), 3)

	lower := strings.ToLower(text)
	a.Language = LanguageFlags{
		HasLegalTerms:     containsAny(lower, legalTerms),
		HasFinancialTerms: containsAny(lower, financialTerms),
		HasDates:          dateRe.MatchString(text),
		HasAddresses:      addressRe.MatchString(text),
		HasPhoneNumbers:   phoneRe.MatchString(text),
		HasEmailAddresses: emailRe.MatchString(text),
	}
	return a
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
