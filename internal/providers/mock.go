package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MockProvider returns fixed legal analysis payloads so the service can run
// without model costs.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (m *MockProvider) Available() bool { return true }

func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	_ = ctx
	var payload any
	op := strings.ToLower(req.Operation)
	switch {
	case strings.HasPrefix(op, "ask"):
		payload = mockAnswer(req.Subject)
	case strings.HasPrefix(op, "explain"):
		payload = mockExplanation(req.Subject)
	case strings.HasSuffix(op, "summary"):
		payload = mockSummary
	case strings.HasSuffix(op, "key_points"):
		payload = mockKeyPoints
	case strings.HasSuffix(op, "risks"):
		payload = mockRisks
	default:
		payload = mockComprehensive
	}
	b, _ := json.MarshalIndent(payload, "", "  ")
	text := string(b)
	words := len(strings.Fields(req.Prompt))
	out := len(strings.Fields(text))
	return GenerateResponse{
		Text:  text,
		Usage: Usage{Input: words, Output: out, Total: words + out},
	}, ProviderInfo{Name: "mock", Model: "mock-legal-v1", Key: "mock"}, nil
}

func mockAnswer(question string) map[string]any {
	q := strings.ToLower(question)
	var answer string
	switch {
	case containsAny(q, "payment", "pay", "cost", "fee", "price"):
		answer = "According to this demo document, payment terms are net 30 days from invoice date. Late payments may incur additional fees as specified in the payment terms section."
	case containsAny(q, "termination", "terminate", "end", "cancel"):
		answer = "The termination clause in this demo document requires 30 days written notice from either party. Specific termination conditions are outlined in Section 8 of the agreement."
	case containsAny(q, "liability", "responsible", "damages"):
		answer = "The liability provisions in this demo document limit damages to the amount paid under the agreement. Both parties have indemnification obligations as detailed in the liability section."
	case containsAny(q, "intellectual", "property", "copyright", "patent"):
		answer = "Intellectual property rights in this demo document remain with the original owner. Limited usage rights are granted as specified in the intellectual property clause."
	default:
		answer = fmt.Sprintf("Based on this demo document, the provisions relevant to %q can be found in the main body of the agreement. This is a mock response.", question)
	}
	return map[string]any{
		"direct_answer": answer,
		"relevant_quotes": []map[string]string{
			{"quote": "Section 1: General Terms", "context": "Defines the scope of the agreement"},
		},
		"detailed_explanation":      answer,
		"confidence_level":          "medium",
		"additional_considerations": []string{"This answer was produced in demo mode"},
		"related_sections":          []string{"Section 1: General Terms", "Section 3: Specific Provisions"},
		"actionable_advice":         "Review the referenced sections with legal counsel.",
		"answer_completeness":       "partial",
	}
}

func mockExplanation(clause string) map[string]any {
	if r := []rune(clause); len(r) > 100 {
		clause = string(r[:100]) + "..."
	}
	return map[string]any{
		"plain_language_explanation": fmt.Sprintf("This demo explanation covers the clause %q. In plain language, both parties agree to specific terms that govern their relationship.", clause),
		"key_points": []string{
			"Legal obligation - what must be done",
			"Rights and responsibilities - what each party can and must do",
		},
		"practical_implications": map[string]string{
			"for_party_1":    "Must perform as described in the clause",
			"for_party_2":    "May rely on the first party's performance",
			"general_impact": "Sets expectations for both parties",
		},
		"potential_concerns": []map[string]string{
			{"concern": "Unclear terms could lead to disputes", "severity": "medium", "mitigation": "Clarify definitions in writing"},
		},
		"real_world_examples":    []string{"A supplier delivering goods within the agreed window"},
		"related_legal_concepts": []string{"Consideration", "Breach of contract"},
		"red_flags":              []string{},
		"common_variations":      "Notice periods and remedies vary between agreements.",
		"negotiation_tips":       []string{"Ask for a cure period before termination"},
		"complexity_level":       "moderate",
		"explanation_confidence": "medium",
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

var mockSummary = map[string]any{
	"document_type": "Legal Agreement",
	"parties":       []string{"Party A", "Party B"},
	"purpose":       "Demo summary of an agreement covering obligations, payment terms and dispute resolution.",
	"key_terms":     []string{"Payment terms", "Liability limitations", "Termination conditions"},
	"duration":      "12 months",
	"main_obligations": map[string][]string{
		"party_1_obligations": {"Deliver the services"},
		"party_2_obligations": {"Pay invoices within 30 days"},
	},
	"critical_deadlines": []string{"Renewal notice 60 days before expiry"},
	"financial_summary":  "Monthly fees payable net 30.",
	"confidence_score":   0.92,
}

var mockKeyPoints = map[string]any{
	"critical_clauses": []map[string]string{
		{"clause": "Limitation of liability", "importance": "high", "explanation": "Caps damages at fees paid"},
		{"clause": "Termination for convenience", "importance": "medium", "explanation": "30 days written notice"},
		{"clause": "Governing law", "importance": "low", "explanation": "Sets the applicable jurisdiction"},
	},
	"action_items": []map[string]string{
		{"action": "Calendar the renewal notice date", "responsible_party": "Party B", "deadline": "60 days before expiry", "consequences": "Automatic renewal"},
	},
	"deadlines": []map[string]string{
		{"date": "Net 30", "description": "Invoice payment", "importance": "high"},
	},
	"financial_obligations": []map[string]string{},
	"penalties":             []map[string]string{},
	"special_conditions":    []map[string]string{},
	"confidence_score":      0.9,
}

var mockRisks = map[string]any{
	"overall_risk_assessment": map[string]any{
		"risk_level": "medium",
		"summary":    "Demo risk overview",
		"confidence": 0.85,
	},
	"high_risk_items": []map[string]string{
		{"risk": "Uncapped indemnity", "severity": "high", "likelihood": "medium", "impact": "Unlimited exposure", "mitigation": "Negotiate a cap"},
	},
	"financial_risks": []map[string]string{
		{"risk": "Late payment fees", "potential_cost": "1.5% per month", "probability": "low", "mitigation": "Automate payments"},
	},
	"legal_risks": []map[string]string{
		{"risk": "Foreign governing law", "legal_consequence": "Costly litigation", "severity": "medium", "mitigation": "Agree on arbitration"},
	},
	"operational_risks":     []map[string]string{},
	"compliance_risks":      []map[string]string{},
	"termination_risks":     []map[string]string{},
	"mitigation_strategies": []map[string]any{},
	"confidence_score":      0.85,
}

var mockComprehensive = map[string]any{
	"document_summary": map[string]any{
		"document_type":      "Legal Agreement",
		"parties_involved":   []string{"Party A", "Party B"},
		"main_purpose":       "Demo agreement covering obligations, liability and payment terms",
		"jurisdiction":       "Not specified",
		"effective_date":     "Upon signature",
		"expiration_date":    "12 months after signature",
		"key_subject_matter": "Provision of services",
	},
	"key_provisions": []map[string]string{
		{"section": "Payment", "content": "Net 30 days", "importance": "high", "implications": "Late fees apply"},
	},
	"rights_and_obligations": map[string]any{},
	"risk_assessment": map[string]any{
		"financial_risks":  []map[string]string{{"risk": "Late fees", "severity": "medium", "mitigation": "Pay on time"}},
		"legal_risks":      []map[string]string{{"risk": "Broad indemnity", "severity": "high", "mitigation": "Negotiate a cap"}},
		"compliance_risks": []map[string]string{},
	},
	"important_dates":         []map[string]string{},
	"financial_terms":         map[string]any{"payment_schedule": "Monthly", "currency": "USD"},
	"termination_clauses":     []map[string]string{{"condition": "Convenience", "notice_period": "30 days", "consequences": "Fees due to date"}},
	"dispute_resolution":      map[string]string{"method": "Arbitration"},
	"compliance_requirements": []map[string]string{},
	"recommendations":         []map[string]string{{"priority": "high", "recommendation": "Review indemnity", "reason": "Exposure is uncapped"}},
	"confidence_score":        0.92,
	"analysis_notes":          "Demo mode output",
}
