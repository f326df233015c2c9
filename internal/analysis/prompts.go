package analysis

import "strings"

const analystPreamble = `You are an expert legal analyst with extensive experience in contract review, legal document analysis, and risk assessment.
Please analyze the following legal document thoroughly and provide insights in a structured JSON format.

Document to analyze:
`

const comprehensiveSchema = `Please provide a comprehensive legal analysis and return it as a valid JSON object with the following structure:

{
  "document_summary": {
    "document_type": "string - type of legal document",
    "parties_involved": ["array of party names"],
    "main_purpose": "string - primary purpose of the document",
    "jurisdiction": "string - governing law/jurisdiction",
    "effective_date": "string - when document takes effect",
    "expiration_date": "string - when document expires",
    "key_subject_matter": "string - what the document is about"
  },
  "key_provisions": [
    {"section": "string - provision title", "content": "string - key content", "importance": "high|medium|low", "implications": "string - what this means"}
  ],
  "rights_and_obligations": {
    "party_1": {"name": "string", "rights": ["array of rights"], "obligations": ["array of obligations"]},
    "party_2": {"name": "string", "rights": ["array of rights"], "obligations": ["array of obligations"]}
  },
  "risk_assessment": {
    "overall_risk_level": "low|medium|high|critical",
    "financial_risks": [{"risk": "string - description", "severity": "low|medium|high|critical", "mitigation": "string - how to reduce risk"}],
    "legal_risks": [{"risk": "string - description", "severity": "low|medium|high|critical", "mitigation": "string - how to reduce risk"}],
    "compliance_risks": [{"risk": "string - description", "severity": "low|medium|high|critical", "mitigation": "string - how to reduce risk"}]
  },
  "important_dates": [
    {"date": "string - date", "description": "string - what happens on this date", "criticality": "low|medium|high|critical"}
  ],
  "financial_terms": {
    "payment_amounts": ["array of payment amounts"],
    "payment_schedule": "string - when payments are due",
    "penalties": ["array of penalty descriptions"],
    "fees": ["array of fee descriptions"],
    "currency": "string - currency used"
  },
  "termination_clauses": [
    {"condition": "string - termination condition", "notice_period": "string - required notice", "consequences": "string - what happens upon termination"}
  ],
  "dispute_resolution": {
    "method": "string - mediation, arbitration, litigation, etc.",
    "jurisdiction": "string - where disputes are resolved",
    "governing_law": "string - which law applies"
  },
  "compliance_requirements": [
    {"requirement": "string - compliance requirement", "responsible_party": "string - who is responsible", "deadline": "string - when it must be done"}
  ],
  "recommendations": [
    {"priority": "high|medium|low", "recommendation": "string - what should be done", "reason": "string - why this is recommended"}
  ],
  "confidence_score": "number between 0 and 1",
  "analysis_notes": "string - any additional important observations"
}

Ensure your response is valid JSON and includes all sections even if some are empty arrays or null values.`

const summarySchema = `Please provide a concise document summary as a valid JSON object:

{
  "document_type": "string - type of document",
  "parties": ["array of main parties"],
  "purpose": "string - main purpose",
  "key_terms": ["array of most important terms"],
  "duration": "string - how long agreement lasts",
  "main_obligations": {
    "party_1_obligations": ["array"],
    "party_2_obligations": ["array"]
  },
  "critical_deadlines": ["array of important dates"],
  "financial_summary": "string - overview of financial terms",
  "confidence_score": "number between 0 and 1"
}`

const keyPointsSchema = `Please extract key points as a valid JSON object:

{
  "critical_clauses": [
    {"clause": "string - clause text or reference", "importance": "high|medium|low", "explanation": "string - why this is important"}
  ],
  "action_items": [
    {"action": "string - what needs to be done", "responsible_party": "string - who does it", "deadline": "string - when it's due", "consequences": "string - what happens if not done"}
  ],
  "deadlines": [
    {"date": "string", "description": "string", "importance": "high|medium|low"}
  ],
  "financial_obligations": [
    {"amount": "string", "due_date": "string", "responsible_party": "string", "consequences_of_default": "string"}
  ],
  "penalties": [
    {"trigger": "string - what causes penalty", "penalty": "string - what the penalty is", "amount": "string - penalty amount if specified"}
  ],
  "special_conditions": [
    {"condition": "string", "implication": "string"}
  ]
}`

const risksSchema = `Please identify and assess risks as a valid JSON object:

{
  "overall_risk_assessment": {
    "risk_level": "low|medium|high|critical",
    "summary": "string - brief risk overview",
    "confidence": "number between 0 and 1"
  },
  "high_risk_items": [
    {"risk": "string - description of risk", "severity": "high|critical", "likelihood": "low|medium|high", "impact": "string - potential consequences", "mitigation": "string - how to reduce/eliminate risk"}
  ],
  "financial_risks": [
    {"risk": "string", "potential_cost": "string", "probability": "low|medium|high", "mitigation": "string"}
  ],
  "legal_risks": [
    {"risk": "string", "legal_consequence": "string", "severity": "low|medium|high|critical", "mitigation": "string"}
  ],
  "operational_risks": [
    {"risk": "string", "business_impact": "string", "mitigation": "string"}
  ],
  "compliance_risks": [
    {"requirement": "string - what must be complied with", "risk_of_non_compliance": "string", "penalties": "string - consequences", "mitigation": "string"}
  ],
  "termination_risks": [
    {"scenario": "string - termination scenario", "risk": "string - what could go wrong", "mitigation": "string"}
  ],
  "mitigation_strategies": [
    {"strategy": "string - mitigation approach", "risks_addressed": ["array of risks this helps with"], "implementation_priority": "high|medium|low"}
  ]
}`

const questionSchema = `Please provide your response in the following JSON format:
{
  "direct_answer": "string - clear, direct answer to the question",
  "relevant_quotes": [
    {"quote": "string - relevant text from document", "context": "string - why this quote is relevant"}
  ],
  "detailed_explanation": "string - comprehensive explanation with context",
  "confidence_level": "high|medium|low - how confident you are in this answer",
  "additional_considerations": ["string - other important points to consider"],
  "related_sections": ["string - other parts of document that may be relevant"],
  "actionable_advice": "string - practical next steps or recommendations if applicable",
  "answer_completeness": "complete|partial|insufficient_info - whether document contains enough info to fully answer"
}

If the question cannot be answered based on the document content, clearly state this in the direct_answer and explain what information would be needed.`

const clauseSchema = `Please provide your explanation in the following JSON format:
{
  "plain_language_explanation": "string - what this clause means in everyday language",
  "key_points": ["string - the most important aspects, one per item"],
  "practical_implications": {
    "for_party_1": "string - how this affects the first party",
    "for_party_2": "string - how this affects the second party",
    "general_impact": "string - overall practical effect"
  },
  "potential_concerns": [
    {"concern": "string - what could be problematic", "severity": "low|medium|high", "mitigation": "string - how to address this concern"}
  ],
  "real_world_examples": ["string - concrete examples of how this clause works in practice"],
  "related_legal_concepts": ["string - other legal concepts this clause relates to"],
  "red_flags": ["string - warning signs or unusual aspects of this clause"],
  "common_variations": "string - how this type of clause typically varies",
  "negotiation_tips": ["string - advice for negotiating this type of clause"],
  "complexity_level": "simple|moderate|complex|very_complex",
  "explanation_confidence": "high|medium|low"
}

Use simple vocabulary and avoid legal jargon. When you must use legal terms, explain them clearly.`

var analysisSchemas = map[Type]string{
	TypeComprehensive: comprehensiveSchema,
	TypeSummary:       summarySchema,
	TypeKeyPoints:     keyPointsSchema,
	TypeRisks:         risksSchema,
}

// BuildAnalysisPrompt embeds the document and the schema for t. Unknown
// types fall back to comprehensive.
func BuildAnalysisPrompt(t Type, documentText string) string {
	schema, ok := analysisSchemas[t]
	if !ok {
		schema = comprehensiveSchema
	}
	return analystPreamble + documentText + "\n\n" + schema
}

func BuildQuestionPrompt(docContext, question string) string {
	var b strings.Builder
	b.WriteString("You are an expert legal analyst. Based on the following legal document, please answer the user's question accurately and comprehensively.\n\n")
	b.WriteString("Document Content:\n")
	b.WriteString(docContext)
	b.WriteString("\n\nUser Question: ")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\n")
	b.WriteString(questionSchema)
	return b.String()
}

func BuildClausePrompt(clause, extra string) string {
	var b strings.Builder
	b.WriteString("You are an expert legal analyst specializing in making complex legal language accessible to non-lawyers.\n")
	b.WriteString("Please explain the following legal clause in clear, simple terms.\n\n")
	b.WriteString("Clause to Explain:\n")
	b.WriteString(strings.TrimSpace(clause))
	b.WriteString("\n\n")
	if c := strings.TrimSpace(extra); c != "" {
		b.WriteString("Additional Context: ")
		b.WriteString(c)
		b.WriteString("\n\n")
	}
	b.WriteString(clauseSchema)
	return b.String()
}
