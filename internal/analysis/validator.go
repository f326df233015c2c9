package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const defaultConfidence = 0.8

// Confidence assigned to payloads recovered by the looser parse kinds.
var fallbackConfidence = map[ParseKind]float64{
	ParseSectioned: 0.7,
	ParseRaw:       0.5,
}

// requiredKeys lists the top-level keys every payload of a type carries
// after validation, with the empty value used to backfill each.
var requiredKeys = map[Type][]keyDefault{
	TypeComprehensive: {
		{"document_summary", obj}, {"key_provisions", list}, {"rights_and_obligations", obj},
		{"risk_assessment", obj}, {"important_dates", list}, {"financial_terms", obj},
		{"termination_clauses", list}, {"dispute_resolution", obj}, {"compliance_requirements", list},
		{"recommendations", list},
	},
	TypeSummary: {
		{"document_type", str("Unknown Document Type")}, {"parties", list}, {"purpose", str("")},
		{"key_terms", list}, {"duration", str("")}, {"main_obligations", obj},
		{"critical_deadlines", list}, {"financial_summary", str("")},
	},
	TypeKeyPoints: {
		{"critical_clauses", list}, {"action_items", list}, {"deadlines", list},
		{"financial_obligations", list}, {"penalties", list}, {"special_conditions", list},
	},
	TypeRisks: {
		{"high_risk_items", list}, {"financial_risks", list}, {"legal_risks", list},
		{"operational_risks", list}, {"compliance_risks", list}, {"termination_risks", list},
		{"mitigation_strategies", list},
	},
	opAsk: {
		{"direct_answer", str("")}, {"relevant_quotes", list}, {"detailed_explanation", str("")},
		{"confidence_level", str("medium")}, {"additional_considerations", list},
		{"related_sections", list}, {"actionable_advice", str("")}, {"answer_completeness", str("complete")},
	},
	opExplain: {
		{"plain_language_explanation", str("")}, {"key_points", list}, {"practical_implications", obj},
		{"potential_concerns", list}, {"real_world_examples", list}, {"related_legal_concepts", list},
		{"red_flags", list}, {"common_variations", str("")}, {"negotiation_tips", list},
		{"complexity_level", str("moderate")}, {"explanation_confidence", str("medium")},
	},
}

type keyDefault struct {
	key   string
	empty func() any
}

func obj() any  { return map[string]any{} }
func list() any { return []any{} }

func str(s string) func() any { return func() any { return s } }

// Severity scores used to average comprehensive risk items.
var severityScore = map[string]float64{"low": 1, "medium": 2, "high": 3, "critical": 4}

// Validator backfills, enriches and schema-checks parsed model output. It is
// safe for concurrent use.
type Validator struct {
	schemas map[Type]*jsonschema.Schema
	now     func() time.Time
}

func NewValidator() (*Validator, error) {
	v := &Validator{schemas: map[Type]*jsonschema.Schema{}, now: time.Now}
	for t, keys := range requiredKeys {
		required := []string{"confidence_score"}
		for _, k := range keys {
			required = append(required, k.key)
		}
		if t == TypeRisks {
			required = append(required, "overall_risk_assessment")
		}
		schema, err := compileSchema(string(t), map[string]any{
			"type":     "object",
			"required": required,
			"properties": map[string]any{
				"confidence_score": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			},
		})
		if err != nil {
			return nil, err
		}
		v.schemas[t] = schema
	}
	return v, nil
}

func compileSchema(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	url := name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return schema, nil
}

// Validate turns any parse kind into a payload with every required key of
// t and a confidence_score in [0,1]. Missing detail is never an error; a
// schema mismatch that survives backfill is recorded under
// _validation_error.
func (v *Validator) Validate(t Type, p Parsed) map[string]any {
	payload := v.base(t, p)

	if p.Kind == ParseStructured {
		c, ok := payload["confidence_score"].(float64)
		if !ok || c < 0 || c > 1 {
			payload["confidence_score"] = defaultConfidence
		}
	} else {
		payload["parse_method"] = string(p.Kind)
		payload["confidence_score"] = fallbackConfidence[p.Kind]
	}

	for _, k := range requiredKeys[t] {
		if _, ok := payload[k.key]; !ok {
			payload[k.key] = k.empty()
		}
	}
	var problems []string
	switch t {
	case TypeComprehensive:
		if err := enhanceComprehensive(payload); err != nil {
			problems = append(problems, err.Error())
		}
	case TypeRisks:
		enhanceRisks(payload)
	case TypeKeyPoints:
		enhanceKeyPoints(payload)
	}

	payload["_metadata"] = map[string]any{
		"analysis_type":       string(t),
		"parsed_successfully": p.Kind == ParseStructured,
		"parse_method":        string(p.Kind),
		"timestamp":           v.now().UTC().Format(time.RFC3339),
	}
	if err := v.check(t, payload); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		payload["_validation_error"] = strings.Join(problems, "; ")
	}
	return payload
}

func (v *Validator) base(t Type, p Parsed) map[string]any {
	switch {
	case p.Kind == ParseStructured:
		return p.Object
	case t == opAsk:
		return map[string]any{"direct_answer": p.Raw, "raw_response": p.Raw}
	case t == opExplain:
		return map[string]any{"plain_language_explanation": p.Raw, "raw_response": p.Raw}
	}
	out := map[string]any{"raw_analysis": p.Raw}
	if p.Kind == ParseSectioned {
		out["structured_sections"] = p.Sections
	}
	if p.Err != nil {
		out["parse_error"] = p.Err.Error()
	}
	return out
}

func (v *Validator) check(t Type, payload map[string]any) error {
	schema := v.schemas[t]
	if schema == nil {
		return nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("payload does not match schema: %w", err)
	}
	return nil
}

// enhanceComprehensive derives overall_risk_level from the financial, legal
// and compliance risks only, unless the model supplied one. A risk_assessment
// that is not an object is left as the model sent it.
func enhanceComprehensive(payload map[string]any) error {
	ra, ok := payload["risk_assessment"].(map[string]any)
	if !ok {
		return fmt.Errorf("risk_assessment is %s, not an object; overall_risk_level not derived", jsonKind(payload["risk_assessment"]))
	}
	if _, ok := ra["overall_risk_level"]; !ok {
		ra["overall_risk_level"] = OverallRiskLevel(ra)
	}
	return nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	}
	return fmt.Sprintf("%T", v)
}

// OverallRiskLevel averages severities (low=1 .. critical=4) across the
// financial, legal and compliance risk lists. No scored items means medium.
func OverallRiskLevel(ra map[string]any) string {
	total, n := 0.0, 0
	for _, cat := range []string{"financial_risks", "legal_risks", "compliance_risks"} {
		for _, item := range items(ra[cat]) {
			if s, ok := severityScore[level(item, "severity")]; ok {
				total += s
				n++
			}
		}
	}
	if n == 0 {
		return "medium"
	}
	avg := total / float64(n)
	switch {
	case avg <= 1.5:
		return "low"
	case avg <= 2.5:
		return "medium"
	case avg <= 3.5:
		return "high"
	}
	return "critical"
}

// enhanceRisks tallies severities across all six risk categories.
func enhanceRisks(payload map[string]any) {
	if _, ok := payload["overall_risk_assessment"]; !ok {
		payload["overall_risk_assessment"] = map[string]any{
			"risk_level": "medium",
			"summary":    "Risk assessment completed",
			"confidence": payload["confidence_score"],
		}
	}
	counts := map[string]int{"low": 0, "medium": 0, "high": 0, "critical": 0}
	for _, cat := range []string{"high_risk_items", "financial_risks", "legal_risks", "operational_risks", "compliance_risks", "termination_risks"} {
		for _, item := range items(payload[cat]) {
			sev := level(item, "severity")
			if _, ok := counts[sev]; ok {
				counts[sev]++
			}
		}
	}
	payload["_risk_statistics"] = counts
}

func enhanceKeyPoints(payload map[string]any) {
	counts := map[string]int{"high": 0, "medium": 0, "low": 0}
	for _, item := range items(payload["critical_clauses"]) {
		imp := level(item, "importance")
		if _, ok := counts[imp]; ok {
			counts[imp]++
		}
	}
	payload["_importance_statistics"] = counts
}

func items(v any) []map[string]any {
	list, _ := v.([]any)
	out := make([]map[string]any, 0, len(list))
	for _, x := range list {
		if m, ok := x.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// level reads a lower-cased rating field, defaulting to medium.
func level(item map[string]any, key string) string {
	s, ok := item[key].(string)
	if !ok {
		return "medium"
	}
	return strings.ToLower(strings.TrimSpace(s))
}
