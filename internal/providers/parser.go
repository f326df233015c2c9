package providers

import "strings"

// ProviderRef is one entry of a backend list such as "gemini|openai:work".
// KeyAlias selects an UNVEIL_<NAME>_KEY_<ALIAS> credential.
type ProviderRef struct {
	Raw      string
	Name     string
	KeyAlias string
}

// ParseProviderList splits a "|" separated backend list in order. Names are
// lower-cased, repeated entries are dropped, and an empty list means mock.
func ParseProviderList(raw string) []ProviderRef {
	out := []ProviderRef{}
	seen := map[string]bool{}
	for _, p := range strings.Split(raw, "|") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		name, alias, _ := strings.Cut(p, ":")
		ref := ProviderRef{
			Raw:      p,
			Name:     strings.ToLower(strings.TrimSpace(name)),
			KeyAlias: strings.TrimSpace(alias),
		}
		key := ref.Name + ":" + ref.KeyAlias
		if ref.Name == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ref)
	}
	if len(out) == 0 {
		out = append(out, ProviderRef{Raw: "mock", Name: "mock"})
	}
	return out
}
