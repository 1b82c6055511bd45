package naming

import (
	"context"
	"sort"
	"strings"
)

// fallbackRule maps feature-name keywords to a conventional
// abstraction name. First matching rule wins.
type fallbackRule struct {
	keywords []string
	name     string
}

var fallbackRules = []fallbackRule{
	{[]string{"password", "pwd", "email", "login", "logout", "credential", "auth"}, "AbstractAuthenticatable"},
	{[]string{"id", "uuid", "identifier"}, "AbstractIdentifiable"},
	{[]string{"name", "title", "label"}, "AbstractNamed"},
}

// FallbackNamer derives a name from the intent alone. It is fully
// deterministic and never returns an error.
type FallbackNamer struct{}

func NewFallbackNamer() *FallbackNamer {
	return &FallbackNamer{}
}

func (n *FallbackNamer) Name(_ context.Context, req Request) (string, error) {
	tokens := intentTokens(req.Intent)

	for _, rule := range fallbackRules {
		for _, kw := range rule.keywords {
			if tokens[kw] > 0 {
				return rule.name, nil
			}
		}
	}

	if base := mostFrequentToken(tokens); base != "" {
		return "Abstract" + sanitizeClassName(base), nil
	}
	if len(req.Extent) > 0 {
		names := append([]string(nil), req.Extent...)
		sort.Strings(names)
		return "Abstract" + sanitizeClassName(names[0]), nil
	}
	return "AbstractBase", nil
}

// intentTokens counts lowercase word tokens across the intent's
// feature names, ignoring type annotations and parameter lists.
func intentTokens(intent []string) map[string]int {
	counts := make(map[string]int)
	for _, sig := range intent {
		name := sanitizeClassName(sig)
		for _, tok := range splitCamel(name) {
			counts[strings.ToLower(tok)]++
		}
	}
	return counts
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i := 1; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			words = append(words, s[start:i])
			start = i
		}
	}
	if start < len(s) {
		words = append(words, s[start:])
	}
	return words
}

// mostFrequentToken breaks count ties lexically so the synthesized
// name is stable across runs.
func mostFrequentToken(counts map[string]int) string {
	best := ""
	bestCount := 0
	for tok, n := range counts {
		if n > bestCount || (n == bestCount && tok < best) {
			best = tok
			bestCount = n
		}
	}
	return best
}
