// Package naming assigns class names to abstraction candidates, via a
// hosted language model when configured and a deterministic fallback
// otherwise. Naming never fails a run.
package naming

import (
	"context"
	"strings"
	"unicode"
)

// Namer proposes a class name for one candidate. Extent lists the
// classes that will inherit the abstraction, Intent the feature
// signatures it pulls up.
type Namer interface {
	Name(ctx context.Context, req Request) (string, error)
}

type Request struct {
	Extent []string
	Intent []string
}

// Result carries the resolved name and its provenance. Confidence is
// 0.9 for externally generated names and 0.5 for fallback names.
type Result struct {
	Name       string
	Confidence float64
	Source     string
}

const (
	SourceExternal = "external"
	SourceFallback = "fallback"

	externalConfidence = 0.9
	fallbackConfidence = 0.5
)

// sanitizeClassName strips feature-declaration syntax and converts the
// remainder to a PascalCase identifier. Empty input yields "".
func sanitizeClassName(name string) string {
	name = strings.TrimLeft(strings.TrimSpace(name), "+-#~")
	if idx := strings.Index(name, ":"); idx >= 0 {
		name = name[:idx]
	}
	if idx := strings.Index(name, "("); idx >= 0 {
		name = name[:idx]
	}

	var cleaned strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cleaned.WriteRune(r)
		case r == '_' || r == ' ':
			cleaned.WriteRune(' ')
		}
	}

	var out strings.Builder
	for _, word := range strings.Fields(cleaned.String()) {
		out.WriteString(strings.ToUpper(word[:1]))
		out.WriteString(word[1:])
	}
	return out.String()
}
