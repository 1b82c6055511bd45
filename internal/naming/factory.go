package naming

import (
	"context"
	"fmt"
	"strings"
)

type NamerOptions struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// NewNamer builds the external namer for the configured provider, or
// nil (fallback-only naming) when the provider is "none" or no API key
// is set.
func NewNamer(ctx context.Context, opts NamerOptions) (Namer, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = "gemini"
	}
	if provider == "none" || opts.APIKey == "" {
		return nil, nil
	}

	switch provider {
	case "gemini":
		return NewGeminiNamer(ctx, opts.APIKey, opts.Model)
	case "openai":
		return NewOpenAINamer(opts.APIKey, opts.Model, opts.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported naming provider: %s", opts.Provider)
	}
}
