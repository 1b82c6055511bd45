package naming

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiNamer implements Namer using Gemini text generation.
type GeminiNamer struct {
	client *genai.Client
	model  string
}

func NewGeminiNamer(ctx context.Context, apiKey string, modelName string) (*GeminiNamer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiNamer{
		client: client,
		model:  modelName,
	}, nil
}

func (n *GeminiNamer) Name(ctx context.Context, req Request) (string, error) {
	resp, err := n.client.Models.GenerateContent(ctx, n.model, genai.Text(buildNamingPrompt(req)), nil)
	if err != nil {
		return "", err
	}
	name := parseProposedName(resp.Text())
	if name == "" {
		return "", fmt.Errorf("empty name in model response")
	}
	return name, nil
}

func buildNamingPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are a software architecture expert. Based on the following information about a group of related classes, suggest a concise and meaningful name for an abstract class that would represent their common concept.\n\n")
	b.WriteString("Classes that will inherit from this abstract class:\n")
	b.WriteString(strings.Join(req.Extent, ", "))
	b.WriteString("\n\nCommon attributes and features:\n")
	b.WriteString(strings.Join(req.Intent, ", "))
	b.WriteString("\n\nProvide ONLY the suggested abstract class name (in PascalCase), without any explanation or additional text. The name should be:\n")
	b.WriteString("- Concise (1-3 words)\n")
	b.WriteString("- Descriptive of the common concept\n")
	b.WriteString("- Follow UML/OOP naming conventions\n")
	b.WriteString("- Not include the word \"Abstract\" unless necessary\n\n")
	b.WriteString("Suggested name:")
	return b.String()
}

// parseProposedName reduces a model response to a single sanitized
// class name, tolerating quotes and trailing prose.
func parseProposedName(resp string) string {
	name := strings.TrimSpace(resp)
	name = strings.Trim(name, "\"'`")
	if idx := strings.IndexByte(name, '\n'); idx >= 0 {
		name = name[:idx]
	}
	return sanitizeClassName(name)
}
