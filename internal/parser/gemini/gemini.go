// Package gemini extracts transaction drafts from free text with a Gemini model.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"saldo/internal/core"
	"saldo/internal/log"
)

// DefaultModelName is used when no model is configured.
const DefaultModelName = "gemini-2.5-flash"

var ErrEmptyResponse = errors.New("empty response from model")

// generator is the subset of *genai.Models the parser needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Parser struct {
	models generator
	model  string
	logger *log.Logger
}

// New creates a parser backed by the Gemini API. The API key is read by the
// client from GEMINI_API_KEY or GOOGLE_API_KEY.
func New(ctx context.Context, model string, logger *log.Logger) (*Parser, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1beta"},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return newParser(client.Models, model, logger), nil
}

func newParser(models generator, model string, logger *log.Logger) *Parser {
	if model == "" {
		model = DefaultModelName
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Parser{models: models, model: model, logger: logger.WithComponent(log.ComponentParser)}
}

// Parse asks the model for a single record described by input. Any failure
// yields an empty draft together with the error.
func (p *Parser) Parse(ctx context.Context, input string, categories []core.Category, now time.Time) (core.Draft, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return core.Draft{}, fmt.Errorf("gemini: %w", core.ErrValidation)
	}

	contents := genai.Text(buildPrompt(input, categories, now))
	resp, err := p.models.GenerateContent(ctx, p.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   draftSchema(),
	})
	if err != nil {
		p.logger.Warn("Model request failed", log.FieldOperation, log.OpParse, log.FieldError, err)
		return core.Draft{}, fmt.Errorf("gemini: generate content: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return core.Draft{}, fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}

	var d core.Draft
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &d); err != nil {
		p.logger.Warn("Unparseable model output", log.FieldOperation, log.OpParse, log.FieldError, err)
		return core.Draft{}, fmt.Errorf("gemini: unmarshal draft: %w", err)
	}
	p.logger.Debug("Draft extracted", log.FieldOperation, log.OpParse)
	return d, nil
}

func buildPrompt(input string, categories []core.Category, now time.Time) string {
	var names []string
	for _, c := range categories {
		names = append(names, fmt.Sprintf("%s (%s)", c.Name, c.Kind))
	}

	var b strings.Builder
	b.WriteString("Extract a single financial transaction from the text below.\n\n")
	fmt.Fprintf(&b, "Text: %q\n\n", input)
	fmt.Fprintf(&b, "Available categories: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "Current date: %s\n\n", core.DateOf(now).String())
	b.WriteString("Rules:\n")
	b.WriteString("- \"amount\" is a positive number.\n")
	b.WriteString("- \"type\" is \"income\" or \"expense\".\n")
	b.WriteString("- \"category\" must be one of the available categories, name only.\n")
	b.WriteString("- \"date\" is an ISO 8601 date. Resolve relative dates against the current date.\n")
	b.WriteString("- Omit any field you cannot determine.\n")
	b.WriteString("Return ONLY a raw JSON object.\n")
	return b.String()
}

func draftSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"amount":      {Type: genai.TypeNumber},
			"type":        {Type: genai.TypeString, Enum: []string{string(core.Income), string(core.Expense)}},
			"category":    {Type: genai.TypeString},
			"description": {Type: genai.TypeString},
			"date":        {Type: genai.TypeString, Description: "ISO 8601 date string"},
		},
	}
}

// cleanModelJSON strips Markdown fences and any text around the outermost
// JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
