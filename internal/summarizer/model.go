package summarizer

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("empty response from model")

// Request is a single generation call.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Attachment  []byte
	MIMEType    string
	Temperature *float32
}

// TextModel generates text for a request. The Gemini client implements it;
// tests substitute their own.
type TextModel interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeminiModel calls the Gemini API through google.golang.org/genai.
type GeminiModel struct {
	client *genai.Client
}

// NewGeminiModel creates a client using the environment's credentials
// (GOOGLE_API_KEY, or the Vertex AI variables).
func NewGeminiModel(ctx context.Context) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiModel: create genai client: %w", err)
	}
	return &GeminiModel{client: client}, nil
}

// Generate sends the prompt (and the attachment, if any) as one user turn.
func (g *GeminiModel) Generate(ctx context.Context, req Request) (string, error) {
	parts := []*genai.Part{{Text: req.Prompt}}
	if len(req.Attachment) > 0 {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: req.MIMEType,
				Data:     req.Attachment,
			},
		})
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	var cfg *genai.GenerateContentConfig
	if req.System != "" || req.Temperature != nil {
		cfg = &genai.GenerateContentConfig{Temperature: req.Temperature}
		if req.System != "" {
			cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("Generate: generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Generate: %w", ErrEmptyResponse)
	}
	return text, nil
}
