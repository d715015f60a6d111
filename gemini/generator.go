package gemini

import (
	"context"

	"github.com/fwojciec/eventscrape"
	"google.golang.org/genai"
)

// model is pinned for reproducible extraction quality.
const model = "gemini-2.0-flash-lite"

// maxOutputTokens bounds the response; a five-field event object fits
// comfortably within this.
const maxOutputTokens = 2048

// Generator produces model text for a prompt. It abstracts the Gemini client
// so the extractor's retry and repair logic can be tested without network
// access.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
}

// GeneratorFactory builds a Generator bound to a caller-supplied API key.
// Keys arrive per request, so clients cannot be constructed once at startup.
type GeneratorFactory func(ctx context.Context, apiKey string) (Generator, error)

// Ensure ClientGenerator implements Generator at compile time.
var _ Generator = (*ClientGenerator)(nil)

// ClientGenerator implements Generator using the Gemini API.
type ClientGenerator struct {
	client *genai.Client
}

// NewClientGenerator creates a Generator backed by a Gemini client for the
// given API key.
func NewClientGenerator(ctx context.Context, apiKey string) (Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &ClientGenerator{client: client}, nil
}

// Generate sends the prompt and returns the model's text response.
func (g *ClientGenerator) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		BuildConfig(temperature),
	)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", eventscrape.Errorf(eventscrape.EUNAVAILABLE, "gemini returned nil result")
	}
	return result.Text(), nil
}

// BuildConfig returns the GenerateContentConfig for extraction calls. TopP
// and TopK are pinned so output varies only with temperature.
func BuildConfig(temperature float32) *genai.GenerateContentConfig {
	topP := float32(1)
	topK := float32(1)
	return &genai.GenerateContentConfig{
		Temperature:     &temperature,
		TopP:            &topP,
		TopK:            &topK,
		MaxOutputTokens: maxOutputTokens,
	}
}
