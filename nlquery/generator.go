package nlquery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ErrMissingAPIKey is returned when no Gemini API key is configured.
var ErrMissingAPIKey = errors.New("google API key not found; set GOOGLE_API_KEY in your environment or .env file")

// Generator produces model text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator calls Gemini, rotating across the configured API keys.
type GeminiGenerator struct {
	keys        *KeyManager
	modelName   string
	temperature float32

	mu      sync.Mutex
	clients map[string]*genai.Client
}

// NewGeminiGenerator prepares a generator. Clients are created lazily per key.
func NewGeminiGenerator(keys []string, modelName string, temperature float32) (*GeminiGenerator, error) {
	if len(keys) == 0 {
		return nil, ErrMissingAPIKey
	}
	return &GeminiGenerator{
		keys:        NewKeyManager(keys),
		modelName:   modelName,
		temperature: temperature,
		clients:     make(map[string]*genai.Client),
	}, nil
}

func (g *GeminiGenerator) client(ctx context.Context, key string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.clients[key]; ok {
		return c, nil
	}
	c, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("error initializing Gemini client: %w", err)
	}
	g.clients[key] = c
	return c, nil
}

// Generate sends one prompt and returns the concatenated text parts of the
// first candidate.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	key := g.keys.GetNextKey()
	client, err := g.client(ctx, key)
	if err != nil {
		return "", err
	}

	model := client.GenerativeModel(g.modelName)
	model.SetTemperature(g.temperature)
	model.SafetySettings = []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: genai.HarmBlockNone,
		},
		{
			Category:  genai.HarmCategoryHateSpeech,
			Threshold: genai.HarmBlockNone,
		},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		if isRateLimitError(err) {
			g.keys.MarkKeyFailed(key)
		}
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response: no text parts")
	}
	return sb.String(), nil
}

// Close releases every client.
func (g *GeminiGenerator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var errs []error
	for key, c := range g.clients {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(g.clients, key)
	}
	return errors.Join(errs...)
}

// Helper function to check for rate limit errors
func isRateLimitError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "quota exceeded") ||
		strings.Contains(msg, "resource has been exhausted") ||
		strings.Contains(msg, "429")
}
