package market

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"coinpulse/logger"

	"github.com/sashabaranov/go-openai"
)

// defaultInsightModels is the ordered fallback chain tried against the
// HuggingFace router. The first entry can be overridden via config.
var defaultInsightModels = []string{
	"meta-llama/Meta-Llama-3-8B-Instruct",
	"mistralai/Mistral-7B-Instruct-v0.2",
	"HuggingFaceH4/zephyr-7b-beta",
	"google/gemma-1.1-2b-it",
}

const insightSystemPrompt = "You are a helpful crypto assistant. " +
	"Return plain text only (no Markdown). " +
	"Write 2-3 short sentences. " +
	"End with: Risk note: <one short sentence>. " +
	"No financial advice."

// Insight is a generated market insight.
type Insight struct {
	Insight   string `json:"insight"`
	Model     string `json:"model"`
	UpdatedAt string `json:"updatedAt"`
}

// ProviderError reports that every model in the fallback chain failed.
type ProviderError struct {
	TriedModels []string
	LastModel   string
	LastErr     error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("all insight models failed, last (%s): %v", e.LastModel, e.LastErr)
}

func (e *ProviderError) Unwrap() error {
	return e.LastErr
}

// InsightService generates short personalized market insights through an
// OpenAI-compatible chat completion endpoint, trying an ordered list of
// models until one answers. Responses are never cached and there is no
// synthetic fallback text.
type InsightService struct {
	client *openai.Client
	models []string
	now    func() time.Time
}

// NewInsightService creates an insight service against the given
// OpenAI-compatible base URL. modelOverride, when non-empty, replaces the
// first model in the fallback chain.
func NewInsightService(token, baseURL, modelOverride string, timeout time.Duration) *InsightService {
	clientConfig := openai.DefaultConfig(token)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}

	models := make([]string, len(defaultInsightModels))
	copy(models, defaultInsightModels)
	if modelOverride != "" {
		models[0] = modelOverride
	}

	return &InsightService{
		client: openai.NewClientWithConfig(clientConfig),
		models: models,
		now:    time.Now,
	}
}

// Models returns the fallback chain in order.
func (s *InsightService) Models() []string {
	models := make([]string, len(s.models))
	copy(models, s.models)
	return models
}

// Generate produces an insight tailored to the user's preferences. assetsTxt
// and investorTxt must already carry their defaults ("BTC, ETH" / "General").
func (s *InsightService) Generate(ctx context.Context, assetsTxt, investorTxt string) (*Insight, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: insightSystemPrompt},
		{
			Role: openai.ChatMessageRoleUser,
			Content: fmt.Sprintf(
				"Give today's crypto market insight tailored to: InvestorType=%s, Assets=%s. Mention a risk note.",
				investorTxt, assetsTxt),
		},
	}

	var lastErr error
	var lastModel string

	for _, modelName := range s.models {
		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       modelName,
			Messages:    messages,
			Temperature: 0.7,
			MaxTokens:   180,
		})
		if err != nil {
			logger.Warn("insight model failed",
				logger.String("model", modelName),
				logger.ErrorField(err))
			lastErr = err
			lastModel = modelName
			continue
		}

		insight := "No insight returned."
		if len(resp.Choices) > 0 {
			if content := strings.TrimSpace(resp.Choices[0].Message.Content); content != "" {
				insight = content
			}
		}

		return &Insight{
			Insight:   insight,
			Model:     modelName,
			UpdatedAt: s.now().UTC().Format(time.RFC3339),
		}, nil
	}

	return nil, &ProviderError{
		TriedModels: s.Models(),
		LastModel:   lastModel,
		LastErr:     lastErr,
	}
}
