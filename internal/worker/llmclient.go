package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/openai/openai-go/v2"
	openai_option "github.com/openai/openai-go/v2/option"
	"google.golang.org/genai"

	"github.com/nieveai/content-crew/internal/logging"
	m "github.com/nieveai/content-crew/internal/models"
)

var (
	ErrNoModels        = errors.New("no usable model configured")
	ErrEmptyCompletion = errors.New("model returned no content")
)

// LLMClient holds one initialized provider client per model binding.
type LLMClient struct {
	clients   map[string]interface{}
	modelInfo map[string]*m.Model
}

type clientOptions struct {
	openaiOptions []openai_option.RequestOption
	httpClient    *http.Client
}

type ClientOption func(*clientOptions)

// WithOpenAIRequestOptions appends request options to every OpenAI client.
func WithOpenAIRequestOptions(opts ...openai_option.RequestOption) ClientOption {
	return func(o *clientOptions) {
		o.openaiOptions = append(o.openaiOptions, opts...)
	}
}

// WithHTTPClient sets the HTTP client used by every provider.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = c
	}
}

func NewLLMClient(ctx context.Context, models []*m.Model, opts ...ClientOption) (*LLMClient, error) {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	llm := &LLMClient{
		clients:   make(map[string]interface{}),
		modelInfo: make(map[string]*m.Model),
	}
	logger := logging.Logger()

	for _, model := range models {
		if _, ok := llm.clients[model.ID]; ok {
			continue
		}

		var client interface{}
		var err error

		switch model.APISpec {
		case m.APISpecGemini:
			cc := &genai.ClientConfig{
				APIKey:     model.APIKey,
				Backend:    genai.BackendGeminiAPI,
				HTTPClient: o.httpClient,
			}
			if model.APIURL != "" {
				cc.HTTPOptions.BaseURL = model.APIURL
			}
			client, err = genai.NewClient(ctx, cc)
		case m.APISpecOpenAI, "":
			reqOpts := []openai_option.RequestOption{openai_option.WithAPIKey(model.APIKey)}
			if model.APIURL != "" {
				reqOpts = append(reqOpts, openai_option.WithBaseURL(model.APIURL))
			}
			if o.httpClient != nil {
				reqOpts = append(reqOpts, openai_option.WithHTTPClient(o.httpClient))
			}
			reqOpts = append(reqOpts, o.openaiOptions...)
			c := openai.NewClient(reqOpts...)
			client = &c
		default:
			logger.Warn("Unknown API spec for model", slog.String("model", model.ID), slog.String("api_spec", model.APISpec))
			continue
		}

		if err != nil {
			logger.Error("Error initializing client", slog.String("model", model.ID), slog.String("error", err.Error()))
			continue
		}

		llm.modelInfo[model.ID] = model
		llm.clients[model.ID] = client
		logger.Debug("Initialized client", slog.String("model", model.ID), slog.String("provider", model.Provider))
	}

	if len(llm.clients) == 0 {
		return nil, ErrNoModels
	}
	return llm, nil
}

func (llm *LLMClient) GenerateContent(ctx context.Context, req m.GenerateRequest) (*m.Completion, error) {
	model, ok := llm.modelInfo[req.ModelID]
	if !ok {
		return nil, fmt.Errorf("model information not found for model ID '%s'", req.ModelID)
	}

	client, ok := llm.clients[model.ID]
	if !ok {
		return nil, fmt.Errorf("llm client not found for model '%s'", model.ID)
	}

	temperature := model.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	temperature = m.ClampTemperature(temperature)

	logging.Logger().Debug("Calling model",
		slog.String("model", model.ModelID),
		slog.Float64("temperature", temperature),
		slog.Int("prompt_chars", len(req.Prompt)))

	switch c := client.(type) {
	case *genai.Client:
		return generateGemini(ctx, c, model, req, temperature)
	case *openai.Client:
		return generateOpenAI(ctx, c, model, req, temperature)
	default:
		return nil, fmt.Errorf("unknown client type for model '%s'", model.ID)
	}
}

func generateOpenAI(ctx context.Context, c *openai.Client, model *m.Model, req m.GenerateRequest, temperature float64) (*m.Completion, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	resp, err := c.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       openai.ChatModel(model.ModelID),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("error calling OpenAI API: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("OpenAI model %s: %w", model.ModelID, ErrEmptyCompletion)
	}

	return &m.Completion{
		Text: resp.Choices[0].Message.Content,
		Usage: m.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func generateGemini(ctx context.Context, c *genai.Client, model *m.Model, req m.GenerateRequest, temperature float64) (*m.Completion, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temperature)),
	}
	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemPrompt}}}
	}
	if model.HostedSearch {
		config.Tools = []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		}
	}

	result, err := c.Models.GenerateContent(ctx, model.ModelID, genai.Text(req.Prompt), config)
	if err != nil {
		return nil, fmt.Errorf("error calling Gemini API: %w", err)
	}
	text := result.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini model %s: %w", model.ModelID, ErrEmptyCompletion)
	}

	completion := &m.Completion{Text: text}
	if u := result.UsageMetadata; u != nil {
		completion.Usage = m.Usage{
			PromptTokens:     int64(u.PromptTokenCount),
			CompletionTokens: int64(u.CandidatesTokenCount),
			TotalTokens:      int64(u.TotalTokenCount),
		}
	}
	return completion, nil
}
