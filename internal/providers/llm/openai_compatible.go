package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sandevgo/parley/internal/core"
)

type OpenAICompatible struct {
	baseProvider
	authHeader   string
	authPrefix   string
	jsonMode     bool
	extraHeaders map[string]string
}

type OpenAICompatibleConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	AuthHeader string // e.g., "Authorization"
	AuthPrefix string // e.g., "Bearer "
	// JSONMode asks the endpoint for a JSON object response. Parley's
	// turn output is still parsed defensively regardless.
	JSONMode     bool
	ExtraHeaders map[string]string
}

func NewOpenAICompatible(cfg OpenAICompatibleConfig) *OpenAICompatible {
	return &OpenAICompatible{
		baseProvider: newBaseProvider(cfg.BaseURL, cfg.APIKey, cfg.Model),
		authHeader:   cfg.AuthHeader,
		authPrefix:   cfg.AuthPrefix,
		jsonMode:     cfg.JSONMode,
		extraHeaders: cfg.ExtraHeaders,
	}
}

func (o *OpenAICompatible) Chat(ctx context.Context, messages []core.Message) (core.Message, error) {
	type wireMsg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	wire := make([]wireMsg, 0, len(messages))
	for _, m := range messages {
		wire = append(wire, wireMsg{Role: m.Role, Content: m.Content})
	}

	payload := map[string]any{
		"model":    o.model,
		"messages": wire,
	}
	if o.jsonMode {
		payload["response_format"] = map[string]string{"type": "json_object"}
	}

	headers := make(map[string]string)
	if o.authHeader != "" && o.apiKey != "" {
		headers[o.authHeader] = o.authPrefix + o.apiKey
	}
	for k, v := range o.extraHeaders {
		headers[k] = v
	}

	resp, err := o.doRequest(ctx, http.MethodPost, "/v1/chat/completions", payload, headers)
	if err != nil {
		return core.Message{}, err
	}
	defer resp.Body.Close()

	return parseOpenAIResponse(resp)
}

func parseOpenAIResponse(resp *http.Response) (core.Message, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.Message{}, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return core.Message{}, fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return core.Message{}, fmt.Errorf("decode: %w", err)
	}
	if len(result.Choices) == 0 {
		return core.Message{}, fmt.Errorf("empty choices: %s", string(data))
	}
	return core.Message{
		Role:    core.RoleAssistant,
		Content: result.Choices[0].Message.Content,
	}, nil
}
