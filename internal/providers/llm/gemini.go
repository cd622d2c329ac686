package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sandevgo/parley/internal/core"
	"github.com/sandevgo/parley/pkg/retry"
)

// Gemini speaks the Google Generative Language API directly. Responses
// are requested as JSON so the two-field turn shape comes back clean in
// the common case.
type Gemini struct {
	baseProvider
	retrier *retry.Policy
}

func NewGemini(apiKey, model string) *Gemini {
	return &Gemini{
		baseProvider: newBaseProvider("https://generativelanguage.googleapis.com", apiKey, model),
		retrier:      retry.DefaultPolicy(),
	}
}

func (g *Gemini) Chat(ctx context.Context, messages []core.Message) (core.Message, error) {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role"`
		Parts []part `json:"parts"`
	}

	contents := make([]content, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role == core.RoleAssistant {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: m.Content}}})
	}

	payload := map[string]any{
		"contents": contents,
		"generationConfig": map[string]any{
			"responseMimeType": "application/json",
		},
	}

	headers := map[string]string{
		"x-goog-api-key": g.apiKey,
	}
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", g.model)

	var data []byte
	var permErr error
	err := g.retrier.Do(ctx, func() error {
		resp, err := g.doRequest(ctx, http.MethodPost, path, payload, headers)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
		}
		if resp.StatusCode != http.StatusOK {
			// Client errors will not improve on retry; park and stop
			permErr = fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
		}
		return nil
	})
	if err == nil {
		err = permErr
	}
	if err != nil {
		return core.Message{}, err
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return core.Message{}, fmt.Errorf("decode: %w", err)
	}
	if len(result.Candidates) == 0 {
		return core.Message{}, fmt.Errorf("empty candidates: %s", string(data))
	}

	var text string
	for _, p := range result.Candidates[0].Content.Parts {
		text += p.Text
	}
	return core.Message{Role: core.RoleAssistant, Content: text}, nil
}
