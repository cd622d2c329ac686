package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sandevgo/parley/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAICompatible_Chat(t *testing.T) {
	var captured struct {
		auth    string
		payload map[string]any
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		captured.auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured.payload))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"{\"reply\":\"hi\"}"}}]}`)
	}))
	defer server.Close()

	provider := NewOpenAICompatible(OpenAICompatibleConfig{
		BaseURL:    server.URL,
		APIKey:     "sk-test",
		Model:      "gpt-4o-mini",
		AuthHeader: "Authorization",
		AuthPrefix: "Bearer ",
		JSONMode:   true,
	})

	msg, err := provider.Chat(context.Background(), []core.Message{
		{Role: core.RoleUser, Content: "hello"},
	})
	require.NoError(t, err)

	assert.Equal(t, core.RoleAssistant, msg.Role)
	assert.Equal(t, `{"reply":"hi"}`, msg.Content)
	assert.Equal(t, "Bearer sk-test", captured.auth)
	assert.Equal(t, "gpt-4o-mini", captured.payload["model"])
	assert.Contains(t, captured.payload, "response_format")
}

func TestOpenAICompatible_ChatNoJSONMode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.NotContains(t, payload, "response_format")

		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"plain"}}]}`)
	}))
	defer server.Close()

	provider := NewOpenAICompatible(OpenAICompatibleConfig{
		BaseURL: server.URL,
		Model:   "llama3.1",
	})

	msg, err := provider.Chat(context.Background(), []core.Message{{Role: core.RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "plain", msg.Content)
}

func TestOpenAICompatible_ChatErrors(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantErrMsg string
	}{
		{
			name: "http error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"error":"bad key"}`)
			},
			wantErrMsg: "http 401",
		},
		{
			name: "empty choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"choices":[]}`)
			},
			wantErrMsg: "empty choices",
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `not json`)
			},
			wantErrMsg: "decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			provider := NewOpenAICompatible(OpenAICompatibleConfig{BaseURL: server.URL, Model: "m"})
			_, err := provider.Chat(context.Background(), []core.Message{{Role: core.RoleUser, Content: "hi"}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErrMsg)
		})
	}
}
