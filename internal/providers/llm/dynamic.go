package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sandevgo/parley/internal/core"
)

// DynamicProvider wraps the configured provider and allows swapping the
// provider/model pair at runtime without restarting transports.
type DynamicProvider struct {
	config  core.ProviderConfig
	current atomic.Value
	mu      sync.Mutex
}

func NewDynamicProvider(ctx context.Context, config core.ProviderConfig) (*DynamicProvider, error) {
	d := &DynamicProvider{
		config: config,
	}

	provider, err := NewProvider(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial provider: %w", err)
	}

	d.current.Store(provider)
	return d, nil
}

func (d *DynamicProvider) Chat(ctx context.Context, messages []core.Message) (core.Message, error) {
	provider := d.current.Load().(core.AIProvider)
	return provider.Chat(ctx, messages)
}

// SetModel accepts "provider/model" (the model part may itself contain
// slashes, as OpenRouter IDs do) or a bare model name for the current
// provider.
func (d *DynamicProvider) SetModel(ctx context.Context, spec string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	provider := d.config.GetProvider()
	model := spec
	if head, rest, ok := strings.Cut(spec, "/"); ok && isKnownProvider(head) {
		provider = head
		model = rest
	}
	if model == "" {
		return fmt.Errorf("empty model in %q", spec)
	}

	if err := d.config.SetModel(provider, model); err != nil {
		return err
	}

	newProvider, err := NewProvider(ctx, d.config)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	// Atomic swap
	d.current.Store(newProvider)
	return nil
}

func isKnownProvider(name string) bool {
	switch name {
	case "gemini", "openai", "openrouter", "ollama":
		return true
	}
	return false
}
