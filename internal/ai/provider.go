package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrUnavailable = errors.New("ai provider unavailable")

// ChatMessage is a role-tagged message handed to a provider. Role is one of
// user, assistant or summary; each provider maps summary onto whatever its
// wire format supports.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type IProvider interface {
	Name() string
	Generate(ctx context.Context, model string, instruction string, msgs []ChatMessage) (string, error)
	GenerateStream(ctx context.Context, model string, instruction string, msgs []ChatMessage, onDelta func(delta string) error) (string, error)
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
}

// IGenerator is a provider bound to a generation model.
type IGenerator interface {
	Generate(ctx context.Context, instruction string, msgs []ChatMessage) (string, error)
	GenerateStream(ctx context.Context, instruction string, msgs []ChatMessage, onDelta func(delta string) error) (string, error)
}

// IEmbedder is a provider bound to an embedding model.
type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
}

type generator struct {
	provider IProvider
	model    string
}

func NewGenerator(p IProvider, model string) IGenerator {
	return &generator{provider: p, model: model}
}

func (g *generator) Generate(ctx context.Context, instruction string, msgs []ChatMessage) (string, error) {
	return g.provider.Generate(ctx, g.model, instruction, msgs)
}

func (g *generator) GenerateStream(ctx context.Context, instruction string, msgs []ChatMessage, onDelta func(delta string) error) (string, error) {
	return g.provider.GenerateStream(ctx, g.model, instruction, msgs, onDelta)
}

type embedder struct {
	provider IProvider
	model    string
}

func NewEmbedder(p IProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text, taskType)
}

func (e *embedder) ModelName() string {
	return e.model
}

type ProviderFactory func(args interface{}) (IProvider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
