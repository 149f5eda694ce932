package googlegenai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/casualjim/genkit"
	"github.com/casualjim/genkit/ai"
	"github.com/casualjim/genkit/pkg/slogx"
)

// Provider is the name of the plugin and the prefix of every action it defines.
const Provider = "googleai"

// ErrMissingAPIKey is returned by Init when no API key is configured.
var ErrMissingAPIKey = errors.New("googleai: API key is required, set GOOGLE_API_KEY or GEMINI_API_KEY")

// PackageName returns the import path of this plugin.
func PackageName() string {
	return "github.com/casualjim/genkit/plugins/googlegenai"
}

// GoogleGenAIName returns the qualified action name of a model or embedder of this plugin.
func GoogleGenAIName(name string) string {
	return Provider + "/" + name
}

var _ genkit.Plugin = (*GoogleGenAI)(nil)

// GoogleGenAI is the Google Generative AI plugin. It defines a model for each
// GeminiVersion and an embedder for each of GeminiEmbeddingModels.
type GoogleGenAI struct {
	// APIKey authenticates requests. When empty, GOOGLE_API_KEY and then
	// GEMINI_API_KEY are consulted.
	APIKey string
	// ClientOptions are passed to the client after the API key.
	ClientOptions []option.ClientOption

	mu     sync.Mutex
	client *genai.Client
	log    *slog.Logger
}

func (p *GoogleGenAI) Name() string {
	return Provider
}

// Init creates the client and defines the plugin's models and embedders.
func (p *GoogleGenAI) Init(ctx context.Context, g *genkit.Genkit) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return errors.New("googleai: plugin already initialized")
	}

	apiKey := p.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, p.ClientOptions...)...)
	if err != nil {
		return fmt.Errorf("googleai: failed to create client: %w", err)
	}
	p.client = client
	p.log = slog.Default().With(slogx.LoggerName("googleai"))

	for _, version := range GeminiVersions() {
		defineModel(g, client, string(version), version.Info())
	}
	for _, name := range GeminiEmbeddingModels() {
		defineEmbedder(g, client, string(name))
	}
	p.log.Debug("plugin initialized",
		slog.Int("models", len(GeminiVersions())),
		slog.Int("embedders", len(GeminiEmbeddingModels())),
	)
	return nil
}

// DefineModel defines a model that is not in GeminiVersions. A nil info
// assumes the capabilities of the Gemini models.
func (p *GoogleGenAI) DefineModel(g *genkit.Genkit, name string, info *ai.ModelInfo) (ai.Model, error) {
	p.mu.Lock()
	client := p.client
	p.mu.Unlock()
	if client == nil {
		return nil, errors.New("googleai: plugin not initialized")
	}

	mi := GeminiVersion(name).Info()
	if info != nil {
		mi = *info
	}
	return defineModel(g, client, name, mi), nil
}

// DefineEmbedder defines an embedder that is not in GeminiEmbeddingModels.
func (p *GoogleGenAI) DefineEmbedder(g *genkit.Genkit, name string) (ai.Embedder, error) {
	p.mu.Lock()
	client := p.client
	p.mu.Unlock()
	if client == nil {
		return nil, errors.New("googleai: plugin not initialized")
	}
	return defineEmbedder(g, client, name), nil
}

// Close releases the client created by Init.
func (p *GoogleGenAI) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		return nil
	}
	err := p.client.Close()
	p.client = nil
	return err
}

// Model returns the model name defined by this plugin, or nil.
func Model(g *genkit.Genkit, name string) ai.Model {
	return genkit.LookupModel(g, Provider, name)
}

// Embedder returns the embedder name defined by this plugin, or nil.
func Embedder(g *genkit.Genkit, name string) ai.Embedder {
	return genkit.LookupEmbedder(g, Provider, name)
}
