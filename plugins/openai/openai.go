package openai

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/casualjim/genkit"
	"github.com/casualjim/genkit/ai"
	"github.com/casualjim/genkit/pkg/slogx"
)

// Provider is the name of the plugin and the prefix of every action it defines.
const Provider = "openai"

// Models returns the chat models defined by Init.
func Models() []string {
	return []string{
		openai.ChatModelGPT4oMini,
		openai.ChatModelChatgpt4oLatest,
		openai.ChatModelO1Mini,
		openai.ChatModelO1,
	}
}

var _ genkit.Plugin = (*OpenAI)(nil)

// OpenAI is the OpenAI plugin.
type OpenAI struct {
	// APIKey authenticates requests. When empty the client reads OPENAI_API_KEY.
	APIKey string
	// Options are applied to the client after the API key.
	Options []option.RequestOption

	mu       sync.Mutex
	provider *chatProvider
}

func (p *OpenAI) Name() string {
	return Provider
}

// Init creates the client and defines one model per entry of Models.
func (p *OpenAI) Init(_ context.Context, g *genkit.Genkit) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.provider != nil {
		return errors.New("openai: plugin already initialized")
	}

	var options []option.RequestOption
	if p.APIKey != "" {
		options = append(options, option.WithAPIKey(p.APIKey))
	}
	p.provider = newChatProvider(append(options, p.Options...)...)

	for _, name := range Models() {
		defineModel(g, p.provider, name, modelInfo(name))
	}
	slog.Default().With(slogx.LoggerName("openai")).Debug("plugin initialized", slog.Int("models", len(Models())))
	return nil
}

// DefineModel defines a chat model that is not in Models. A nil info assumes
// a multi-turn model with system role and image support.
func (p *OpenAI) DefineModel(g *genkit.Genkit, name string, info *ai.ModelInfo) (ai.Model, error) {
	p.mu.Lock()
	prov := p.provider
	p.mu.Unlock()
	if prov == nil {
		return nil, errors.New("openai: plugin not initialized")
	}

	mi := modelInfo(name)
	if info != nil {
		mi = *info
	}
	return defineModel(g, prov, name, mi), nil
}

// Model returns the model name defined by this plugin, or nil.
func Model(g *genkit.Genkit, name string) ai.Model {
	return genkit.LookupModel(g, Provider, name)
}

func modelInfo(name string) ai.ModelInfo {
	info := ai.ModelInfo{
		Label:    "OpenAI - " + name,
		Versions: []string{name},
		Supports: ai.ModelSupports{
			Multiturn:  true,
			Media:      true,
			SystemRole: true,
			Output:     []string{"text", ai.OutputFormatJSON},
		},
	}
	// o1-mini takes neither images nor a system role
	if name == openai.ChatModelO1Mini {
		info.Supports.Media = false
		info.Supports.SystemRole = false
	}
	return info
}

func defineModel(g *genkit.Genkit, prov *chatProvider, name string, info ai.ModelInfo) ai.Model {
	return genkit.DefineModel(g, Provider, name, info, func(ctx context.Context, req *ai.ModelRequest) (*ai.ModelResponse, error) {
		return prov.generate(ctx, name, req)
	})
}
