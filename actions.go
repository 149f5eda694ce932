package genkit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/casualjim/genkit/ai"
	"github.com/casualjim/genkit/pkg/jsonx"
	"github.com/casualjim/genkit/pkg/slogx"
)

var (
	// ErrActionNotFound is returned when no action is registered under a key.
	ErrActionNotFound = errors.New("action not found")
	// ErrInvalidInput is returned when an action input cannot be decoded.
	ErrInvalidInput = errors.New("invalid action input")
)

// ActionType is the kind of a registered action.
type ActionType string

const (
	ActionTypeModel     ActionType = "model"
	ActionTypeEmbedder  ActionType = "embedder"
	ActionTypeRetriever ActionType = "retriever"
	ActionTypeIndexer   ActionType = "indexer"
)

// ActionDesc describes a registered action.
type ActionDesc struct {
	Key          string         `json:"key"`
	Type         ActionType     `json:"-"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	InputSchema  map[string]any `json:"inputSchema,omitempty"`
	OutputSchema map[string]any `json:"outputSchema,omitempty"`
}

type action struct {
	desc     ActionDesc
	model     ai.Model
	embedder  ai.Embedder
	retriever ai.Retriever
	indexer   ai.Indexer
}

type actionSchemas struct {
	input, output map[string]any
}

func reflectSchemas(input, output any) func() actionSchemas {
	return sync.OnceValue(func() actionSchemas {
		// the request and response types are fixed, so reflection cannot fail
		var s actionSchemas
		s.input, _ = jsonx.Schema(input)
		if output != nil {
			s.output, _ = jsonx.Schema(output)
		}
		return s
	})
}

var (
	modelSchemas     = reflectSchemas(&ai.ModelRequest{}, &ai.ModelResponse{})
	embedderSchemas  = reflectSchemas(&ai.EmbedRequest{}, &ai.EmbedResponse{})
	retrieverSchemas = reflectSchemas(&ai.RetrieverRequest{}, &ai.RetrieverResponse{})
	indexerSchemas   = reflectSchemas(&ai.IndexerRequest{}, nil)
)

// ActionKey returns the registry key of an action, for example /model/googleai/gemini-1.5-flash.
func ActionKey(typ ActionType, provider, name string) string {
	return "/" + string(typ) + "/" + qualifiedName(provider, name)
}

func qualifiedName(provider, name string) string {
	if provider == "" {
		return name
	}
	return provider + "/" + name
}

func (g *Genkit) register(a *action) {
	if _, exists := g.actions.Get(a.desc.Key); exists {
		g.log.Warn("action redefined", slogx.Action(a.desc.Key))
	}
	g.actions.Add(a.desc.Key, a)
	g.log.Debug("action defined", slogx.Action(a.desc.Key))
}

// DefineModel registers fn as the model provider/name and returns it.
func DefineModel(g *Genkit, provider, name string, info ai.ModelInfo, fn ai.ModelFunc) ai.Model {
	qualified := qualifiedName(provider, name)
	m := ai.NewModel(qualified, info, fn)

	label := info.Label
	if label == "" {
		label = qualified
	}
	schemas := modelSchemas()
	g.register(&action{
		desc: ActionDesc{
			Key:          ActionKey(ActionTypeModel, provider, name),
			Type:         ActionTypeModel,
			Name:         qualified,
			Description:  label,
			Metadata:     map[string]any{"model": info},
			InputSchema:  schemas.input,
			OutputSchema: schemas.output,
		},
		model: m,
	})
	return m
}

// LookupModel returns the model registered as provider/name, or nil.
func LookupModel(g *Genkit, provider, name string) ai.Model {
	a, ok := g.actions.Get(ActionKey(ActionTypeModel, provider, name))
	if !ok {
		return nil
	}
	return a.model
}

// DefineEmbedder registers fn as the embedder provider/name and returns it.
func DefineEmbedder(g *Genkit, provider, name string, fn ai.EmbedderFunc) ai.Embedder {
	qualified := qualifiedName(provider, name)
	e := ai.NewEmbedder(qualified, fn)

	schemas := embedderSchemas()
	g.register(&action{
		desc: ActionDesc{
			Key:          ActionKey(ActionTypeEmbedder, provider, name),
			Type:         ActionTypeEmbedder,
			Name:         qualified,
			Description:  qualified,
			InputSchema:  schemas.input,
			OutputSchema: schemas.output,
		},
		embedder: e,
	})
	return e
}

// LookupEmbedder returns the embedder registered as provider/name, or nil.
func LookupEmbedder(g *Genkit, provider, name string) ai.Embedder {
	a, ok := g.actions.Get(ActionKey(ActionTypeEmbedder, provider, name))
	if !ok {
		return nil
	}
	return a.embedder
}

// DefineRetriever registers fn as the retriever provider/name and returns it.
func DefineRetriever(g *Genkit, provider, name string, fn ai.RetrieverFunc) ai.Retriever {
	qualified := qualifiedName(provider, name)
	r := ai.NewRetriever(qualified, fn)

	schemas := retrieverSchemas()
	g.register(&action{
		desc: ActionDesc{
			Key:          ActionKey(ActionTypeRetriever, provider, name),
			Type:         ActionTypeRetriever,
			Name:         qualified,
			Description:  qualified,
			InputSchema:  schemas.input,
			OutputSchema: schemas.output,
		},
		retriever: r,
	})
	return r
}

// LookupRetriever returns the retriever registered as provider/name, or nil.
func LookupRetriever(g *Genkit, provider, name string) ai.Retriever {
	a, ok := g.actions.Get(ActionKey(ActionTypeRetriever, provider, name))
	if !ok {
		return nil
	}
	return a.retriever
}

// DefineIndexer registers fn as the indexer provider/name and returns it.
func DefineIndexer(g *Genkit, provider, name string, fn ai.IndexerFunc) ai.Indexer {
	qualified := qualifiedName(provider, name)
	i := ai.NewIndexer(qualified, fn)

	schemas := indexerSchemas()
	g.register(&action{
		desc: ActionDesc{
			Key:         ActionKey(ActionTypeIndexer, provider, name),
			Type:        ActionTypeIndexer,
			Name:        qualified,
			Description: qualified,
			InputSchema: schemas.input,
		},
		indexer: i,
	})
	return i
}

// LookupIndexer returns the indexer registered as provider/name, or nil.
func LookupIndexer(g *Genkit, provider, name string) ai.Indexer {
	a, ok := g.actions.Get(ActionKey(ActionTypeIndexer, provider, name))
	if !ok {
		return nil
	}
	return a.indexer
}

// ListActions returns the description of every registered action, sorted by key.
func ListActions(g *Genkit) []ActionDesc {
	keys := g.actions.Keys()
	descs := make([]ActionDesc, 0, len(keys))
	for _, k := range keys {
		if a, ok := g.actions.Get(k); ok {
			descs = append(descs, a.desc)
		}
	}
	return descs
}

// RunAction decodes input as the request of the action registered under key, runs
// the action and returns its JSON encoded response.
func RunAction(ctx context.Context, g *Genkit, key string, input []byte) ([]byte, error) {
	a, ok := g.actions.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrActionNotFound, key)
	}

	var (
		result any
		err    error
	)
	switch a.desc.Type {
	case ActionTypeModel:
		var req ai.ModelRequest
		if err := decodeInput(input, &req); err != nil {
			return nil, err
		}
		result, err = a.model.Generate(ctx, &req)
	case ActionTypeEmbedder:
		var req ai.EmbedRequest
		if err := decodeInput(input, &req); err != nil {
			return nil, err
		}
		result, err = a.embedder.Embed(ctx, &req)
	case ActionTypeRetriever:
		var req ai.RetrieverRequest
		if err := decodeInput(input, &req); err != nil {
			return nil, err
		}
		if req.Query == nil {
			return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
		}
		result, err = a.retriever.Retrieve(ctx, &req)
	case ActionTypeIndexer:
		var req ai.IndexerRequest
		if err := decodeInput(input, &req); err != nil {
			return nil, err
		}
		// indexers have no output
		result, err = struct{}{}, a.indexer.Index(ctx, &req)
	default:
		return nil, fmt.Errorf("action %s has unsupported type %q", key, a.desc.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("action %s failed: %w", key, err)
	}

	out, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result of %s: %w", key, err)
	}
	return out, nil
}

func decodeInput(input []byte, v any) error {
	if len(strings.TrimSpace(string(input))) == 0 {
		return fmt.Errorf("%w: empty input", ErrInvalidInput)
	}
	if err := json.Unmarshal(input, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}
