package genkit

import (
	"context"
	"strings"

	"github.com/casualjim/genkit/ai"
)

// Generate runs ai.Generate, falling back to the default model of g when the
// options do not name a model.
func Generate(ctx context.Context, g *Genkit, options ...ai.GenerateOption) (*ai.ModelResponse, error) {
	return ai.Generate(ctx, withDefaultModel(g, options)...)
}

// GenerateText runs Generate and returns the text of the response.
func GenerateText(ctx context.Context, g *Genkit, options ...ai.GenerateOption) (string, error) {
	return ai.GenerateText(ctx, withDefaultModel(g, options)...)
}

// Embed runs ai.Embed with e.
func Embed(ctx context.Context, e ai.Embedder, options ...ai.EmbedOption) (*ai.EmbedResponse, error) {
	return ai.Embed(ctx, e, options...)
}

func withDefaultModel(g *Genkit, options []ai.GenerateOption) []ai.GenerateOption {
	if g.defaultModel == "" {
		return options
	}
	provider, name, found := strings.Cut(g.defaultModel, "/")
	if !found {
		provider, name = "", provider
	}
	m := LookupModel(g, provider, name)
	if m == nil {
		g.log.Warn("default model is not registered", "model", g.defaultModel)
		return options
	}
	return append([]ai.GenerateOption{ai.WithModel(m)}, options...)
}
