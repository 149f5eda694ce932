package googlegenai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casualjim/genkit"
)

func TestSurface(t *testing.T) {
	assert.Equal(t, "github.com/casualjim/genkit/plugins/googlegenai", PackageName())
	assert.Equal(t, "googleai/gemini-1.5-flash", GoogleGenAIName(string(Gemini15Flash)))
	assert.Equal(t, Provider, (&GoogleGenAI{}).Name())

	assert.Contains(t, GeminiVersions(), Gemini20Flash)
	assert.Contains(t, GeminiEmbeddingModels(), TextEmbedding004)
	assert.Contains(t, VertexEmbeddingModels(), VertexTextEmbedding005)
}

func TestGeminiVersion_Info(t *testing.T) {
	info := Gemini15Pro.Info()
	assert.Equal(t, "Google AI - gemini-1.5-pro", info.Label)
	assert.True(t, info.Supports.Multiturn)
	assert.True(t, info.Supports.Media)
	assert.True(t, info.Supports.SystemRole)
}

func TestInit_MissingAPIKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	_, err := genkit.Init(context.Background(), genkit.WithPlugins(&GoogleGenAI{}))
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestInit_DefinesActions(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "test-key")

	plugin := &GoogleGenAI{}
	g, err := genkit.Init(context.Background(), genkit.WithPlugins(plugin))
	require.NoError(t, err)
	t.Cleanup(func() { _ = plugin.Close() })

	for _, v := range GeminiVersions() {
		m := Model(g, string(v))
		require.NotNil(t, m, v)
		assert.Equal(t, GoogleGenAIName(string(v)), m.Name())
	}
	for _, name := range GeminiEmbeddingModels() {
		e := Embedder(g, string(name))
		require.NotNil(t, e, name)
		assert.Equal(t, GoogleGenAIName(string(name)), e.Name())
	}
	assert.Nil(t, Embedder(g, string(VertexTextEmbedding005)))
	assert.Len(t, genkit.ListActions(g), len(GeminiVersions())+len(GeminiEmbeddingModels()))

	custom, err := plugin.DefineModel(g, "gemini-exp-1206", nil)
	require.NoError(t, err)
	assert.Equal(t, "googleai/gemini-exp-1206", custom.Name())
	assert.Same(t, custom, Model(g, "gemini-exp-1206"))

	assert.Error(t, plugin.Init(context.Background(), g))
}

func TestDefineModel_NotInitialized(t *testing.T) {
	g, err := genkit.Init(context.Background())
	require.NoError(t, err)

	_, err = (&GoogleGenAI{}).DefineModel(g, "gemini-1.5-flash", nil)
	assert.Error(t, err)
	_, err = (&GoogleGenAI{}).DefineEmbedder(g, "embedding-001")
	assert.Error(t, err)
}
