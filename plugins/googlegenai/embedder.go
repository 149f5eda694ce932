package googlegenai

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	json "github.com/goccy/go-json"

	"github.com/casualjim/genkit"
	"github.com/casualjim/genkit/ai"
)

// GeminiEmbeddingModel names an embedding model served by the Gemini API.
type GeminiEmbeddingModel string

const (
	GeminiEmbeddingExp0307 GeminiEmbeddingModel = "gemini-embedding-exp-03-07"
	TextEmbedding004       GeminiEmbeddingModel = "text-embedding-004"
	Embedding001           GeminiEmbeddingModel = "embedding-001"
)

// GeminiEmbeddingModels returns the embedders defined by Init.
func GeminiEmbeddingModels() []GeminiEmbeddingModel {
	return []GeminiEmbeddingModel{GeminiEmbeddingExp0307, TextEmbedding004, Embedding001}
}

// VertexEmbeddingModel names an embedding model served by Vertex AI.
type VertexEmbeddingModel string

const (
	VertexGeminiEmbedding001         VertexEmbeddingModel = "gemini-embedding-001"
	VertexTextEmbedding004           VertexEmbeddingModel = "text-embedding-004"
	VertexTextEmbedding005           VertexEmbeddingModel = "text-embedding-005"
	VertexTextMultilingualEmbedding2 VertexEmbeddingModel = "text-multilingual-embedding-002"
)

// VertexEmbeddingModels returns the Vertex AI embedding models.
// The plugin talks to the Gemini API only, so these are not defined by Init.
func VertexEmbeddingModels() []VertexEmbeddingModel {
	return []VertexEmbeddingModel{
		VertexGeminiEmbedding001,
		VertexTextEmbedding004,
		VertexTextEmbedding005,
		VertexTextMultilingualEmbedding2,
	}
}

// EmbeddingTaskType tells the embedder what the embeddings will be used for.
type EmbeddingTaskType string

const (
	TaskTypeRetrievalQuery     EmbeddingTaskType = "RETRIEVAL_QUERY"
	TaskTypeRetrievalDocument  EmbeddingTaskType = "RETRIEVAL_DOCUMENT"
	TaskTypeSemanticSimilarity EmbeddingTaskType = "SEMANTIC_SIMILARITY"
	TaskTypeClassification     EmbeddingTaskType = "CLASSIFICATION"
	TaskTypeClustering         EmbeddingTaskType = "CLUSTERING"
	TaskTypeQuestionAnswering  EmbeddingTaskType = "QUESTION_ANSWERING"
	TaskTypeFactVerification   EmbeddingTaskType = "FACT_VERIFICATION"
	TaskTypeCodeRetrievalQuery EmbeddingTaskType = "CODE_RETRIEVAL_QUERY"
)

var sdkTaskTypes = map[EmbeddingTaskType]genai.TaskType{
	TaskTypeRetrievalQuery:     genai.TaskTypeRetrievalQuery,
	TaskTypeRetrievalDocument:  genai.TaskTypeRetrievalDocument,
	TaskTypeSemanticSimilarity: genai.TaskTypeSemanticSimilarity,
	TaskTypeClassification:     genai.TaskTypeClassification,
	TaskTypeClustering:         genai.TaskTypeClustering,
}

func (t EmbeddingTaskType) toSDK() (genai.TaskType, error) {
	if t == "" {
		return genai.TaskTypeUnspecified, nil
	}
	tt, ok := sdkTaskTypes[t]
	if !ok {
		return genai.TaskTypeUnspecified, fmt.Errorf("googleai: unsupported embedding task type %q", t)
	}
	return tt, nil
}

// EmbedConfig holds the embedder options accepted through ai.WithEmbedOptions.
// Title is only honoured with TaskTypeRetrievalDocument.
type EmbedConfig struct {
	TaskType EmbeddingTaskType `json:"taskType,omitempty"`
	Title    string            `json:"title,omitempty"`
}

func embedConfig(options any) (EmbedConfig, error) {
	switch o := options.(type) {
	case nil:
		return EmbedConfig{}, nil
	case EmbedConfig:
		return o, nil
	case *EmbedConfig:
		if o == nil {
			return EmbedConfig{}, nil
		}
		return *o, nil
	default:
		// options decoded from JSON arrive as a map
		b, err := json.Marshal(o)
		if err != nil {
			return EmbedConfig{}, fmt.Errorf("googleai: invalid embed options: %w", err)
		}
		var cfg EmbedConfig
		if err := json.Unmarshal(b, &cfg); err != nil {
			return EmbedConfig{}, fmt.Errorf("googleai: invalid embed options: %w", err)
		}
		return cfg, nil
	}
}

func defineEmbedder(g *genkit.Genkit, client *genai.Client, name string) ai.Embedder {
	return genkit.DefineEmbedder(g, Provider, name, func(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
		em := client.EmbeddingModel(name)
		batch, err := newBatch(em, req)
		if err != nil {
			return nil, err
		}

		resp, err := em.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("googleai: embed with %s: %w", name, err)
		}

		out := &ai.EmbedResponse{Embeddings: make([]*ai.Embedding, 0, len(resp.Embeddings))}
		for _, e := range resp.Embeddings {
			var values []float32
			if e != nil {
				values = e.Values
			}
			out.Embeddings = append(out.Embeddings, &ai.Embedding{Embedding: values})
		}
		return out, nil
	})
}

func newBatch(em *genai.EmbeddingModel, req *ai.EmbedRequest) (*genai.EmbeddingBatch, error) {
	cfg, err := embedConfig(req.Options)
	if err != nil {
		return nil, err
	}
	tt, err := cfg.TaskType.toSDK()
	if err != nil {
		return nil, err
	}
	em.TaskType = tt

	batch := em.NewBatch()
	for i, doc := range req.Documents {
		parts, err := toParts(doc.Content)
		if err != nil {
			return nil, fmt.Errorf("googleai: document %d: %w", i, err)
		}
		if cfg.Title != "" && tt == genai.TaskTypeRetrievalDocument {
			batch.AddContentWithTitle(cfg.Title, parts...)
		} else {
			batch.AddContent(parts...)
		}
	}
	return batch, nil
}
