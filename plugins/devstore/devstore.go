// Package devstore provides an in-memory vector store for local development.
//
// DefineIndexerAndRetriever registers an indexer and a retriever that share one
// store. Documents are embedded with the configured embedder when indexed, and
// retrieval ranks them by cosine similarity to the embedded query. Nothing is
// persisted; the store lives as long as the process.
package devstore

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"slices"

	json "github.com/goccy/go-json"

	"github.com/casualjim/genkit"
	"github.com/casualjim/genkit/ai"
	"github.com/casualjim/genkit/internal/registry"
)

// Provider is the provider prefix of the actions defined by this package.
const Provider = "devstore"

const defaultK = 3

// ErrEmbedderRequired is returned when a store is defined without an embedder.
var ErrEmbedderRequired = errors.New("devstore: an embedder is required")

// Config configures a store.
type Config struct {
	// Embedder computes the vectors of indexed documents and queries.
	Embedder ai.Embedder
	// EmbedderOptions is passed to every Embed call.
	EmbedderOptions any
}

// RetrieverOptions configures a Retrieve call, passed with ai.WithRetrieverOptions.
type RetrieverOptions struct {
	// K is the maximum number of documents returned, 3 when unset.
	K int `json:"k,omitempty"`
}

type entry struct {
	doc       *ai.Document
	embedding []float32
}

type store struct {
	cfg  Config
	docs registry.Registry[entry]
}

// DefineIndexerAndRetriever registers the indexer and the retriever "devstore/<name>"
// backed by a new empty store.
func DefineIndexerAndRetriever(g *genkit.Genkit, name string, cfg Config) (ai.Indexer, ai.Retriever, error) {
	if cfg.Embedder == nil {
		return nil, nil, ErrEmbedderRequired
	}
	s := &store{cfg: cfg, docs: registry.New[entry]()}
	return genkit.DefineIndexer(g, Provider, name, s.index),
		genkit.DefineRetriever(g, Provider, name, s.retrieve),
		nil
}

// Indexer returns the indexer "devstore/<name>", or nil.
func Indexer(g *genkit.Genkit, name string) ai.Indexer {
	return genkit.LookupIndexer(g, Provider, name)
}

// Retriever returns the retriever "devstore/<name>", or nil.
func Retriever(g *genkit.Genkit, name string) ai.Retriever {
	return genkit.LookupRetriever(g, Provider, name)
}

func (s *store) index(ctx context.Context, req *ai.IndexerRequest) error {
	if len(req.Documents) == 0 {
		return nil
	}
	resp, err := ai.Embed(ctx, s.cfg.Embedder, ai.WithEmbedDocs(req.Documents...), ai.WithEmbedOptions(s.cfg.EmbedderOptions))
	if err != nil {
		return err
	}
	for i, doc := range req.Documents {
		id, err := documentID(doc)
		if err != nil {
			return fmt.Errorf("devstore: document %d: %w", i, err)
		}
		// re-indexing the same content keeps a single entry
		s.docs.Add(id, entry{doc: doc, embedding: resp.Embeddings[i].Embedding})
	}
	return nil
}

type scored struct {
	doc   *ai.Document
	score float64
}

func (s *store) retrieve(ctx context.Context, req *ai.RetrieverRequest) (*ai.RetrieverResponse, error) {
	o, err := retrieverOptions(req.Options)
	if err != nil {
		return nil, err
	}
	resp, err := ai.Embed(ctx, s.cfg.Embedder, ai.WithEmbedDocs(req.Query), ai.WithEmbedOptions(s.cfg.EmbedderOptions))
	if err != nil {
		return nil, err
	}
	query := resp.Embeddings[0].Embedding

	keys := s.docs.Keys()
	results := make([]scored, 0, len(keys))
	for _, id := range keys {
		e, ok := s.docs.Get(id)
		if !ok {
			continue
		}
		results = append(results, scored{doc: e.doc, score: cosineSimilarity(query, e.embedding)})
	}
	slices.SortStableFunc(results, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})

	out := &ai.RetrieverResponse{Documents: make([]*ai.Document, 0, min(o.K, len(results)))}
	for _, r := range results[:min(o.K, len(results))] {
		out.Documents = append(out.Documents, r.doc)
	}
	return out, nil
}

func retrieverOptions(options any) (RetrieverOptions, error) {
	var o RetrieverOptions
	switch v := options.(type) {
	case nil:
	case RetrieverOptions:
		o = v
	case *RetrieverOptions:
		if v != nil {
			o = *v
		}
	default:
		// options decoded from JSON arrive as a map
		b, err := json.Marshal(v)
		if err != nil {
			return o, fmt.Errorf("devstore: invalid retriever options: %w", err)
		}
		if err := json.Unmarshal(b, &o); err != nil {
			return o, fmt.Errorf("devstore: invalid retriever options: %w", err)
		}
	}
	if o.K < 0 {
		return o, fmt.Errorf("devstore: k must not be negative, got %d", o.K)
	}
	if o.K == 0 {
		o.K = defaultK
	}
	return o, nil
}

func documentID(doc *ai.Document) (string, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func cosineSimilarity(a, b []float32) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range n {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
