package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/fogfish/opts"

	"github.com/casualjim/genkit/messages"
)

var (
	// ErrEmbedderRequired is returned when Embed is called without an embedder.
	ErrEmbedderRequired = errors.New("an embedder is required")
	// ErrNoDocuments is returned when Embed has nothing to embed.
	ErrNoDocuments = errors.New("no documents to embed")
)

type embedOptions struct {
	documents []*Document
	options   any
}

// EmbedOption configures an Embed call.
type EmbedOption = opts.Option[embedOptions]

// WithEmbedOptions passes embedder specific settings.
func WithEmbedOptions(options any) EmbedOption {
	return opts.Type[embedOptions](func(o *embedOptions) error {
		o.options = options
		return nil
	})
}

// WithEmbedText adds one text document per string.
func WithEmbedText(texts ...string) EmbedOption {
	return opts.Type[embedOptions](func(o *embedOptions) error {
		for _, t := range texts {
			o.documents = append(o.documents, DocumentFromText(t, nil))
		}
		return nil
	})
}

// WithEmbedDocs adds documents to embed.
func WithEmbedDocs(docs ...*Document) EmbedOption {
	return opts.Type[embedOptions](func(o *embedOptions) error {
		o.documents = append(o.documents, docs...)
		return nil
	})
}

// WithEmbedParts adds a single document made of parts.
func WithEmbedParts(parts ...messages.Part) EmbedOption {
	return opts.Type[embedOptions](func(o *embedOptions) error {
		o.documents = append(o.documents, &Document{Content: parts})
		return nil
	})
}

// Embed computes embeddings for the documents described by options.
func Embed(ctx context.Context, e Embedder, options ...EmbedOption) (*EmbedResponse, error) {
	if e == nil {
		return nil, ErrEmbedderRequired
	}
	var o embedOptions
	if err := opts.Apply(&o, options); err != nil {
		return nil, err
	}
	if len(o.documents) == 0 {
		return nil, ErrNoDocuments
	}

	resp, err := e.Embed(ctx, &EmbedRequest{Documents: o.documents, Options: o.options})
	if err != nil {
		return nil, fmt.Errorf("embedder %s failed: %w", e.Name(), err)
	}
	if resp == nil || len(resp.Embeddings) != len(o.documents) {
		return nil, fmt.Errorf("embedder %s returned %d embeddings for %d documents", e.Name(), embeddingsLen(resp), len(o.documents))
	}
	return resp, nil
}

func embeddingsLen(resp *EmbedResponse) int {
	if resp == nil {
		return 0
	}
	return len(resp.Embeddings)
}
