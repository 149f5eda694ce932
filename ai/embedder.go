package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/casualjim/genkit/messages"
)

// Document is a piece of content to embed or retrieve.
type Document struct {
	Content  []messages.Part   `json:"content"`
	Metadata messages.Metadata `json:"metadata,omitempty"`
}

// DocumentFromText creates a document holding a single text part.
func DocumentFromText(text string, md messages.Metadata) *Document {
	return &Document{Content: []messages.Part{messages.Text(text)}, Metadata: md}
}

// Text concatenates the text parts of the document.
func (d *Document) Text() string {
	if d == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range d.Content {
		if tp, ok := p.(messages.TextPart); ok {
			sb.WriteString(tp.Text)
		}
	}
	return sb.String()
}

// UnmarshalJSON implements json.Unmarshaler for Document.
func (d *Document) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("invalid json: %s", input)
	}
	jv := gjson.ParseBytes(input)
	content := jv.Get("content")
	if !content.IsArray() {
		return fmt.Errorf("missing required array 'content'")
	}
	aj := content.Array()
	parts := make([]messages.Part, len(aj))
	for idx, ajv := range aj {
		p, err := messages.ParsePart([]byte(ajv.Raw))
		if err != nil {
			return fmt.Errorf("invalid document part at %d: %w", idx, err)
		}
		parts[idx] = p
	}
	d.Content = parts
	d.Metadata = nil
	if md, ok := jv.Get("metadata").Value().(map[string]any); ok {
		d.Metadata = md
	}
	return nil
}

// EmbedRequest is the input of an embedder action.
// Options carries embedder specific settings.
type EmbedRequest struct {
	Documents []*Document `json:"input"`
	Options   any         `json:"options,omitempty"`
}

// Embedding is the vector computed for one document.
type Embedding struct {
	Embedding []float32         `json:"embedding"`
	Metadata  messages.Metadata `json:"metadata,omitempty"`
}

// EmbedResponse is the output of an embedder action, one embedding per input document.
type EmbedResponse struct {
	Embeddings []*Embedding `json:"embeddings"`
}

// Embedder computes vector embeddings for documents.
type Embedder interface {
	// Name returns the qualified embedder name, for example "googleai/text-embedding-004".
	Name() string
	// Embed computes one embedding per document in req.
	Embed(ctx context.Context, req *EmbedRequest) (*EmbedResponse, error)
}

// EmbedderFunc is the signature of an embedder implementation.
type EmbedderFunc func(ctx context.Context, req *EmbedRequest) (*EmbedResponse, error)

var _ Embedder = (*embedder)(nil)

type embedder struct {
	name string
	fn   EmbedderFunc
}

// NewEmbedder wraps fn as an Embedder.
func NewEmbedder(name string, fn EmbedderFunc) Embedder {
	return &embedder{name: name, fn: fn}
}

func (e *embedder) Name() string {
	return e.name
}

func (e *embedder) Embed(ctx context.Context, req *EmbedRequest) (*EmbedResponse, error) {
	return e.fn(ctx, req)
}
