package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/fogfish/opts"
)

var (
	// ErrRetrieverRequired is returned when Retrieve is called without a retriever.
	ErrRetrieverRequired = errors.New("a retriever is required")
	// ErrQueryRequired is returned when Retrieve has no query document.
	ErrQueryRequired = errors.New("a query document is required")
	// ErrIndexerRequired is returned when Index is called without an indexer.
	ErrIndexerRequired = errors.New("an indexer is required")
)

// RetrieverRequest is the input of a retriever action.
// Options carries retriever specific settings.
type RetrieverRequest struct {
	Query   *Document `json:"query"`
	Options any       `json:"options,omitempty"`
}

// RetrieverResponse is the output of a retriever action, most relevant document first.
type RetrieverResponse struct {
	Documents []*Document `json:"documents"`
}

// Retriever finds the documents relevant to a query document.
type Retriever interface {
	// Name returns the qualified retriever name, for example "devstore/facts".
	Name() string
	Retrieve(ctx context.Context, req *RetrieverRequest) (*RetrieverResponse, error)
}

// RetrieverFunc is the signature of a retriever implementation.
type RetrieverFunc func(ctx context.Context, req *RetrieverRequest) (*RetrieverResponse, error)

var _ Retriever = (*retriever)(nil)

type retriever struct {
	name string
	fn   RetrieverFunc
}

// NewRetriever wraps fn as a Retriever.
func NewRetriever(name string, fn RetrieverFunc) Retriever {
	return &retriever{name: name, fn: fn}
}

func (r *retriever) Name() string {
	return r.name
}

func (r *retriever) Retrieve(ctx context.Context, req *RetrieverRequest) (*RetrieverResponse, error) {
	return r.fn(ctx, req)
}

type retrieveOptions struct {
	query   *Document
	options any
}

// RetrieveOption configures a Retrieve call.
type RetrieveOption = opts.Option[retrieveOptions]

// WithRetrieverText uses a single text document as the query.
func WithRetrieverText(text string) RetrieveOption {
	return opts.Type[retrieveOptions](func(o *retrieveOptions) error {
		o.query = DocumentFromText(text, nil)
		return nil
	})
}

// WithRetrieverDoc uses doc as the query.
func WithRetrieverDoc(doc *Document) RetrieveOption {
	return opts.Type[retrieveOptions](func(o *retrieveOptions) error {
		o.query = doc
		return nil
	})
}

// WithRetrieverOptions passes retriever specific settings.
func WithRetrieverOptions(options any) RetrieveOption {
	return opts.Type[retrieveOptions](func(o *retrieveOptions) error {
		o.options = options
		return nil
	})
}

// Retrieve asks r for the documents relevant to the query described by options.
func Retrieve(ctx context.Context, r Retriever, options ...RetrieveOption) (*RetrieverResponse, error) {
	if r == nil {
		return nil, ErrRetrieverRequired
	}
	var o retrieveOptions
	if err := opts.Apply(&o, options); err != nil {
		return nil, err
	}
	if o.query == nil {
		return nil, ErrQueryRequired
	}

	resp, err := r.Retrieve(ctx, &RetrieverRequest{Query: o.query, Options: o.options})
	if err != nil {
		return nil, fmt.Errorf("retriever %s failed: %w", r.Name(), err)
	}
	if resp == nil {
		resp = &RetrieverResponse{}
	}
	return resp, nil
}

// IndexerRequest is the input of an indexer action.
type IndexerRequest struct {
	Documents []*Document `json:"documents"`
	Options   any         `json:"options,omitempty"`
}

// Indexer stores documents so a retriever can find them later.
type Indexer interface {
	// Name returns the qualified indexer name.
	Name() string
	Index(ctx context.Context, req *IndexerRequest) error
}

// IndexerFunc is the signature of an indexer implementation.
type IndexerFunc func(ctx context.Context, req *IndexerRequest) error

var _ Indexer = (*indexer)(nil)

type indexer struct {
	name string
	fn   IndexerFunc
}

// NewIndexer wraps fn as an Indexer.
func NewIndexer(name string, fn IndexerFunc) Indexer {
	return &indexer{name: name, fn: fn}
}

func (i *indexer) Name() string {
	return i.name
}

func (i *indexer) Index(ctx context.Context, req *IndexerRequest) error {
	return i.fn(ctx, req)
}

type indexOptions struct {
	documents []*Document
	options   any
}

// IndexOption configures an Index call.
type IndexOption = opts.Option[indexOptions]

// WithIndexerDocs adds documents to index.
func WithIndexerDocs(docs ...*Document) IndexOption {
	return opts.Type[indexOptions](func(o *indexOptions) error {
		o.documents = append(o.documents, docs...)
		return nil
	})
}

// WithIndexerOptions passes indexer specific settings.
func WithIndexerOptions(options any) IndexOption {
	return opts.Type[indexOptions](func(o *indexOptions) error {
		o.options = options
		return nil
	})
}

// Index stores the documents described by options with i.
func Index(ctx context.Context, i Indexer, options ...IndexOption) error {
	if i == nil {
		return ErrIndexerRequired
	}
	var o indexOptions
	if err := opts.Apply(&o, options); err != nil {
		return err
	}
	if len(o.documents) == 0 {
		return ErrNoDocuments
	}
	if err := i.Index(ctx, &IndexerRequest{Documents: o.documents, Options: o.options}); err != nil {
		return fmt.Errorf("indexer %s failed: %w", i.Name(), err)
	}
	return nil
}
