package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/fogfish/opts"
	json "github.com/goccy/go-json"

	"github.com/casualjim/genkit/messages"
	"github.com/casualjim/genkit/pkg/jsonx"
)

var (
	// ErrModelRequired is returned when Generate is called without a model.
	ErrModelRequired = errors.New("a model is required")
	// ErrEmptyRequest is returned when Generate has no message to send.
	ErrEmptyRequest = errors.New("the request has no messages")
)

type generateOptions struct {
	model              Model
	history            []*messages.Message
	system             string
	prompt             string
	config             *GenerationConfig
	outputSchema       any
	outputInstructions string
}

// GenerateOption configures a Generate call.
type GenerateOption = opts.Option[generateOptions]

var (
	// WithSystemText adds a leading system message.
	WithSystemText = opts.ForName[generateOptions, string]("system")
	// WithPromptText adds a trailing user message.
	WithPromptText = opts.ForName[generateOptions, string]("prompt")
	// WithConfig sets the generation config.
	WithConfig = opts.ForName[generateOptions, *GenerationConfig]("config")
	// WithOutputInstructions sets the output instructions injected into the conversation.
	// When empty and an output schema is set, instructions are derived from the schema.
	WithOutputInstructions = opts.ForName[generateOptions, string]("outputInstructions")
)

// WithModel sets the model to call. A nil model is ignored.
func WithModel(m Model) GenerateOption {
	return opts.Type[generateOptions](func(o *generateOptions) error {
		if m != nil {
			o.model = m
		}
		return nil
	})
}

// WithMessages appends conversation history placed between the system text and the prompt.
func WithMessages(msgs ...*messages.Message) GenerateOption {
	return opts.Type[generateOptions](func(o *generateOptions) error {
		o.history = append(o.history, msgs...)
		return nil
	})
}

// WithOutputSchema requests JSON output shaped like the type of v.
func WithOutputSchema(v any) GenerateOption {
	return opts.Type[generateOptions](func(o *generateOptions) error {
		if v == nil {
			return errors.New("output schema value cannot be nil")
		}
		o.outputSchema = v
		return nil
	})
}

// DefaultOutputInstructions renders the instructions that ask a model to follow schema.
func DefaultOutputInstructions(schema map[string]any) (string, error) {
	b, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("failed to encode output schema: %w", err)
	}
	return fmt.Sprintf("Output should be in JSON format and conform to the following schema:\n\n```\n%s\n```\n", b), nil
}

// NewRequest assembles the model request described by options without calling a model.
// The returned model is nil when no WithModel option was given.
func NewRequest(options ...GenerateOption) (*ModelRequest, Model, error) {
	var o generateOptions
	if err := opts.Apply(&o, options); err != nil {
		return nil, nil, err
	}

	msgs := make([]*messages.Message, 0, len(o.history)+2)
	if o.system != "" {
		msgs = append(msgs, messages.NewSystemTextMessage(o.system))
	}
	msgs = append(msgs, o.history...)
	if o.prompt != "" {
		msgs = append(msgs, messages.NewUserTextMessage(o.prompt))
	}
	if len(msgs) == 0 {
		return nil, o.model, ErrEmptyRequest
	}

	req := &ModelRequest{Messages: msgs, Config: o.config}

	instructions := o.outputInstructions
	if o.outputSchema != nil {
		schema, err := jsonx.Schema(o.outputSchema)
		if err != nil {
			return nil, o.model, fmt.Errorf("failed to reflect output schema: %w", err)
		}
		req.Output = &OutputConfig{Format: OutputFormatJSON, Schema: schema}
		if instructions == "" {
			if instructions, err = DefaultOutputInstructions(schema); err != nil {
				return nil, o.model, err
			}
		}
	}
	req.Messages = messages.InjectInstructions(req.Messages, instructions)

	return req, o.model, nil
}

// Generate builds a request from options and runs it on the configured model.
func Generate(ctx context.Context, options ...GenerateOption) (*ModelResponse, error) {
	req, m, err := NewRequest(options...)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrModelRequired
	}

	resp, err := m.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("model %s failed: %w", m.Name(), err)
	}
	if resp == nil {
		return nil, fmt.Errorf("model %s returned no response", m.Name())
	}
	if resp.Request == nil {
		resp.Request = req
	}
	return resp, nil
}

// GenerateText runs Generate and returns the text of the response.
func GenerateText(ctx context.Context, options ...GenerateOption) (string, error) {
	resp, err := Generate(ctx, options...)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
