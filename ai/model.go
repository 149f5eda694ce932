package ai

import (
	"context"
	"errors"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/casualjim/genkit/messages"
)

// OutputFormatJSON requests JSON output from the model.
const OutputFormatJSON = "json"

// GenerationConfig holds the common sampling settings understood by most models.
// Nil fields are left to the model's defaults.
type GenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	TopK            *int     `json:"topK,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

// OutputConfig describes the shape of the output the caller expects.
type OutputConfig struct {
	Format string         `json:"format,omitempty"`
	Schema map[string]any `json:"schema,omitempty"`
}

// ModelRequest is the input of a model action.
type ModelRequest struct {
	Messages []*messages.Message `json:"messages"`
	Config   *GenerationConfig   `json:"config,omitempty"`
	Output   *OutputConfig       `json:"output,omitempty"`
}

// FinishReason tells why a model stopped generating.
type FinishReason string

const (
	FinishReasonStop    FinishReason = "stop"
	FinishReasonLength  FinishReason = "length"
	FinishReasonBlocked FinishReason = "blocked"
	FinishReasonOther   FinishReason = "other"
	FinishReasonUnknown FinishReason = "unknown"
)

// Usage reports token consumption for a single generation.
type Usage struct {
	InputTokens  int `json:"inputTokens,omitempty"`
	OutputTokens int `json:"outputTokens,omitempty"`
	TotalTokens  int `json:"totalTokens,omitempty"`
}

// ModelResponse is the output of a model action.
type ModelResponse struct {
	Message      *messages.Message `json:"message"`
	FinishReason FinishReason      `json:"finishReason,omitempty"`
	Usage        *Usage            `json:"usage,omitempty"`
	Request      *ModelRequest     `json:"request,omitempty"`
}

// Text returns the concatenated text of the response message.
func (r *ModelResponse) Text() string {
	if r == nil {
		return ""
	}
	return r.Message.Text()
}

// Output decodes the JSON text of the response into v.
// A surrounding markdown code fence is ignored.
func (r *ModelResponse) Output(v any) error {
	text := strings.TrimSpace(r.Text())
	if text == "" {
		return errors.New("response has no text output")
	}
	return json.Unmarshal([]byte(stripCodeFence(text)), v)
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}

// ModelSupports lists the capabilities of a model.
type ModelSupports struct {
	Multiturn  bool     `json:"multiturn"`
	Media      bool     `json:"media"`
	SystemRole bool     `json:"systemRole"`
	Output     []string `json:"output,omitempty"`
}

// ModelInfo describes a model for listings and capability checks.
type ModelInfo struct {
	Label    string        `json:"label,omitempty"`
	Versions []string      `json:"versions,omitempty"`
	Supports ModelSupports `json:"supports"`
}

// Model generates a response for a conversation.
type Model interface {
	// Name returns the qualified model name, for example "googleai/gemini-1.5-flash".
	Name() string
	// Info returns the model description.
	Info() ModelInfo
	// Generate runs the model on req.
	Generate(ctx context.Context, req *ModelRequest) (*ModelResponse, error)
}

// ModelFunc is the signature of a model implementation.
type ModelFunc func(ctx context.Context, req *ModelRequest) (*ModelResponse, error)

var _ Model = (*model)(nil)

type model struct {
	name string
	info ModelInfo
	fn   ModelFunc
}

// NewModel wraps fn as a Model.
func NewModel(name string, info ModelInfo, fn ModelFunc) Model {
	return &model{name: name, info: info, fn: fn}
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Info() ModelInfo {
	return m.info
}

func (m *model) Generate(ctx context.Context, req *ModelRequest) (*ModelResponse, error) {
	return m.fn(ctx, req)
}
