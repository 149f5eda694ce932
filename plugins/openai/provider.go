package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/casualjim/genkit/ai"
	"github.com/casualjim/genkit/messages"
)

type chatProvider struct {
	client *openai.Client
}

func newChatProvider(options ...option.RequestOption) *chatProvider {
	return &chatProvider{client: openai.NewClient(options...)}
}

func (p *chatProvider) generate(ctx context.Context, model string, req *ai.ModelRequest) (*ai.ModelResponse, error) {
	params, err := buildRequest(model, req)
	if err != nil {
		return nil, fmt.Errorf("openai: failed to build request: %w", err)
	}

	chat, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: chat completion: %w", err)
	}

	resp, err := completionToResponse(chat)
	if err != nil {
		return nil, err
	}
	resp.Request = req
	return resp, nil
}

func buildRequest(model string, req *ai.ModelRequest) (openai.ChatCompletionNewParams, error) {
	msgs, err := messagesToOpenAI(req.Messages)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}
	if len(msgs) == 0 {
		return openai.ChatCompletionNewParams{}, errors.New("request has no messages")
	}

	params := openai.ChatCompletionNewParams{
		Messages: openai.F(msgs),
		Model:    openai.F(model),
		N:        openai.Int(1),
	}
	if cfg := req.Config; cfg != nil {
		if cfg.Temperature != nil {
			params.Temperature = openai.Float(*cfg.Temperature)
		}
		if cfg.TopP != nil {
			params.TopP = openai.Float(*cfg.TopP)
		}
		if cfg.MaxOutputTokens != nil {
			params.MaxCompletionTokens = openai.Int(int64(*cfg.MaxOutputTokens))
		}
		if len(cfg.StopSequences) > 0 {
			params.Stop = openai.F[openai.ChatCompletionNewParamsStopUnion](openai.ChatCompletionNewParamsStopArray(cfg.StopSequences))
		}
	}
	return params, nil
}

func messagesToOpenAI(msgs []*messages.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for i, msg := range msgs {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case messages.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Text()))
		case messages.RoleUser, messages.RoleTool:
			// tool output has no call id to answer, so it is replayed as user content
			parts, err := userParts(msg.Content)
			if err != nil {
				return nil, fmt.Errorf("message %d: %w", i, err)
			}
			result = append(result, openai.UserMessageParts(parts...))
		case messages.RoleModel:
			am := openai.ChatCompletionAssistantMessageParam{
				Role: openai.F(openai.ChatCompletionAssistantMessageParamRoleAssistant),
			}
			var content []openai.ChatCompletionAssistantMessageParamContentUnion
			for _, part := range msg.Content {
				if tp, ok := part.(messages.TextPart); ok {
					content = append(content, openai.TextPart(tp.Text))
				}
			}
			am.Content = openai.F(content)
			result = append(result, am)
		default:
			return nil, fmt.Errorf("message %d: unsupported role %q", i, msg.Role)
		}
	}
	return result, nil
}

func userParts(content []messages.Part) ([]openai.ChatCompletionContentPartUnionParam, error) {
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(content))
	for _, part := range content {
		switch part := part.(type) {
		case messages.TextPart:
			parts = append(parts, openai.TextPart(part.Text))
		case messages.MediaPart:
			if part.ContentType != "" && !strings.HasPrefix(part.ContentType, "image/") {
				return nil, fmt.Errorf("unsupported media type %q", part.ContentType)
			}
			parts = append(parts, openai.ChatCompletionContentPartImageParam{
				ImageURL: openai.F(openai.ChatCompletionContentPartImageImageURLParam{
					URL:    openai.String(part.URL),
					Detail: openai.F(openai.ChatCompletionContentPartImageImageURLDetailAuto),
				}),
				Type: openai.F(openai.ChatCompletionContentPartImageTypeImageURL),
			})
		case messages.DataPart:
			b, err := json.Marshal(part.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to encode data part: %w", err)
			}
			parts = append(parts, openai.TextPart(string(b)))
		}
	}
	return parts, nil
}

func completionToResponse(chat *openai.ChatCompletion) (*ai.ModelResponse, error) {
	if chat == nil || len(chat.Choices) == 0 {
		return nil, errors.New("openai: completion has no choices")
	}

	choice := chat.Choices[0]
	msg := messages.NewMessage(messages.RoleModel)
	if choice.Message.Content != "" {
		msg.Content = append(msg.Content, messages.Text(choice.Message.Content))
	}
	if choice.Message.Refusal != "" {
		msg.Content = append(msg.Content, messages.TextPart{
			Text:     choice.Message.Refusal,
			Metadata: messages.Metadata{"refusal": true},
		})
	}

	resp := &ai.ModelResponse{
		Message:      msg,
		FinishReason: toFinishReason(choice.FinishReason),
	}
	if chat.Usage.TotalTokens > 0 {
		resp.Usage = &ai.Usage{
			InputTokens:  int(chat.Usage.PromptTokens),
			OutputTokens: int(chat.Usage.CompletionTokens),
			TotalTokens:  int(chat.Usage.TotalTokens),
		}
	}
	return resp, nil
}

func toFinishReason(fr openai.ChatCompletionChoicesFinishReason) ai.FinishReason {
	switch fr {
	case openai.ChatCompletionChoicesFinishReasonStop:
		return ai.FinishReasonStop
	case openai.ChatCompletionChoicesFinishReasonLength:
		return ai.FinishReasonLength
	case openai.ChatCompletionChoicesFinishReasonContentFilter:
		return ai.FinishReasonBlocked
	case "":
		return ai.FinishReasonUnknown
	default:
		return ai.FinishReasonOther
	}
}
