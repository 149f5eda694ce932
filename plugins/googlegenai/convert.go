package googlegenai

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	json "github.com/goccy/go-json"

	"github.com/casualjim/genkit/ai"
	"github.com/casualjim/genkit/messages"
)

// toContents splits msgs into the system instruction and the conversation.
// Consecutive system messages are merged into one instruction.
func toContents(msgs []*messages.Message) (*genai.Content, []*genai.Content, error) {
	var (
		system   *genai.Content
		contents []*genai.Content
	)
	for i, m := range msgs {
		if m == nil {
			continue
		}
		parts, err := toParts(m.Content)
		if err != nil {
			return nil, nil, fmt.Errorf("googleai: message %d: %w", i, err)
		}

		switch m.Role {
		case messages.RoleSystem:
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, parts...)
		case messages.RoleModel:
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		case messages.RoleUser, messages.RoleTool:
			contents = append(contents, &genai.Content{Role: "user", Parts: parts})
		default:
			return nil, nil, fmt.Errorf("googleai: message %d: unsupported role %q", i, m.Role)
		}
	}
	return system, contents, nil
}

func toParts(parts []messages.Part) ([]genai.Part, error) {
	out := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		switch p := p.(type) {
		case messages.TextPart:
			out = append(out, genai.Text(p.Text))
		case messages.MediaPart:
			if strings.HasPrefix(p.URL, "data:") {
				contentType, data, err := decodeDataURL(p.URL)
				if err != nil {
					return nil, err
				}
				if p.ContentType != "" {
					contentType = p.ContentType
				}
				out = append(out, genai.Blob{MIMEType: contentType, Data: data})
				continue
			}
			out = append(out, genai.FileData{MIMEType: p.ContentType, URI: p.URL})
		case messages.DataPart:
			b, err := json.Marshal(p.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to encode data part: %w", err)
			}
			out = append(out, genai.Text(b))
		default:
			return nil, fmt.Errorf("unsupported part type %T", p)
		}
	}
	return out, nil
}

func decodeDataURL(url string) (string, []byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(url, "data:"), ",")
	if !ok {
		return "", nil, errors.New("malformed data URL")
	}
	contentType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return contentType, []byte(payload), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("malformed data URL: %w", err)
	}
	return contentType, data, nil
}

func fromParts(parts []genai.Part) []messages.Part {
	out := make([]messages.Part, 0, len(parts))
	for _, p := range parts {
		switch p := p.(type) {
		case genai.Text:
			out = append(out, messages.Text(string(p)))
		case genai.Blob:
			out = append(out, messages.Media(p.MIMEType, "data:"+p.MIMEType+";base64,"+base64.StdEncoding.EncodeToString(p.Data)))
		case genai.FileData:
			out = append(out, messages.Media(p.MIMEType, p.URI))
		default:
			out = append(out, messages.Data(p))
		}
	}
	return out
}

func toResponse(resp *genai.GenerateContentResponse) (*ai.ModelResponse, error) {
	if resp == nil {
		return nil, errors.New("googleai: empty response")
	}

	out := &ai.ModelResponse{Usage: toUsage(resp.UsageMetadata)}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			out.Message = messages.NewMessage(messages.RoleModel)
			out.FinishReason = ai.FinishReasonBlocked
			return out, nil
		}
		return nil, errors.New("googleai: response has no candidates")
	}

	cand := resp.Candidates[0]
	out.Message = messages.NewMessage(messages.RoleModel)
	if cand.Content != nil {
		out.Message.Content = fromParts(cand.Content.Parts)
	}
	out.FinishReason = toFinishReason(cand.FinishReason)
	return out, nil
}

func toFinishReason(fr genai.FinishReason) ai.FinishReason {
	switch fr {
	case genai.FinishReasonStop:
		return ai.FinishReasonStop
	case genai.FinishReasonMaxTokens:
		return ai.FinishReasonLength
	case genai.FinishReasonSafety, genai.FinishReasonRecitation:
		return ai.FinishReasonBlocked
	case genai.FinishReasonOther:
		return ai.FinishReasonOther
	default:
		return ai.FinishReasonUnknown
	}
}

func toUsage(md *genai.UsageMetadata) *ai.Usage {
	if md == nil {
		return nil
	}
	return &ai.Usage{
		InputTokens:  int(md.PromptTokenCount),
		OutputTokens: int(md.CandidatesTokenCount),
		TotalTokens:  int(md.TotalTokenCount),
	}
}
