package googlegenai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/casualjim/genkit"
	"github.com/casualjim/genkit/ai"
)

// GeminiVersion names a Gemini generation model.
type GeminiVersion string

const (
	Gemini15Flash            GeminiVersion = "gemini-1.5-flash"
	Gemini15Flash8B          GeminiVersion = "gemini-1.5-flash-8b"
	Gemini15Pro              GeminiVersion = "gemini-1.5-pro"
	Gemini20Flash            GeminiVersion = "gemini-2.0-flash"
	Gemini20FlashExp         GeminiVersion = "gemini-2.0-flash-exp"
	Gemini20FlashLite        GeminiVersion = "gemini-2.0-flash-lite"
	Gemini20FlashThinkingExp GeminiVersion = "gemini-2.0-flash-thinking-exp-01-21"
	Gemini20ProExp           GeminiVersion = "gemini-2.0-pro-exp-02-05"
	Gemini25ProExp           GeminiVersion = "gemini-2.5-pro-exp-03-25"
)

// GeminiVersions returns the models defined by Init.
func GeminiVersions() []GeminiVersion {
	return []GeminiVersion{
		Gemini15Flash,
		Gemini15Flash8B,
		Gemini15Pro,
		Gemini20Flash,
		Gemini20FlashExp,
		Gemini20FlashLite,
		Gemini20FlashThinkingExp,
		Gemini20ProExp,
		Gemini25ProExp,
	}
}

// Info describes the capabilities of the model.
func (v GeminiVersion) Info() ai.ModelInfo {
	return ai.ModelInfo{
		Label:    "Google AI - " + string(v),
		Versions: []string{string(v)},
		Supports: ai.ModelSupports{
			Multiturn:  true,
			Media:      true,
			SystemRole: true,
			Output:     []string{"text", ai.OutputFormatJSON},
		},
	}
}

func defineModel(g *genkit.Genkit, client *genai.Client, name string, info ai.ModelInfo) ai.Model {
	return genkit.DefineModel(g, Provider, name, info, func(ctx context.Context, req *ai.ModelRequest) (*ai.ModelResponse, error) {
		return generate(ctx, client.GenerativeModel(name), req)
	})
}

func generate(ctx context.Context, gm *genai.GenerativeModel, req *ai.ModelRequest) (*ai.ModelResponse, error) {
	system, contents, err := toContents(req.Messages)
	if err != nil {
		return nil, err
	}
	if len(contents) == 0 {
		return nil, errors.New("googleai: request has no user or model messages")
	}
	gm.SystemInstruction = system
	applyConfig(gm, req)

	var resp *genai.GenerateContentResponse
	last := contents[len(contents)-1]
	if len(contents) == 1 {
		resp, err = gm.GenerateContent(ctx, last.Parts...)
	} else {
		cs := gm.StartChat()
		cs.History = contents[:len(contents)-1]
		resp, err = cs.SendMessage(ctx, last.Parts...)
	}
	if err != nil {
		return nil, fmt.Errorf("googleai: generate: %w", err)
	}

	out, err := toResponse(resp)
	if err != nil {
		return nil, err
	}
	out.Request = req
	return out, nil
}

func applyConfig(gm *genai.GenerativeModel, req *ai.ModelRequest) {
	if cfg := req.Config; cfg != nil {
		if cfg.Temperature != nil {
			gm.SetTemperature(float32(*cfg.Temperature))
		}
		if cfg.TopP != nil {
			gm.SetTopP(float32(*cfg.TopP))
		}
		if cfg.TopK != nil {
			gm.SetTopK(int32(*cfg.TopK))
		}
		if cfg.MaxOutputTokens != nil {
			gm.SetMaxOutputTokens(int32(*cfg.MaxOutputTokens))
		}
		if len(cfg.StopSequences) > 0 {
			gm.StopSequences = cfg.StopSequences
		}
	}
	if req.Output != nil && strings.EqualFold(req.Output.Format, ai.OutputFormatJSON) {
		gm.ResponseMIMEType = "application/json"
	}
}
