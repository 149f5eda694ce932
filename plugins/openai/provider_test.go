package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-openapi/swag"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/casualjim/genkit"
	"github.com/casualjim/genkit/ai"
	"github.com/casualjim/genkit/messages"
)

func setupTestServer(t *testing.T, handler http.HandlerFunc) (*genkit.Genkit, *OpenAI) {
	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
	})

	plugin := &OpenAI{
		APIKey:  "test-key",
		Options: []option.RequestOption{option.WithBaseURL(server.URL + "/v1/"), option.WithMaxRetries(0)},
	}
	g, err := genkit.Init(context.Background(), genkit.WithPlugins(plugin))
	require.NoError(t, err)
	return g, plugin
}

func TestInit_DefinesModels(t *testing.T) {
	g, plugin := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	for _, name := range Models() {
		m := Model(g, name)
		require.NotNil(t, m, name)
		assert.Equal(t, Provider+"/"+name, m.Name())
	}
	assert.False(t, Model(g, openai.ChatModelO1Mini).Info().Supports.SystemRole)
	assert.True(t, Model(g, openai.ChatModelGPT4oMini).Info().Supports.Media)

	custom, err := plugin.DefineModel(g, "gpt-4.1-nano", nil)
	require.NoError(t, err)
	assert.Same(t, custom, Model(g, "gpt-4.1-nano"))

	assert.Error(t, plugin.Init(context.Background(), g))
}

func TestDefineModel_NotInitialized(t *testing.T) {
	g, err := genkit.Init(context.Background())
	require.NoError(t, err)
	_, err = (&OpenAI{}).DefineModel(g, "gpt-4o", nil)
	assert.Error(t, err)
}

func TestBuildRequest(t *testing.T) {
	req := &ai.ModelRequest{
		Messages: []*messages.Message{
			messages.NewSystemTextMessage("Test instructions"),
			messages.NewUserTextMessage("Hello"),
			messages.NewModelTextMessage("Hi there"),
			messages.NewMessage(messages.RoleUser,
				messages.Text("What is this?"),
				messages.Media("image/png", "https://example.com/cat.png"),
			),
		},
		Config: &ai.GenerationConfig{
			Temperature:     swag.Float64(0.1),
			TopP:            swag.Float64(0.9),
			MaxOutputTokens: swag.Int(64),
			StopSequences:   []string{"STOP"},
		},
	}

	params, err := buildRequest(openai.ChatModelGPT4oMini, req)
	require.NoError(t, err)

	assert.Equal(t, openai.ChatModelGPT4oMini, params.Model.Value)
	assert.Equal(t, int64(1), params.N.Value)
	assert.Equal(t, 0.1, params.Temperature.Value)
	assert.Equal(t, 0.9, params.TopP.Value)
	assert.Equal(t, int64(64), params.MaxCompletionTokens.Value)
	assert.Equal(t, openai.ChatCompletionNewParamsStopArray{"STOP"}, params.Stop.Value)

	msgs := params.Messages.Value
	require.Len(t, msgs, 4)

	systemMsg := msgs[0].(openai.ChatCompletionSystemMessageParam)
	assert.Equal(t, "Test instructions", systemMsg.Content.Value[0].Text.Value)

	userMsg := msgs[1].(openai.ChatCompletionUserMessageParam)
	assert.Equal(t, "Hello", userMsg.Content.Value[0].(openai.ChatCompletionContentPartTextParam).Text.Value)

	assistantMsg := msgs[2].(openai.ChatCompletionAssistantMessageParam)
	assert.Equal(t, openai.ChatCompletionAssistantMessageParamRoleAssistant, assistantMsg.Role.Value)
	require.Len(t, assistantMsg.Content.Value, 1)

	imageMsg := msgs[3].(openai.ChatCompletionUserMessageParam)
	require.Len(t, imageMsg.Content.Value, 2)
	image := imageMsg.Content.Value[1].(openai.ChatCompletionContentPartImageParam)
	assert.Equal(t, "https://example.com/cat.png", image.ImageURL.Value.URL.Value)
}

func TestBuildRequest_Errors(t *testing.T) {
	_, err := buildRequest(openai.ChatModelO1, &ai.ModelRequest{})
	assert.Error(t, err)

	_, err = buildRequest(openai.ChatModelO1, &ai.ModelRequest{
		Messages: []*messages.Message{messages.NewTextMessage("narrator", "42")},
	})
	assert.ErrorContains(t, err, "unsupported role")

	_, err = buildRequest(openai.ChatModelO1, &ai.ModelRequest{
		Messages: []*messages.Message{messages.NewMessage(messages.RoleUser, messages.Media("audio/wav", "https://example.com/a.wav"))},
	})
	assert.ErrorContains(t, err, "audio/wav")
}

func TestBuildRequest_ToolMessagesAreSentAsUser(t *testing.T) {
	params, err := buildRequest(openai.ChatModelGPT4oMini, &ai.ModelRequest{
		Messages: []*messages.Message{messages.NewTextMessage(messages.RoleTool, "42")},
	})
	require.NoError(t, err)

	msgs := params.Messages.Value
	require.Len(t, msgs, 1)
	userMsg, ok := msgs[0].(openai.ChatCompletionUserMessageParam)
	require.True(t, ok)
	assert.Equal(t, "42", userMsg.Content.Value[0].(openai.ChatCompletionContentPartTextParam).Text.Value)
}

func TestGenerate(t *testing.T) {
	g, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, "gpt-4o-mini", gjson.GetBytes(body, "model").String())
		assert.Equal(t, "user", gjson.GetBytes(body, "messages.0.role").String())
		assert.Equal(t, "Tell me a joke.", gjson.GetBytes(body, "messages.0.content.0.text").String())

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "test-id",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "Why did the gopher cross the road?"},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 4, "completion_tokens": 9, "total_tokens": 13}
		}`)
	})

	resp, err := genkit.Generate(context.Background(), g,
		ai.WithModel(Model(g, openai.ChatModelGPT4oMini)),
		ai.WithPromptText("Tell me a joke."),
	)
	require.NoError(t, err)

	assert.Equal(t, "Why did the gopher cross the road?", resp.Text())
	assert.Equal(t, messages.RoleModel, resp.Message.Role)
	assert.Equal(t, ai.FinishReasonStop, resp.FinishReason)
	assert.Equal(t, &ai.Usage{InputTokens: 4, OutputTokens: 9, TotalTokens: 13}, resp.Usage)
	require.NotNil(t, resp.Request)
}

func TestGenerate_APIError(t *testing.T) {
	g, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	})

	_, err := genkit.Generate(context.Background(), g,
		ai.WithModel(Model(g, openai.ChatModelO1)),
		ai.WithPromptText("hi"),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai: chat completion")
}

func TestCompletionToResponse(t *testing.T) {
	_, err := completionToResponse(&openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{}})
	assert.Error(t, err)

	resp, err := completionToResponse(&openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Refusal: "I can't help with that"},
			FinishReason: openai.ChatCompletionChoicesFinishReasonContentFilter,
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, ai.FinishReasonBlocked, resp.FinishReason)
	assert.Nil(t, resp.Usage)
	require.Len(t, resp.Message.Content, 1)
	assert.Equal(t, true, resp.Message.Content[0].PartMetadata()["refusal"])
}

func TestToFinishReason(t *testing.T) {
	assert.Equal(t, ai.FinishReasonStop, toFinishReason(openai.ChatCompletionChoicesFinishReasonStop))
	assert.Equal(t, ai.FinishReasonLength, toFinishReason(openai.ChatCompletionChoicesFinishReasonLength))
	assert.Equal(t, ai.FinishReasonOther, toFinishReason(openai.ChatCompletionChoicesFinishReasonToolCalls))
	assert.Equal(t, ai.FinishReasonUnknown, toFinishReason(""))
}
