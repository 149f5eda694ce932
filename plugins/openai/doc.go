/*
Package openai provides the OpenAI plugin: chat models backed by
github.com/openai/openai-go.

# Available Models

Init defines these models, named "openai/<model>":

  - gpt-4o-mini: smaller, faster GPT-4o model
  - chatgpt-4o-latest: the GPT-4o model used in ChatGPT
  - o1-mini: smaller version of the o1 reasoning model
  - o1: full o1 reasoning model

Other chat models can be added with OpenAI.DefineModel.

# Message Handling

System messages become system instructions, user messages keep their text and
image parts, and model messages are replayed as assistant messages. Tool
messages are sent as user messages, as the Google GenAI plugin does. Data parts
are sent as JSON text.

	g, err := genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
	if err != nil {
		return err
	}
	text, err := genkit.GenerateText(ctx, g,
		ai.WithModel(openai.Model(g, "gpt-4o-mini")),
		ai.WithPromptText("Tell me a joke."),
	)

The client reads OPENAI_API_KEY unless OpenAI.APIKey is set. OpenAI.Options
accepts any option.RequestOption, for example option.WithBaseURL. A base URL
with a path must end in a slash, as in "http://localhost:8080/v1/"; without it
the last path segment is dropped when request paths are resolved.
*/
package openai
