/*
Package googlegenai provides the Google Generative AI plugin: Gemini models and
embedders backed by github.com/google/generative-ai-go.

	g, err := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleGenAI{}))
	if err != nil {
		return err
	}

	text, err := genkit.GenerateText(ctx, g,
		ai.WithModel(googlegenai.Model(g, "gemini-1.5-flash")),
		ai.WithPromptText("Tell me a joke."),
	)

	res, err := ai.Embed(ctx, googlegenai.Embedder(g, "text-embedding-004"),
		ai.WithEmbedText(userInput),
		ai.WithEmbedOptions(googlegenai.EmbedConfig{TaskType: googlegenai.TaskTypeRetrievalQuery}),
	)

The API key is read from GoogleGenAI.APIKey, then GOOGLE_API_KEY, then GEMINI_API_KEY.
Actions are named GoogleGenAIName(model), for example "googleai/gemini-1.5-flash".
*/
package googlegenai
