/*
Package genkit is the entry point of the toolkit: it initialises plugins, keeps the
registry of the actions they define and runs generation and embedding requests.

# Basic Usage

	g, err := genkit.Init(ctx,
		genkit.WithPlugins(&googlegenai.GoogleGenAI{}),
		genkit.WithDefaultModel(googlegenai.GoogleGenAIName(string(googlegenai.Gemini15Flash))),
	)
	if err != nil {
		return err
	}

	text, err := genkit.GenerateText(ctx, g, ai.WithPromptText("Tell me a joke."))
	if err != nil {
		return err
	}

# Plugins

A Plugin has a name and an Init method. Init is called once, in registration order,
and usually calls DefineModel and DefineEmbedder:

	func (p *Echo) Init(ctx context.Context, g *genkit.Genkit) error {
		genkit.DefineModel(g, "echo", "v1", ai.ModelInfo{Label: "Echo"}, p.generate)
		return nil
	}

Models and embedders are looked up again with LookupModel and LookupEmbedder.
DefineRetriever and DefineIndexer register document stores the same way; see
plugins/devstore for an in-memory one.

# Actions

Every model, embedder, retriever and indexer is an action keyed /<type>/<provider>/<name>. ListActions
describes them, including the JSON schemas of their input and output, and RunAction
runs one from a JSON input. The reflection API exposes both over HTTP.

# Thread Safety

Defining and looking up actions is safe for concurrent use. Init is not meant to be
called concurrently on the same plugins.
*/
package genkit
