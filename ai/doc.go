// Package ai defines the contracts between the genkit facade and the model and
// embedder implementations contributed by plugins, plus the Generate and Embed
// helpers that assemble requests for them.
//
// Design decisions:
//   - Plugins implement Model and Embedder, usually through NewModel and NewEmbedder
//   - Request types are plain JSON-tagged structs so actions can be run from the
//     reflection API
//   - Output instructions are injected into the conversation with
//     messages.InjectInstructions right before the model is called
//
// Example usage:
//
//	resp, err := ai.Generate(ctx,
//	    ai.WithModel(model),
//	    ai.WithSystemText("You are a chef"),
//	    ai.WithPromptText("Invent a dessert"),
//	    ai.WithOutputSchema(Recipe{}),
//	)
//	if err != nil {
//	    return err
//	}
//	var recipe Recipe
//	if err := resp.Output(&recipe); err != nil {
//	    return err
//	}
package ai
