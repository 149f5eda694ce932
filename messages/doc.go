// Package messages defines the conversation data model shared by models, embedders
// and plugins: messages made of parts, each part optionally carrying metadata.
//
// Design decisions:
//   - Copy on write: helpers that change a conversation return a new slice and share
//     every message they did not touch
//   - Pointer messages: conversations are []*Message so untouched messages stay
//     reference-equal across transformations
//   - Closed part set: TextPart, MediaPart and DataPart implement Part
//   - Wire compatible: messages encode to the same JSON shape the reflection API and the
//     other language runtimes use
//
// Example usage:
//
//	msgs := []*messages.Message{
//	    messages.NewSystemTextMessage("You are a helpful assistant"),
//	    messages.NewUserTextMessage("Name three colors"),
//	}
//	msgs = messages.InjectInstructions(msgs, "Respond with a JSON array of strings")
//
// The original slice is never modified; the system message above is replaced in the
// returned slice by a copy with an extra output part.
package messages
