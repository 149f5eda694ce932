package messages

import "slices"

// InjectInstructions embeds output instructions into a conversation.
//
// An empty instructions string, or a conversation that already carries resolved output
// instructions, leaves msgs untouched. Otherwise the instructions go into the first
// message holding a pending output placeholder, else the first system message, else the
// last user message. When none of those exist msgs is returned as is.
//
// The chosen message is copied: a pending placeholder in it is replaced by the
// instructions part, otherwise the part is appended. The result is a new slice in which
// every other message is the same pointer as in msgs.
func InjectInstructions(msgs []*Message, instructions string) []*Message {
	if instructions == "" {
		return msgs
	}

	if slices.ContainsFunc(msgs, hasResolvedOutput) {
		return msgs
	}

	target := slices.IndexFunc(msgs, hasPendingOutput)
	if target < 0 {
		target = slices.IndexFunc(msgs, hasRole(RoleSystem))
	}
	if target < 0 {
		target = lastIndexFunc(msgs, hasRole(RoleUser))
	}
	if target < 0 {
		return msgs
	}

	src := msgs[target]
	m := &Message{
		Role:     src.Role,
		Content:  slices.Clone(src.Content),
		Metadata: src.Metadata,
	}

	instructionsPart := TextPart{
		Text:     instructions,
		Metadata: Metadata{MetadataPurpose: PurposeOutput},
	}
	if idx := slices.IndexFunc(m.Content, isPendingOutput); idx >= 0 {
		m.Content[idx] = instructionsPart
	} else {
		m.Content = append(m.Content, instructionsPart)
	}

	out := slices.Clone(msgs)
	out[target] = m
	return out
}

func isPendingOutput(p Part) bool {
	return p != nil && p.PartMetadata().IsPendingOutput()
}

func isResolvedOutput(p Part) bool {
	return p != nil && p.PartMetadata().IsResolvedOutput()
}

func hasPendingOutput(m *Message) bool {
	return m != nil && slices.ContainsFunc(m.Content, isPendingOutput)
}

func hasResolvedOutput(m *Message) bool {
	return m != nil && slices.ContainsFunc(m.Content, isResolvedOutput)
}

func hasRole(role Role) func(*Message) bool {
	return func(m *Message) bool {
		return m != nil && m.Role == role
	}
}

func lastIndexFunc[S ~[]E, E any](s S, f func(E) bool) int {
	for i := len(s) - 1; i >= 0; i-- {
		if f(s[i]) {
			return i
		}
	}
	return -1
}
