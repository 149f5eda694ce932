package messages

const (
	// MetadataPurpose is the metadata key that describes what a part is for.
	MetadataPurpose = "purpose"
	// MetadataPending marks a part as a placeholder that still has to be filled in.
	MetadataPending = "pending"

	// PurposeOutput is the purpose of parts that carry output instructions.
	PurposeOutput = "output"
)

// Metadata holds arbitrary annotations for a part or a message.
// All accessors are safe to call on a nil Metadata.
type Metadata map[string]any

// Get returns the value stored under key and whether it was present.
func (m Metadata) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// Purpose returns the purpose annotation, or the empty string when it is absent
// or not a string.
func (m Metadata) Purpose() string {
	v, _ := m[MetadataPurpose].(string)
	return v
}

// Pending reports whether the part is marked as pending.
// Absent or non-boolean values count as false.
func (m Metadata) Pending() bool {
	v, _ := m[MetadataPending].(bool)
	return v
}

// IsOutput reports whether the part is an output instructions part.
func (m Metadata) IsOutput() bool {
	return m.Purpose() == PurposeOutput
}

// IsPendingOutput reports whether the part is the placeholder reserved for output instructions.
func (m Metadata) IsPendingOutput() bool {
	return m.IsOutput() && m.Pending()
}

// IsResolvedOutput reports whether the part already carries the final output instructions.
func (m Metadata) IsResolvedOutput() bool {
	return m.IsOutput() && !m.Pending()
}
