package messages

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Role identifies who produced a message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleTool   Role = "tool"
)

// Message is a single turn of a conversation.
type Message struct {
	Role     Role     `json:"role"`
	Content  []Part   `json:"content"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// NewMessage creates a message with the given role and parts.
func NewMessage(role Role, parts ...Part) *Message {
	return &Message{Role: role, Content: parts}
}

// NewTextMessage creates a message holding a single text part.
func NewTextMessage(role Role, text string) *Message {
	return NewMessage(role, Text(text))
}

// NewSystemTextMessage creates a system message holding a single text part.
func NewSystemTextMessage(text string) *Message {
	return NewTextMessage(RoleSystem, text)
}

// NewUserTextMessage creates a user message holding a single text part.
func NewUserTextMessage(text string) *Message {
	return NewTextMessage(RoleUser, text)
}

// NewModelTextMessage creates a model message holding a single text part.
func NewModelTextMessage(text string) *Message {
	return NewTextMessage(RoleModel, text)
}

// Text concatenates the text of every text part in the message.
func (m *Message) Text() string {
	if m == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range m.Content {
		if tp, ok := p.(TextPart); ok {
			sb.WriteString(tp.Text)
		}
	}
	return sb.String()
}

// UnmarshalJSON implements json.Unmarshaler for Message.
// Each content element is decoded with ParsePart.
func (m *Message) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("invalid json: %s", input)
	}
	jv := gjson.ParseBytes(input)
	role := jv.Get("role")
	if !role.Exists() {
		return fmt.Errorf("missing required field 'role'")
	}

	content := jv.Get("content")
	var parts []Part
	if content.Exists() && content.Type != gjson.Null {
		if !content.IsArray() {
			return fmt.Errorf("'content' must be an array")
		}
		aj := content.Array()
		parts = make([]Part, len(aj))
		for idx, ajv := range aj {
			p, err := ParsePart([]byte(ajv.Raw))
			if err != nil {
				return fmt.Errorf("invalid part at %d: %w", idx, err)
			}
			parts[idx] = p
		}
	}

	md, err := parseMetadata(jv.Get("metadata"))
	if err != nil {
		return err
	}

	m.Role = Role(role.String())
	m.Content = parts
	m.Metadata = md
	return nil
}
