package domain

import "strings"

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ImagePlaceholder stands in for an image wherever only text can be used.
const ImagePlaceholder = "(image provided)"

// ContentPart is one item of a multi-part message: TextPart or ImagePart.
type ContentPart interface {
	contentPart()
}

// TextPart is a plain text content item.
type TextPart struct {
	Text string
}

// ImagePart references an image by URL or data URL.
type ImagePart struct {
	URL string
}

func (TextPart) contentPart()  {}
func (ImagePart) contentPart() {}

// Turn is one entry of the conversation history. The set of implementations
// is closed: TextTurn, StructuredTurn and ImageTurn.
type Turn interface {
	TurnRole() Role
	turn()
}

// TextTurn is a turn whose content is a single string, such as a raw model reply.
type TextTurn struct {
	Role Role
	Text string
}

// StructuredTurn is a turn made of content items.
type StructuredTurn struct {
	Role  Role
	Parts []ContentPart
}

// ImageTurn is a user turn carrying an image reference and its caption text.
type ImageTurn struct {
	Role     Role
	Text     string
	ImageURL string
}

func (t TextTurn) TurnRole() Role       { return t.Role }
func (t StructuredTurn) TurnRole() Role { return t.Role }
func (t ImageTurn) TurnRole() Role      { return t.Role }

func (TextTurn) turn()       {}
func (StructuredTurn) turn() {}
func (ImageTurn) turn()      {}

// Message is one entry of a model request.
type Message struct {
	Role  Role
	Parts []ContentPart
}

// Text joins the message's text parts with single spaces.
func (m Message) Text() string {
	var texts []string
	for _, p := range m.Parts {
		if tp, ok := p.(TextPart); ok {
			texts = append(texts, tp.Text)
		}
	}
	return strings.Join(texts, " ")
}

// HasImage reports whether any part of the message is an image.
func (m Message) HasImage() bool {
	for _, p := range m.Parts {
		if _, ok := p.(ImagePart); ok {
			return true
		}
	}
	return false
}

// MessageFromTurn converts a history turn into a model message.
func MessageFromTurn(t Turn) Message {
	switch v := t.(type) {
	case TextTurn:
		return Message{Role: v.Role, Parts: []ContentPart{TextPart{Text: v.Text}}}
	case StructuredTurn:
		parts := make([]ContentPart, len(v.Parts))
		copy(parts, v.Parts)
		return Message{Role: v.Role, Parts: parts}
	case ImageTurn:
		return Message{Role: v.Role, Parts: []ContentPart{TextPart{Text: v.Text}, ImagePart{URL: v.ImageURL}}}
	default:
		panic("domain: unknown turn type")
	}
}
