package model

import (
	"encoding/json"
	"errors"
	"strings"
)

// MessageContent represents message content on the wire (can be a plain
// string or an array of typed parts). It exists only at the inbound
// boundary; normalization flattens it to plain text.
type MessageContent struct {
	Text  *string
	Parts []ContentPart
}

// ContentPart is one element of a multi-part message content array.
// Only "text" parts survive flattening.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// IsEmpty returns whether the content carries neither text nor parts.
func (c MessageContent) IsEmpty() bool {
	return c.Text == nil && len(c.Parts) == 0
}

// Flatten returns the plain-text form of the content. Plain string content
// is returned unchanged. Part arrays keep only parts with type "text",
// joined by newlines; all other part types are dropped.
func (c MessageContent) Flatten() string {
	if c.Text != nil {
		return *c.Text
	}
	texts := make([]string, 0, len(c.Parts))
	for _, part := range c.Parts {
		if part.Type == "text" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}

func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.Text != nil {
		return json.Marshal(c.Text)
	}
	if len(c.Parts) > 0 {
		return json.Marshal(c.Parts)
	}
	return []byte(`""`), nil
}

func (c *MessageContent) UnmarshalJSON(data []byte) error {
	// Try string first
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		c.Text = &str
		return nil
	}

	// Try array of parts
	var parts []ContentPart
	if err := json.Unmarshal(data, &parts); err == nil {
		c.Parts = parts
		return nil
	}

	return errors.New("invalid content type: expected string or content part array")
}

// Usage represents token usage statistics in the front envelope.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}
