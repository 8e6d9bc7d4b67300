package model

import (
	"encoding/json"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// TestMessageContent_StringFlatten_Identity verifies plain string content
// flattens to itself, whatever the string contains.
func TestMessageContent_StringFlatten_Identity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.String().Draw(t, "text")

		raw, err := json.Marshal(text)
		if err != nil {
			t.Fatalf("failed to marshal text: %v", err)
		}

		var content MessageContent
		if err := json.Unmarshal(raw, &content); err != nil {
			t.Fatalf("failed to unmarshal string content: %v", err)
		}

		if got := content.Flatten(); got != text {
			t.Fatalf("Flatten() = %q, expected %q", got, text)
		}
	})
}

// TestMessageContent_PartsFlatten_KeepsOnlyTextParts verifies that
// list-of-parts content keeps text parts in order, joined with newlines,
// and drops every other part type.
func TestMessageContent_PartsFlatten_KeepsOnlyTextParts(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		partCount := rapid.IntRange(0, 8).Draw(t, "partCount")

		parts := make([]map[string]any, 0, partCount)
		var wantTexts []string
		for i := 0; i < partCount; i++ {
			isText := rapid.Bool().Draw(t, "isText")
			text := rapid.StringN(0, 20, 40).Draw(t, "partText")
			if isText {
				parts = append(parts, map[string]any{"type": "text", "text": text})
				wantTexts = append(wantTexts, text)
			} else {
				parts = append(parts, map[string]any{
					"type":      "image_url",
					"image_url": map[string]any{"url": "https://example.com/" + text},
				})
			}
		}

		raw, err := json.Marshal(parts)
		if err != nil {
			t.Fatalf("failed to marshal parts: %v", err)
		}

		var content MessageContent
		if err := json.Unmarshal(raw, &content); err != nil {
			t.Fatalf("failed to unmarshal parts content: %v", err)
		}

		want := strings.Join(wantTexts, "\n")
		if got := content.Flatten(); got != want {
			t.Fatalf("Flatten() = %q, expected %q", got, want)
		}
	})
}

// TestMessageContent_FlattenIsStable verifies that flattening the same
// content twice gives the same text.
func TestMessageContent_FlattenIsStable(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.String().Draw(t, "text")
		content := MessageContent{Text: &text}

		first := content.Flatten()
		second := content.Flatten()
		if first != second {
			t.Fatalf("Flatten() unstable: %q then %q", first, second)
		}
	})
}

func TestMessageContent_UnmarshalRejectsOtherTypes(t *testing.T) {
	for _, raw := range []string{"42", "true", `{"type":"text"}`} {
		var content MessageContent
		if err := json.Unmarshal([]byte(raw), &content); err == nil {
			t.Fatalf("expected error unmarshaling %s", raw)
		}
	}
}

func TestMessageContent_EmptyPartsFlattenToEmpty(t *testing.T) {
	var content MessageContent
	if err := json.Unmarshal([]byte("[]"), &content); err != nil {
		t.Fatalf("failed to unmarshal empty parts: %v", err)
	}
	if got := content.Flatten(); got != "" {
		t.Fatalf("Flatten() = %q, expected empty", got)
	}
}
