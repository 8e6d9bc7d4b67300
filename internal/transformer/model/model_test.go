package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatRequest_ApplyModel(t *testing.T) {
	req := &ChatRequest{Model: "llama3"}
	req.ApplyModel("llama3:8b", 8192)

	assert.Equal(t, "llama3:8b", req.Model)
	assert.Equal(t, 8192, req.Params.ContextWindow)
}

func TestChatRequest_PromptText(t *testing.T) {
	req := &ChatRequest{
		Messages: []Message{
			{Role: "system", Content: "You are terse."},
			{Role: "user", Content: "Say hi."},
		},
	}
	assert.Equal(t, "You are terse.\nSay hi.", req.PromptText())
}

func TestChatRequest_PromptText_Empty(t *testing.T) {
	req := &ChatRequest{}
	assert.Equal(t, "", req.PromptText())
}
