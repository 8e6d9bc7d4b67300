package inbound

import (
	"llamabridge/internal/transformer/inbound/openai"
	"llamabridge/internal/transformer/model"
)

// InboundType defines the type of inbound transformer
type InboundType int

const (
	// InboundTypeChatCompletion represents the chat completions format
	InboundTypeChatCompletion InboundType = iota
	// InboundTypeTextCompletion represents the legacy completions format
	InboundTypeTextCompletion
)

// String returns the string representation of InboundType
func (t InboundType) String() string {
	switch t {
	case InboundTypeChatCompletion:
		return "chat_completion"
	case InboundTypeTextCompletion:
		return "text_completion"
	default:
		return "unknown"
	}
}

// inboundFactories maps InboundType to factory functions that create
// per-request Inbound instances.
var inboundFactories = map[InboundType]func() model.Inbound{
	InboundTypeChatCompletion: func() model.Inbound {
		return openai.NewChatInbound()
	},
	InboundTypeTextCompletion: func() model.Inbound {
		return openai.NewCompletionInbound()
	},
}

// GetInbound returns a fresh Inbound transformer instance for the given
// type. Returns nil if the type is not registered.
func GetInbound(inboundType InboundType) model.Inbound {
	if factory, ok := inboundFactories[inboundType]; ok {
		return factory()
	}
	return nil
}

// IsRegistered checks if an InboundType is registered in the factory
func IsRegistered(inboundType InboundType) bool {
	_, ok := inboundFactories[inboundType]
	return ok
}

// RegisteredTypes returns a slice of all registered InboundTypes
func RegisteredTypes() []InboundType {
	types := make([]InboundType, 0, len(inboundFactories))
	for t := range inboundFactories {
		types = append(types, t)
	}
	return types
}

// GetEmbeddingInbound returns the embedding request normalizer/renderer.
func GetEmbeddingInbound() model.EmbeddingInbound {
	return openai.NewEmbeddingInbound()
}
