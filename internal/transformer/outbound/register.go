package outbound

import (
	"llamabridge/internal/transformer/model"
	"llamabridge/internal/transformer/outbound/ollama"
)

// OutboundType defines the type of outbound transformer
type OutboundType int

const (
	// OutboundTypeOllamaChat represents the backend chat endpoint
	OutboundTypeOllamaChat OutboundType = iota
	// OutboundTypeOllamaGenerate represents the backend generate endpoint
	OutboundTypeOllamaGenerate
)

// String returns the string representation of OutboundType
func (t OutboundType) String() string {
	switch t {
	case OutboundTypeOllamaChat:
		return "ollama_chat"
	case OutboundTypeOllamaGenerate:
		return "ollama_generate"
	default:
		return "unknown"
	}
}

// outboundFactories maps OutboundType to factory functions that create
// Outbound instances. Outbound transformers are stateless, so factories
// exist for symmetry with the inbound side rather than per-request state.
var outboundFactories = map[OutboundType]func() model.Outbound{
	OutboundTypeOllamaChat: func() model.Outbound {
		return ollama.NewChatOutbound()
	},
	OutboundTypeOllamaGenerate: func() model.Outbound {
		return ollama.NewGenerateOutbound()
	},
}

// GetOutbound returns an Outbound transformer instance for the given
// type. Returns nil if the type is not registered.
func GetOutbound(outboundType OutboundType) model.Outbound {
	if factory, ok := outboundFactories[outboundType]; ok {
		return factory()
	}
	return nil
}

// IsRegistered checks if an OutboundType is registered in the factory
func IsRegistered(outboundType OutboundType) bool {
	_, ok := outboundFactories[outboundType]
	return ok
}

// RegisteredTypes returns a slice of all registered OutboundTypes
func RegisteredTypes() []OutboundType {
	types := make([]OutboundType, 0, len(outboundFactories))
	for t := range outboundFactories {
		types = append(types, t)
	}
	return types
}

// GetEmbeddingOutbound returns the backend embedding transformer.
func GetEmbeddingOutbound() model.EmbeddingOutbound {
	return ollama.NewEmbeddingOutbound()
}
