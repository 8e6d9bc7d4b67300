package services

import (
	"strings"
	"sync"

	"llamabridge/internal/config"

	"github.com/sirupsen/logrus"
)

// fallbackModel is used when no default model is configured.
const fallbackModel = "llama3:8b"

// defaultContextWindow is handed to the backend when a model family is
// not in the table. Small enough to be safe on modest hardware.
const defaultContextWindow = 4096

// familyDefaults maps a bare model family to its concrete default tag.
var familyDefaults = map[string]string{
	"llama2":    "llama2:7b",
	"llama3":    "llama3:8b",
	"llama3.1":  "llama3.1:8b",
	"llama3.2":  "llama3.2:3b",
	"mistral":   "mistral:7b",
	"mixtral":   "mixtral:8x7b",
	"gemma":     "gemma:7b",
	"gemma2":    "gemma2:9b",
	"phi3":      "phi3:mini",
	"qwen2.5":   "qwen2.5:7b",
	"codellama": "codellama:7b",
}

// contextWindows maps a model family to the context length passed to the
// backend as num_ctx.
var contextWindows = map[string]int{
	"llama2":    4096,
	"llama3":    8192,
	"llama3.1":  131072,
	"llama3.2":  131072,
	"mistral":   32768,
	"mixtral":   32768,
	"gemma":     8192,
	"gemma2":    8192,
	"phi3":      4096,
	"qwen2.5":   32768,
	"codellama": 16384,
}

// ModelResolver maps requested model names onto concrete backend tags.
// Resolution is total: any input produces a usable tag, and resolving an
// already-resolved tag returns it unchanged. Operator-supplied alias
// overrides can be swapped in at runtime.
type ModelResolver struct {
	defaultModel string

	mu              sync.RWMutex
	tagOverrides    map[string]string
	windowOverrides map[string]int
}

// NewModelResolver builds the resolver from configuration. The configured
// default is itself resolved so an operator can set a bare family name.
func NewModelResolver(cfg *config.Manager) *ModelResolver {
	r := &ModelResolver{
		tagOverrides:    make(map[string]string),
		windowOverrides: make(map[string]int),
	}

	configured := strings.TrimSpace(cfg.DefaultModel)
	if configured == "" {
		configured = fallbackModel
	}
	r.defaultModel = normalizeTag(configured)

	logrus.WithField("default_model", r.defaultModel).Info("Model resolver initialized")
	return r
}

// Resolve maps a requested model name to a concrete backend tag.
func (r *ModelResolver) Resolve(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return r.defaultModel
	}

	r.mu.RLock()
	mapped, ok := r.tagOverrides[trimmed]
	r.mu.RUnlock()
	if ok {
		return normalizeTag(mapped)
	}

	return normalizeTag(trimmed)
}

// ContextWindow returns the context length for a resolved tag. Operator
// window overrides take precedence over the static family table.
func (r *ModelResolver) ContextWindow(tag string) int {
	family := strings.ToLower(tagFamily(tag))

	r.mu.RLock()
	window, ok := r.windowOverrides[family]
	r.mu.RUnlock()
	if ok {
		return window
	}

	if window, ok := contextWindows[family]; ok {
		return window
	}
	return defaultContextWindow
}

// DefaultModel returns the tag used when a request names no model.
func (r *ModelResolver) DefaultModel() string {
	return r.defaultModel
}

// ApplyOverrides replaces the operator override tables. Alias values may
// be bare family names; they are normalized at resolution time. Window
// overrides are keyed by lowercased family.
func (r *ModelResolver) ApplyOverrides(aliases map[string]string, windows map[string]int) {
	copiedTags := make(map[string]string, len(aliases))
	for name, tag := range aliases {
		name = strings.TrimSpace(name)
		tag = strings.TrimSpace(tag)
		if name == "" || tag == "" {
			continue
		}
		copiedTags[name] = tag
	}

	copiedWindows := make(map[string]int, len(windows))
	for family, window := range windows {
		family = strings.ToLower(strings.TrimSpace(family))
		if family == "" || window <= 0 {
			continue
		}
		copiedWindows[family] = window
	}

	r.mu.Lock()
	r.tagOverrides = copiedTags
	r.windowOverrides = copiedWindows
	r.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"aliases": len(copiedTags),
		"windows": len(copiedWindows),
	}).Info("Model overrides applied")
}

// OverrideCount reports the number of active override entries.
func (r *ModelResolver) OverrideCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tagOverrides) + len(r.windowOverrides)
}

// normalizeTag expands bare family names and the ":latest" suffix to the
// family's default concrete tag. Names outside the table pass through
// unchanged; the backend reports unknown models itself.
func normalizeTag(name string) string {
	if family, ok := strings.CutSuffix(name, ":latest"); ok {
		if tag, known := familyDefaults[strings.ToLower(family)]; known {
			return tag
		}
		return name
	}

	if !strings.Contains(name, ":") {
		if tag, known := familyDefaults[strings.ToLower(name)]; known {
			return tag
		}
	}

	return name
}

// tagFamily strips the version suffix from a model tag.
func tagFamily(tag string) string {
	if idx := strings.IndexByte(tag, ':'); idx >= 0 {
		return tag[:idx]
	}
	return tag
}
