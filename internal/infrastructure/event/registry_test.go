package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_Register_SpecificTypes(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newTestHandler()
	registry.Register(handler, "SessionStarted", "SessionEnded")

	assert.Len(t, registry.GetHandlers("SessionStarted"), 1)
	assert.Len(t, registry.GetHandlers("SessionEnded"), 1)
	assert.Empty(t, registry.GetHandlers("SessionSettled"))
}

func TestHandlerRegistry_Register_Wildcard(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newTestHandler()
	registry.Register(handler)

	assert.Len(t, registry.GetHandlers("SessionStarted"), 1)
	assert.Len(t, registry.GetHandlers("AnythingElse"), 1)
}

func TestHandlerRegistry_GetHandlers_TypedBeforeWildcard(t *testing.T) {
	registry := NewHandlerRegistry()
	wildcard := newTestHandler()
	typed := newTestHandler()
	registry.Register(wildcard)
	registry.Register(typed, "SessionSettled")

	handlers := registry.GetHandlers("SessionSettled")
	assert.Len(t, handlers, 2)
	assert.Same(t, typed, handlers[0])
	assert.Same(t, wildcard, handlers[1])
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()
	h1 := newTestHandler()
	h2 := newTestHandler()
	wildcard := newTestHandler()
	registry.Register(h1, "SessionStarted")
	registry.Register(h2, "SessionStarted")
	registry.Register(wildcard)

	registry.Unregister(h1)
	registry.Unregister(wildcard)

	handlers := registry.GetHandlers("SessionStarted")
	assert.Len(t, handlers, 1)
	assert.Same(t, h2, handlers[0])
}

func TestHandlerRegistry_Count_NoDuplicates(t *testing.T) {
	registry := NewHandlerRegistry()
	h1 := newTestHandler()
	h2 := newTestHandler()
	registry.Register(h1, "SessionStarted", "SessionEnded", "SessionSettled")
	registry.Register(h2)

	assert.Equal(t, 2, registry.Count())

	registry.Unregister(h1)
	assert.Equal(t, 1, registry.Count())
}
