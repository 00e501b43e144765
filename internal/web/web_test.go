package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	// case 1: root aliases index.html
	root, ok := Lookup("/")
	assert.True(t, ok)
	index, ok := Lookup("/index.html")
	assert.True(t, ok)
	assert.Equal(t, index, root)
	assert.Contains(t, string(index), "<!DOCTYPE html>")

	// case 2: other assets
	_, ok = Lookup("/app.js")
	assert.True(t, ok)
	_, ok = Lookup("/style.css")
	assert.True(t, ok)

	// case 3: unknown and escaping paths
	_, ok = Lookup("/nonexistent")
	assert.False(t, ok)
	_, ok = Lookup("/../web.go")
	assert.False(t, ok)
	_, ok = Lookup("/static")
	assert.False(t, ok)
}
