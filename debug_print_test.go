package herobg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebugConsoleString(t *testing.T) {
	var dc DebugConsole

	dc.PutsPersist("shader", "embedded")
	dc.Puts("FPS", "60.00")
	dc.Printf("scale", "%.2f", 0.85)
	dc.Puts("FPS", "59.00")

	assert.Equal(t, "shader: embedded\nFPS: 59.00\nscale: 0.85", dc.String())

	dc.Clear()
	assert.Equal(t, "shader: embedded", dc.String())

	dc.PutsPersist("shader", "hero.kage")
	assert.Equal(t, "shader: hero.kage", dc.String())
}

func TestDebugConsoleEmpty(t *testing.T) {
	var dc DebugConsole
	assert.Empty(t, dc.String())
}
