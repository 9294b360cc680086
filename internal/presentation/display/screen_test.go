package display

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScreenIsNoopOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	s := NewScreen(&buf)

	assert.False(t, s.Interactive())
	s.EnterAlternateScreen()
	s.Clear()
	s.ExitAlternateScreen()
	assert.Empty(t, buf.String())
}

func TestScreenAlternateBuffer(t *testing.T) {
	var buf bytes.Buffer
	s := &Screen{w: &buf, interactive: true}

	s.Clear()
	assert.Empty(t, buf.String(), "clear outside the alternate screen")

	s.EnterAlternateScreen()
	s.EnterAlternateScreen()
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(enterAlternateScreen)))
	assert.Contains(t, buf.String(), HideCursor)

	buf.Reset()
	s.Clear()
	assert.Equal(t, ClearScreen+MoveCursorHome, buf.String())

	buf.Reset()
	s.ExitAlternateScreen()
	assert.Contains(t, buf.String(), ShowCursor)
	assert.Contains(t, buf.String(), exitAlternateScreen)

	buf.Reset()
	s.ExitAlternateScreen()
	assert.Empty(t, buf.String())
}
