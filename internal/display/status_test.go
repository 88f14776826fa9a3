package display

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	s := NewStatus(&buf, true)

	// Buffers are never terminals, so no bar even with progress on
	assert.False(t, s.useBar)

	s.Start("Copying files", 3)
	s.Step("/src/a")
	s.Step("/src/b")
	s.Step("/src/c")
	s.Stop("Files copied")

	assert.Equal(t, "◒  Copying files (3 entries)\n◇  Files copied\n", buf.String())
	assert.Equal(t, 3, s.Copied())
}

func TestStatusFail(t *testing.T) {
	var buf bytes.Buffer
	s := NewStatus(&buf, false)

	s.Start("Copying files", 10)
	s.Step("/src/a")
	s.Fail("Copy failed")

	assert.Contains(t, buf.String(), "■  Copy failed (1 of 10 entries copied)\n")
}

func TestStatusStepOutsideRun(t *testing.T) {
	var buf bytes.Buffer
	s := NewStatus(&buf, false)

	s.Step("/src/a")
	assert.Equal(t, 0, s.Copied())

	s.Start("Copying files", 1)
	assert.Equal(t, 0, s.Copied(), "Start resets the count")
	s.Step("/src/a")
	s.Stop("Files copied")
	s.Step("/src/late")
	assert.Equal(t, 1, s.Copied())
}

func TestClearScreenSkipsNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	ClearScreen(&buf)
	assert.Empty(t, buf.String())
}
