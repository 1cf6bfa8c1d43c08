package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetWriter(&buf)
	SetColour(false)
	t.Cleanup(func() {
		SetLevel(INFO)
		SetColour(true)
		_ = SetLogOutput('c', "")
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)
	SetLevel(WARN)

	Info("hidden")
	Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[WARN] logger_test.go:")
	assert.Contains(t, buf.String(), "shown")
}

func TestComplexArgsRenderedAsJSON(t *testing.T) {
	buf := capture(t)

	Info("team", map[string]int{"matches": 38}, 0.5, errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "[Object of type map[string]int]")
	assert.Contains(t, out, "0.500")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, `"matches": 38`)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, DEBUG, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, INFO, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestSetLogOutputRejectsUnknownType(t *testing.T) {
	assert.Error(t, SetLogOutput('x', ""))
}
