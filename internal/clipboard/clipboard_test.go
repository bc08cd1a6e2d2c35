// ABOUTME: Tests for clipboard mode selection and the OSC 52 writer
// ABOUTME: The system clipboard is never touched here

package clipboard

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Modes(t *testing.T) {
	var buf bytes.Buffer

	w, err := New(ModeOSC52, &buf)
	require.NoError(t, err)
	assert.IsType(t, &OSC52{}, w)

	w, err = New(ModeSystem, &buf)
	require.NoError(t, err)
	assert.IsType(t, System{}, w)

	w, err = New(ModeOff, &buf)
	require.NoError(t, err)
	assert.IsType(t, Discard{}, w)

	_, err = New("carrier-pigeon", &buf)
	assert.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestOSC52_WritesEncodedText(t *testing.T) {
	var buf bytes.Buffer
	c := NewOSC52(&buf)
	c.env = func(string) string { return "" }

	require.NoError(t, c.Copy("¿Cómo estás?"))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\x1b]52;c;"))
	assert.Contains(t, out, base64.StdEncoding.EncodeToString([]byte("¿Cómo estás?")))
}

func TestOSC52_WrapsForTmux(t *testing.T) {
	var buf bytes.Buffer
	c := NewOSC52(&buf)
	c.env = func(k string) string {
		if k == "TMUX" {
			return "/tmp/tmux-1000/default,1,0"
		}
		return ""
	}

	require.NoError(t, c.Copy("hola"))
	assert.True(t, strings.HasPrefix(buf.String(), "\x1bPtmux;"))
}

type failing struct{}

func (failing) Copy(string) error { return errors.New("no display") }

func TestFallback(t *testing.T) {
	mem := &Memory{}
	f := Fallback{Primary: failing{}, Secondary: mem}

	require.NoError(t, f.Copy("hola"))
	last, n := mem.Last()
	assert.Equal(t, "hola", last)
	assert.Equal(t, 1, n)
}
