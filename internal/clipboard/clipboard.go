// ABOUTME: Clipboard writers: the OS clipboard, OSC 52 terminal escapes and memory
// ABOUTME: New picks one from the configured mode, falling back to OSC 52 over SSH

package clipboard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

// Modes accepted by New.
const (
	ModeAuto   = "auto"
	ModeSystem = "system"
	ModeOSC52  = "osc52"
	ModeOff    = "off"
)

// ErrUnsupportedMode is returned by New for an unknown mode.
var ErrUnsupportedMode = errors.New("unsupported clipboard mode")

// Writer copies text to a clipboard.
type Writer interface {
	Copy(text string) error
}

// New returns the writer for mode. Terminal output for OSC 52 goes to out;
// pass nil for stderr.
func New(mode string, out io.Writer) (Writer, error) {
	if out == nil {
		out = os.Stderr
	}
	switch mode {
	case "", ModeAuto:
		if clipboard.Unsupported || os.Getenv("SSH_TTY") != "" {
			return NewOSC52(out), nil
		}
		return Fallback{Primary: System{}, Secondary: NewOSC52(out)}, nil
	case ModeSystem:
		return System{}, nil
	case ModeOSC52:
		return NewOSC52(out), nil
	case ModeOff:
		return Discard{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}
}

// System writes to the operating system clipboard.
type System struct{}

func (System) Copy(text string) error {
	return clipboard.WriteAll(text)
}

// OSC52 asks the terminal to set its clipboard with an OSC 52 sequence.
// It works over SSH, and inside tmux or screen when wrapped for them.
type OSC52 struct {
	mu  sync.Mutex
	out io.Writer
	env func(string) string
}

// NewOSC52 writes escape sequences to out.
func NewOSC52(out io.Writer) *OSC52 {
	return &OSC52{out: out, env: os.Getenv}
}

func (c *OSC52) Copy(text string) error {
	seq := osc52.New(text)
	switch {
	case c.env("TMUX") != "":
		seq = seq.Tmux()
	case c.env("STY") != "":
		seq = seq.Screen()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := seq.WriteTo(c.out); err != nil {
		return fmt.Errorf("writing osc52 sequence: %w", err)
	}
	return nil
}

// Fallback tries Primary and uses Secondary when it fails.
type Fallback struct {
	Primary   Writer
	Secondary Writer
}

func (f Fallback) Copy(text string) error {
	if err := f.Primary.Copy(text); err != nil {
		return f.Secondary.Copy(text)
	}
	return nil
}

// Discard drops everything.
type Discard struct{}

func (Discard) Copy(string) error { return nil }

// Memory keeps copied text in memory.
type Memory struct {
	mu   sync.Mutex
	last string
	n    int
}

func (m *Memory) Copy(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = text
	m.n++
	return nil
}

// Last returns the most recently copied text and how many copies were made.
func (m *Memory) Last() (string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.n
}
