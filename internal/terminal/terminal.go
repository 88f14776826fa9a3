// Package terminal reads single keypresses for the menu. The terminal is
// put into raw mode only while a key is awaited and restored before the
// key is returned, so prompts that follow read ordinary cooked lines.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Key is one decoded keypress.
type Key struct {
	Name string // Lowercase letter, digit or a name such as "enter"
	Ctrl bool
}

// String renders the key the way it is shown in menus
func (k Key) String() string {
	if k.Ctrl {
		return "ctrl-" + k.Name
	}
	return k.Name
}

// Console owns stdin. The prompter shares Reader so no buffered input is
// lost between a keypress and the next question.
type Console struct {
	reader *bufio.Reader
	fd     int
	tty    bool
}

// NewConsole wraps in. Raw single-key reads are used only when in is a
// terminal; otherwise each key is the first character of a line.
func NewConsole(in io.Reader) *Console {
	c := &Console{reader: bufio.NewReader(in), fd: -1}
	if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		c.fd = int(f.Fd())
		c.tty = true
	}
	return c
}

// Reader returns the buffered input shared with line prompts
func (c *Console) Reader() *bufio.Reader {
	return c.reader
}

// Interactive reports whether keys are read in raw mode
func (c *Console) Interactive() bool {
	return c.tty
}

// NextKey blocks until a key is pressed. io.EOF means input is exhausted.
func (c *Console) NextKey() (Key, error) {
	if !c.tty {
		return c.nextLineKey()
	}

	state, err := term.MakeRaw(c.fd)
	if err != nil {
		return Key{}, fmt.Errorf("enter raw mode: %w", err)
	}
	defer term.Restore(c.fd, state)

	r, _, err := c.reader.ReadRune()
	if err != nil {
		return Key{}, err
	}

	// Escape sequences (arrows, function keys) arrive in one read
	if r == 0x1b {
		c.reader.Discard(c.reader.Buffered())
	}
	return decodeKey(r), nil
}

func (c *Console) nextLineKey() (Key, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return Key{}, err
	}
	if err != nil && line == "" {
		return Key{}, io.EOF
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return Key{Name: "enter"}, nil
	}
	return decodeKey([]rune(line)[0]), nil
}

// decodeKey maps a raw-mode rune to a Key. Control bytes 1-26 are Ctrl
// plus the matching letter, except those with their own names.
func decodeKey(r rune) Key {
	switch r {
	case '\r', '\n':
		return Key{Name: "enter"}
	case '\t':
		return Key{Name: "tab"}
	case 0x1b:
		return Key{Name: "escape"}
	case 0x7f, 0x08:
		return Key{Name: "backspace"}
	case ' ':
		return Key{Name: "space"}
	}

	if r >= 1 && r <= 26 {
		return Key{Name: string(rune('a' + r - 1)), Ctrl: true}
	}
	return Key{Name: string(unicode.ToLower(r))}
}
