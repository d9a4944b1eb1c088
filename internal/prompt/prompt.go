// Package prompt implements interactive and scripted answer sources for
// the setup tools.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoInput is returned when the input stream ends before an answer.
var ErrNoInput = errors.New("no input available")

// Terminal reads answers line by line and writes prompts to out.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

// NewTerminal prompts on out and reads from in. When in is a terminal,
// secrets are read with echo disabled.
func NewTerminal(in *os.File, out io.Writer) *Terminal {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		fd = -1
	}
	return &Terminal{in: bufio.NewReader(in), out: out, fd: fd}
}

// NewReader reads answers from r, for piped or non-interactive input.
func NewReader(r io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(r), out: out, fd: -1}
}

// Interactive reports whether answers come from a terminal.
func (t *Terminal) Interactive() bool {
	return t.fd >= 0
}

// PromptText asks for a line. An empty line selects def.
func (t *Terminal) PromptText(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(t.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(t.out, "%s: ", label)
	}
	line, err := t.readLine()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(line) == "" {
		return def, nil
	}
	return line, nil
}

// PromptConfirm asks a yes/no question until it gets a valid answer.
// An empty answer means no.
func (t *Terminal) PromptConfirm(label string) (bool, error) {
	for {
		fmt.Fprintf(t.out, "%s [y/N]: ", label)
		line, err := t.readLine()
		if err != nil {
			return false, err
		}
		if v, ok := parseYesNo(line); ok {
			return v, nil
		}
		fmt.Fprintln(t.out, "Please answer y or n.")
	}
}

// PromptSecret reads a line without echo when attached to a terminal.
func (t *Terminal) PromptSecret(label string) (string, error) {
	if t.fd < 0 {
		return t.PromptText(label, "")
	}
	fmt.Fprintf(t.out, "%s: ", label)
	b, err := term.ReadPassword(t.fd)
	fmt.Fprintln(t.out)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return string(b), nil
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func parseYesNo(s string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true, true
	case "", "n", "no":
		return false, true
	}
	return false, false
}
