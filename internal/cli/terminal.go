package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Terminal is the line-oriented user interface: it shows notifications,
// asks for confirmation and feeds commands to the REPL. Input is shared
// between the command loop and confirmation prompts.
type Terminal struct {
	scanner     *bufio.Scanner
	out         io.Writer
	interactive bool
}

// NewTerminal reads from in and writes to out. When interactive is false
// (input piped from a file or another program) prompts are not printed.
func NewTerminal(in io.Reader, out io.Writer, interactive bool) *Terminal {
	return &Terminal{
		scanner:     bufio.NewScanner(in),
		out:         out,
		interactive: interactive,
	}
}

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Success implements client.Notifier.
func (t *Terminal) Success(title, message string) {
	t.println(fmt.Sprintf("✔ %s: %s", title, message))
}

// Error implements client.Notifier.
func (t *Terminal) Error(title, message string) {
	t.println(fmt.Sprintf("✖ %s: %s", title, message))
}

// Confirm implements client.Confirmer. Only "y" or "yes" confirm; anything
// else, including end of input, declines.
func (t *Terminal) Confirm(title, text string) (bool, error) {
	fmt.Fprintf(t.out, "%s %s [y/N]: ", title, text)
	if !t.scanner.Scan() {
		t.println("")
		return false, t.scanner.Err()
	}
	switch strings.ToLower(strings.TrimSpace(t.scanner.Text())) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (t *Terminal) prompt() {
	if t.interactive {
		fmt.Fprint(t.out, "students> ")
	}
}

func (t *Terminal) readLine() (string, bool) {
	if !t.scanner.Scan() {
		return "", false
	}
	return t.scanner.Text(), true
}

func (t *Terminal) println(a ...any) {
	fmt.Fprintln(t.out, a...)
}
