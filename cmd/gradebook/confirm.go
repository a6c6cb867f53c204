package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

var isTerminalFunc = term.IsTerminal // mockable

// promptConfirmer asks y/N on the controlling terminal. When stdin is not a
// terminal only assumeYes can approve.
type promptConfirmer struct {
	in        *bufio.Reader
	out       io.Writer
	fd        int
	assumeYes bool
}

func newPromptConfirmer(in io.Reader, out io.Writer, fd int) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(in), out: out, fd: fd}
}

// Confirm implements gradebook.Confirmer.
func (c *promptConfirmer) Confirm(_ context.Context, prompt string) bool {
	if c.assumeYes {
		return true
	}
	if !isTerminalFunc(c.fd) {
		fmt.Fprintf(c.out, "%s\nstdin is not a terminal, pass -yes to confirm\n", prompt)
		return false
	}

	fmt.Fprintf(c.out, "%s [y/N]: ", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(c.out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "ya":
		return true
	default:
		return false
	}
}
