// Package prompt reads interactive answers for menus and confirmations.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Prompter asks questions on out and reads answers from in.
type Prompter struct {
	in       *bufio.Reader
	out      io.Writer
	fd       int
	terminal bool
}

// New wraps in and out. Hidden input is only available when in is a terminal.
func New(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok {
		p.fd = int(f.Fd())
		p.terminal = term.IsTerminal(p.fd)
	}
	return p
}

// Interactive reports whether answers come from a terminal.
func (p *Prompter) Interactive() bool {
	return p.terminal
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Ask prints label and returns the answer, or def when the answer is empty.
func (p *Prompter) Ask(label, def string) string {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	answer, err := p.readLine()
	if err != nil || answer == "" {
		return def
	}
	return answer
}

// Confirm asks a yes/no question defaulting to no. skip answers yes without asking.
func (p *Prompter) Confirm(question string, skip bool) bool {
	if skip {
		return true
	}
	fmt.Fprintf(p.out, "%s [y/N]: ", question)
	answer, err := p.readLine()
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

// Select prints a numbered list and returns the chosen index. 0 means back;
// ok is false on EOF so callers can leave their loop.
func (p *Prompter) Select(title string, options []string, back string) (choice int, ok bool) {
	for {
		fmt.Fprintf(p.out, "\n%s\n", title)
		for i, opt := range options {
			fmt.Fprintf(p.out, "%d) %s\n", i+1, opt)
		}
		fmt.Fprintf(p.out, "0) %s\n> ", back)

		answer, err := p.readLine()
		if err != nil {
			return 0, false
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 0 && n <= len(options) {
			return n, true
		}
		fmt.Fprintln(p.out, "Unknown option")
	}
}

// Secret reads a value without echo on a terminal, or a plain line otherwise.
func (p *Prompter) Secret(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if !p.terminal {
		return p.readLine()
	}
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
