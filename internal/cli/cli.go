// Package cli implements the line-oriented command console: a caller-owned
// command table, a tokenizer and a printf-style reply helper.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// BufferSize bounds a single reply written by Printer.
const BufferSize = 128

// MaxArgs is the maximum number of tokens in a command line, name included.
const MaxArgs = 10

// ErrTooManyArgs is returned by Tokenize when a line has more than MaxArgs tokens.
var ErrTooManyArgs = errors.New("too many arguments")

// Printer formats replies onto a transport.
type Printer struct {
	w io.Writer
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Printf formats like fmt.Printf and writes at most BufferSize bytes. A
// cut never splits a UTF-8 sequence.
func (p *Printer) Printf(format string, args ...interface{}) error {
	s := fmt.Sprintf(format, args...)
	if len(s) > BufferSize {
		cut := BufferSize
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	_, err := io.WriteString(p.w, s)
	return err
}

// Command is one entry of the command table.
type Command struct {
	Name string
	Help string
	// Run receives the arguments after the command name.
	Run func(p *Printer, args []string) error
}

// Registry is an ordered command table. Lookup is a linear scan by exact name.
type Registry struct {
	cmds []*Command
}

// NewRegistry returns an empty table.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends cmds. Names must be non-empty and unique.
func (r *Registry) Register(cmds ...*Command) error {
	for _, c := range cmds {
		if c == nil || c.Name == "" || c.Run == nil {
			return errors.New("command needs a name and a Run func")
		}
		if r.Find(c.Name) != nil {
			return fmt.Errorf("duplicate command %q", c.Name)
		}
		r.cmds = append(r.cmds, c)
	}
	return nil
}

// Find returns the command called name, or nil.
func (r *Registry) Find(name string) *Command {
	for _, c := range r.cmds {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Commands returns the table in registration order.
func (r *Registry) Commands() []*Command {
	out := make([]*Command, len(r.cmds))
	copy(out, r.cmds)
	return out
}

// Tokenize splits line on spaces, dropping empty tokens and any trailing
// CR/LF.
func Tokenize(line string) ([]string, error) {
	line = strings.TrimRight(line, "\r\n")
	var tokens []string
	for _, tok := range strings.Split(line, " ") {
		if tok == "" {
			continue
		}
		if len(tokens) == MaxArgs {
			return nil, ErrTooManyArgs
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// Execute runs one command line and writes any reply to p. Empty lines are
// ignored. Command failures are reported to p; the returned error is only
// set when writing the reply fails.
func (r *Registry) Execute(line string, p *Printer) error {
	argv, err := Tokenize(line)
	if err != nil {
		return p.Printf("Too much argument\n")
	}
	if len(argv) == 0 {
		return nil
	}

	cmd := r.Find(argv[0])
	if cmd == nil {
		return p.Printf("Command not found\n")
	}

	if err := cmd.Run(p, argv[1:]); err != nil {
		return p.Printf("error: %v\n", err)
	}
	return nil
}
