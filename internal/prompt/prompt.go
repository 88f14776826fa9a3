// Package prompt implements the line-oriented questions asked during a
// build flow: free text with validation, yes/no confirmation and numbered
// single and multi selection.
//
// Every question reads one line at a time. End of input (Ctrl-D) or the
// token ":q" cancels the question with ErrCancelled.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ErrCancelled is returned when the user abandons a question.
var ErrCancelled = errors.New("operation cancelled")

// cancelToken typed at any question cancels the flow
const cancelToken = ":q"

// Option is one selectable entry
type Option struct {
	Value string
	Label string
}

// TextOptions configures a free text question
type TextOptions struct {
	Message     string
	Placeholder string
	// Validate returns a message to show inline; the question is asked again
	Validate func(string) error
}

// Prompter asks questions on out and reads answers from in.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	title   *color.Color
	success *color.Color
	failure *color.Color
	hint    *color.Color
	marker  *color.Color
}

// New creates a Prompter. When in is already a *bufio.Reader it is used
// directly so callers can share buffered input with other readers.
func New(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{
		in:      bufio.NewReader(in),
		out:     out,
		title:   color.New(color.BgCyan, color.FgBlack),
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
		hint:    color.New(color.FgHiBlack),
		marker:  color.New(color.FgCyan, color.Bold),
	}

	if !isTerminal(out) {
		for _, c := range []*color.Color{p.title, p.success, p.failure, p.hint, p.marker} {
			c.DisableColor()
		}
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Intro opens a flow with a highlighted title
func (p *Prompter) Intro(title string) {
	fmt.Fprintf(p.out, "┌  %s\n│\n", p.title.Sprintf(" %s ", title))
}

// Outro closes a flow
func (p *Prompter) Outro(message string) {
	fmt.Fprintf(p.out, "└  %s\n\n", p.success.Sprint(message))
}

// Note prints an informational line inside a flow
func (p *Prompter) Note(message string) {
	fmt.Fprintf(p.out, "│  %s\n", p.hint.Sprint(message))
}

// Cancel closes a flow that was abandoned
func (p *Prompter) Cancel(message string) {
	fmt.Fprintf(p.out, "└  %s\n\n", p.failure.Sprint(message))
}

// Text asks for a line of text, re-asking until Validate accepts it.
// The answer is returned with surrounding whitespace removed.
func (p *Prompter) Text(opts TextOptions) (string, error) {
	for {
		p.question(opts.Message)
		if opts.Placeholder != "" {
			fmt.Fprintf(p.out, "│  %s\n", p.hint.Sprintf("e.g. %s", opts.Placeholder))
		}
		p.inputMarker()

		line, err := p.readLine()
		if err != nil {
			return "", err
		}

		value := strings.TrimSpace(line)
		if opts.Validate != nil {
			if verr := opts.Validate(value); verr != nil {
				p.invalid(verr.Error())
				continue
			}
		}
		return value, nil
	}
}

// Confirm asks a yes/no question. An empty answer picks def.
func (p *Prompter) Confirm(message string, def bool) (bool, error) {
	choices := "y/N"
	if def {
		choices = "Y/n"
	}

	for {
		p.question(fmt.Sprintf("%s %s", message, p.hint.Sprintf("(%s)", choices)))
		p.inputMarker()

		line, err := p.readLine()
		if err != nil {
			return false, err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			p.invalid("Please answer y or n")
		}
	}
}

// Select asks the user to pick exactly one option and returns its value.
func (p *Prompter) Select(message string, options []Option) (string, error) {
	if len(options) == 0 {
		return "", errors.New("select: no options")
	}

	p.question(message)
	for i, opt := range options {
		fmt.Fprintf(p.out, "│  %s %s\n", p.marker.Sprintf("%2d)", i+1), opt.Label)
	}

	for {
		p.inputMarker()
		line, err := p.readLine()
		if err != nil {
			return "", err
		}

		n, convErr := strconv.Atoi(strings.TrimSpace(line))
		if convErr != nil || n < 1 || n > len(options) {
			p.invalid(fmt.Sprintf("Enter a number between 1 and %d", len(options)))
			continue
		}
		return options[n-1].Value, nil
	}
}

// MultiSelect asks for zero or more options. Answers are numbers separated
// by commas or spaces; "-" selects nothing and an empty answer keeps the
// preselected values. Values are returned in option order.
func (p *Prompter) MultiSelect(message string, options []Option, preselected []string) ([]string, error) {
	selected := make(map[string]bool, len(preselected))
	for _, v := range preselected {
		selected[v] = true
	}

	p.question(message)
	for i, opt := range options {
		box := "[ ]"
		if selected[opt.Value] {
			box = "[x]"
		}
		fmt.Fprintf(p.out, "│  %s %s %s\n", p.marker.Sprintf("%2d)", i+1), box, opt.Label)
	}
	fmt.Fprintf(p.out, "│  %s\n", p.hint.Sprint(`numbers separated by commas or spaces, "-" for none, empty keeps [x]`))

	for {
		p.inputMarker()
		line, err := p.readLine()
		if err != nil {
			return nil, err
		}

		answer := strings.TrimSpace(line)
		switch answer {
		case "":
			return pick(options, selected), nil
		case "-":
			return []string{}, nil
		}

		chosen, perr := parseIndexes(answer, len(options))
		if perr != nil {
			p.invalid(perr.Error())
			continue
		}
		picked := make(map[string]bool, len(chosen))
		for _, idx := range chosen {
			picked[options[idx].Value] = true
		}
		return pick(options, picked), nil
	}
}

// pick returns the values of options present in set, in option order
func pick(options []Option, set map[string]bool) []string {
	values := []string{}
	for _, opt := range options {
		if set[opt.Value] {
			values = append(values, opt.Value)
		}
	}
	return values
}

// parseIndexes converts a 1-based number list to 0-based indexes
func parseIndexes(answer string, count int) ([]int, error) {
	fields := strings.FieldsFunc(answer, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})

	indexes := make([]int, 0, len(fields))
	for _, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 || n > count {
			return nil, fmt.Errorf("%q is not a number between 1 and %d", field, count)
		}
		indexes = append(indexes, n-1)
	}
	return indexes, nil
}

// readLine returns the next line without its terminator. End of input
// with nothing typed, or the cancel token, yields ErrCancelled.
func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read answer: %w", err)
		}
		if line == "" {
			fmt.Fprintln(p.out)
			return "", ErrCancelled
		}
	}

	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == cancelToken {
		return "", ErrCancelled
	}
	return line, nil
}

func (p *Prompter) question(message string) {
	fmt.Fprintf(p.out, "%s  %s\n", p.marker.Sprint("◆"), message)
}

func (p *Prompter) inputMarker() {
	fmt.Fprint(p.out, "│  > ")
}

func (p *Prompter) invalid(message string) {
	fmt.Fprintf(p.out, "│  %s\n", p.failure.Sprintf("✗ %s", message))
}
