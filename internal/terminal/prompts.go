package terminal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Prompter asks questions on a terminal. When not interactive every prompt
// returns its default without reading input.
type Prompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

// NewPrompter creates a Prompter reading from in and writing to out.
func NewPrompter(in io.Reader, out io.Writer, interactive bool) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, interactive: interactive}
}

// NewStdPrompter creates a Prompter on stdin and stdout.
func NewStdPrompter() *Prompter {
	return NewPrompter(os.Stdin, os.Stdout, IsTerminal())
}

// Choose displays a numbered menu and returns the selected index (0-based).
// The prompt includes a default option that is selected if the user presses Enter.
func (p *Prompter) Choose(question string, options []string, defaultIndex int) (int, error) {
	if !p.interactive {
		return defaultIndex, nil
	}

	p.printMenu(question, options)
	for {
		input, err := p.ask(fmt.Sprintf("Selection [%d]: ", defaultIndex+1))
		if err != nil {
			return 0, err
		}

		// Default selection
		if input == "" {
			return defaultIndex, nil
		}

		num, err := strconv.Atoi(input)
		if err != nil || num < 1 || num > len(options) {
			fmt.Fprintf(p.out, "Please enter a number between 1 and %d\n", len(options))
			continue
		}

		return num - 1, nil
	}
}

// ChooseMany displays a numbered menu and returns the selected indices in
// ascending order. Input is a comma or space separated list of numbers, or
// "all". Pressing Enter selects nothing.
func (p *Prompter) ChooseMany(question string, options []string) ([]int, error) {
	if !p.interactive {
		return nil, nil
	}

	p.printMenu(question, options)
	for {
		input, err := p.ask("Selection (e.g. 1,2 or all): ")
		if err != nil {
			return nil, err
		}

		selected, ok := parseSelection(input, len(options))
		if !ok {
			fmt.Fprintf(p.out, "Please enter numbers between 1 and %d\n", len(options))
			continue
		}
		return selected, nil
	}
}

// Confirm asks a yes/no question. Enter returns defaultYes.
func (p *Prompter) Confirm(question string, defaultYes bool) (bool, error) {
	if !p.interactive {
		return defaultYes, nil
	}

	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	for {
		input, err := p.ask(fmt.Sprintf("%s %s ", question, hint))
		if err != nil {
			return false, err
		}

		switch strings.ToLower(input) {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please answer y or n")
	}
}

func (p *Prompter) printMenu(question string, options []string) {
	fmt.Fprintln(p.out, question)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, opt)
	}
}

func (p *Prompter) ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	input, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

// parseSelection turns "1, 3 2" or "all" into sorted, unique 0-based indices.
func parseSelection(input string, n int) ([]int, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, true
	}
	if strings.EqualFold(input, "all") {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all, true
	}

	seen := make(map[int]bool)
	var selected []int
	for _, field := range strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == ' ' }) {
		num, err := strconv.Atoi(field)
		if err != nil || num < 1 || num > n {
			return nil, false
		}
		if !seen[num-1] {
			seen[num-1] = true
			selected = append(selected, num-1)
		}
	}
	sort.Ints(selected)
	return selected, true
}
