// pattern: Imperative Shell
package cli

import (
	"fmt"
	"io"
	"os"

	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Printer writes tagged lines: [info] to Out (or Err when InfoToErr is
// set), [warn] and [error] to Err. Tags are coloured only on terminals.
type Printer struct {
	Out io.Writer
	Err io.Writer

	// InfoToErr routes [info] lines to Err so Out carries only a result.
	InfoToErr bool

	flavor  catppuccin.Flavor
	noColor bool
}

// NewPrinter returns a Printer using the named catppuccin flavour.
func NewPrinter(stdout, stderr io.Writer, theme string, noColor bool) *Printer {
	return &Printer{
		Out:     stdout,
		Err:     stderr,
		flavor:  flavorFromName(theme),
		noColor: noColor,
	}
}

func flavorFromName(name string) catppuccin.Flavor {
	switch name {
	case "latte":
		return catppuccin.Latte
	case "frappe":
		return catppuccin.Frappe
	case "macchiato":
		return catppuccin.Macchiato
	default:
		return catppuccin.Mocha
	}
}

// ForResult returns a copy whose [info] lines go to stderr.
func (p *Printer) ForResult() *Printer {
	cp := *p
	cp.InfoToErr = true
	return &cp
}

// Info prints an [info] line.
func (p *Printer) Info(msg string) {
	w := p.Out
	if p.InfoToErr {
		w = p.Err
	}
	p.line(w, "[info]", p.flavor.Blue(), msg)
}

// Warn prints a [warn] line.
func (p *Printer) Warn(msg string) {
	p.line(p.Err, "[warn]", p.flavor.Yellow(), msg)
}

// Error prints an [error] line for err.
func (p *Printer) Error(err error) {
	p.line(p.Err, "[error]", p.flavor.Red(), err.Error())
}

// Result prints a bare line to Out.
func (p *Printer) Result(s string) {
	fmt.Fprintln(p.Out, s)
}

// Bold renders s in bold on a coloured Out.
func (p *Printer) Bold(s string) string {
	if !p.colorFor(p.Out) {
		return s
	}
	return lipgloss.NewRenderer(p.Out).NewStyle().Bold(true).Render(s)
}

// Dim renders s in a muted colour on a coloured Out.
func (p *Printer) Dim(s string) string {
	if !p.colorFor(p.Out) {
		return s
	}
	return lipgloss.NewRenderer(p.Out).NewStyle().
		Foreground(lipgloss.Color(p.flavor.Overlay1().Hex)).
		Render(s)
}

// Accent renders s in the flavour's green on a coloured Out.
func (p *Printer) Accent(s string) string {
	if !p.colorFor(p.Out) {
		return s
	}
	return lipgloss.NewRenderer(p.Out).NewStyle().
		Foreground(lipgloss.Color(p.flavor.Green().Hex)).
		Render(s)
}

func (p *Printer) line(w io.Writer, tag string, color catppuccin.Color, msg string) {
	if p.colorFor(w) {
		tag = lipgloss.NewRenderer(w).NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(color.Hex)).
			Render(tag)
	}
	fmt.Fprintf(w, "%s %s\n", tag, msg)
}

func (p *Printer) colorFor(w io.Writer) bool {
	if p.noColor {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
