// Package cli renders the storefront in a terminal and reads shopper commands.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

// Printer serializes writes from the command loop and the receipt countdown.
type Printer struct {
	mu       sync.Mutex
	w        io.Writer
	colorize bool
}

// NewPrinter colors output only when w is a terminal.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{
		w:        w,
		colorize: isTerminal(w),
	}
}

// DisableColor disables colored output
func (p *Printer) DisableColor() *Printer {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.colorize = false
	return p
}

// Colorize returns text in color when coloring is enabled.
func (p *Printer) Colorize(text, color string) string {
	if !p.colorize {
		return text
	}
	return color + text + ColorReset
}

func (p *Printer) Printf(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) Println(args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, args...)
}

// Block writes several lines at once so concurrent output cannot interleave.
func (p *Printer) Block(lines []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.w, strings.Join(lines, "\n")+"\n")
}

// Success prints a success message
func (p *Printer) Success(message string) {
	p.Println(p.Colorize("✓", ColorGreen) + " " + message)
}

// Error prints an error message
func (p *Printer) Error(message string) {
	p.Println(p.Colorize("✗", ColorRed) + " " + message)
}

// Warning prints a warning message
func (p *Printer) Warning(message string) {
	p.Println(p.Colorize("⚠", ColorYellow) + " " + message)
}

// Info prints an info message
func (p *Printer) Info(message string) {
	p.Println(p.Colorize("ℹ", ColorBlue) + " " + message)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
