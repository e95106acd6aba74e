package report

import (
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI sequences used by the text renderer
const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiDim    = "\033[2m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

// Color modes accepted by ColorEnabled
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ColorEnabled decides whether output to f gets ANSI colors.
// In auto mode colors need a terminal and no NO_COLOR in the environment.
func ColorEnabled(mode string, f *os.File) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// palette applies colors when enabled
type palette struct {
	enabled bool
}

func (p palette) wrap(code, s string) string {
	if !p.enabled || s == "" {
		return s
	}
	return code + s + ansiReset
}

func (p palette) bold(s string) string   { return p.wrap(ansiBold, s) }
func (p palette) dim(s string) string    { return p.wrap(ansiDim, s) }
func (p palette) red(s string) string    { return p.wrap(ansiRed, s) }
func (p palette) green(s string) string  { return p.wrap(ansiGreen, s) }
func (p palette) yellow(s string) string { return p.wrap(ansiYellow, s) }
func (p palette) cyan(s string) string   { return p.wrap(ansiCyan, s) }
