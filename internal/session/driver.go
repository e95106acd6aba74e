// Package session drives checks: a single target, or an interactive prompt
// loop reading targets until an exit token, EOF or interruption.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"checksmtp/internal/domain"
)

// DefaultPrompt is printed before every interactive read
const DefaultPrompt = "smtp host or alias> "

// Exit tokens end the interactive loop. Matching is case-sensitive.
var exitTokens = map[string]bool{"exit": true, "quit": true}

// Checker runs one target check
type Checker interface {
	Check(ctx context.Context, target string) (*domain.RunResult, error)
}

// ReportFunc renders a finished run
type ReportFunc func(run *domain.RunResult) error

// Driver runs checks and hands results to the report function
type Driver struct {
	mu      sync.RWMutex
	checker Checker

	report ReportFunc
	in     io.Reader
	out    io.Writer
	prompt string
	logger zerolog.Logger
}

// New creates a driver reading targets from in and prompting on out
func New(checker Checker, report ReportFunc, in io.Reader, out io.Writer, logger zerolog.Logger) *Driver {
	return &Driver{
		checker: checker,
		report:  report,
		in:      in,
		out:     out,
		prompt:  DefaultPrompt,
		logger:  logger.With().Str("component", "session").Logger(),
	}
}

// SetChecker replaces the checker used for subsequent runs
func (d *Driver) SetChecker(c Checker) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.checker = c
}

func (d *Driver) currentChecker() Checker {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.checker
}

// RunOnce checks a single target and reports it
func (d *Driver) RunOnce(ctx context.Context, target string) error {
	run, err := d.currentChecker().Check(ctx, target)
	if err != nil {
		return err
	}
	return d.report(run)
}

// Loop prompts for targets until an exit token or EOF, which return nil,
// or until ctx is done, which returns the context error.
func (d *Driver) Loop(ctx context.Context) error {
	// Release the reader goroutine when the loop returns
	readCtx, stop := context.WithCancel(ctx)
	defer stop()

	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(d.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-readCtx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		if _, err := fmt.Fprint(d.out, d.prompt); err != nil {
			return fmt.Errorf("write prompt: %w", err)
		}

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(d.out)
			return ctx.Err()
		case err := <-readErr:
			fmt.Fprintln(d.out)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return nil
		case line = <-lines:
		}

		target := strings.TrimSpace(line)
		if target == "" {
			continue
		}
		if exitTokens[target] {
			return nil
		}

		if err := d.RunOnce(ctx, target); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// One bad target never ends the loop
			d.logger.Error().Err(err).Str("target", target).Msg("check failed")
		}
	}
}
