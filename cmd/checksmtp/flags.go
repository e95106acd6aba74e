package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"
)

const usageHeader = `Usage: checksmtp [flags] [hostname-or-alias]

Checks SMTP reachability of a host on ports 587, 465, 2525 and 25.
Without a target, targets are read interactively until "exit" or "quit".

Flags:
`

// options holds parsed command-line flags
type options struct {
	configPath  string
	format      string
	timeout     time.Duration
	parallel    bool
	fingerprint bool
	history     int
	show        string
	replay      string
	dbPath      string
	aliases     bool
	verbose     bool

	// set records which flags were given explicitly
	set    map[string]bool
	target string
}

// parseFlags parses args. flag.ErrHelp is returned for -h/--help.
func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{set: make(map[string]bool)}

	fs := flag.NewFlagSet("checksmtp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usageHeader)
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", "", "Config file path (default: search standard locations)")
	fs.StringVar(&opts.format, "format", "", "Output format: text, json or yaml")
	fs.DurationVar(&opts.timeout, "timeout", 0, "Per-attempt connect and TLS timeout (overrides posture)")
	fs.BoolVar(&opts.parallel, "parallel", false, "Probe ports concurrently")
	fs.BoolVar(&opts.fingerprint, "fingerprint", false, "Fingerprint open ports with nmap service detection")
	fs.IntVar(&opts.history, "history", 0, "List the last N stored runs and exit")
	fs.StringVar(&opts.show, "show", "", "Render the stored run with this ID and exit")
	fs.StringVar(&opts.replay, "replay", "", "Render a previously exported .json or .yaml report and exit")
	fs.StringVar(&opts.dbPath, "db", "", "Run history database path (enables history)")
	fs.BoolVar(&opts.aliases, "aliases", false, "List known provider aliases and exit")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose (debug) logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		opts.set[f.Name] = true
	})

	switch fs.NArg() {
	case 0:
	case 1:
		opts.target = fs.Arg(0)
		if strings.TrimSpace(opts.target) == "" {
			return nil, fmt.Errorf("target must not be empty")
		}
	default:
		fs.Usage()
		return nil, fmt.Errorf("expected at most one target, got %d", fs.NArg())
	}

	if opts.set["history"] && opts.history < 1 {
		return nil, fmt.Errorf("-history must be at least 1, got %d", opts.history)
	}

	return opts, nil
}
