// Command checksmtp checks whether a mail host is reachable on the SMTP ports.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"checksmtp/internal/alias"
	"checksmtp/internal/codec"
	"checksmtp/internal/config"
	"checksmtp/internal/core/bootstrap"
	"checksmtp/internal/domain"
	"checksmtp/internal/report"
	"checksmtp/internal/repository/sqlite"
	"checksmtp/internal/service"
	"checksmtp/internal/session"
	"checksmtp/internal/watcher"
)

// Exit codes
const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitPreflight = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	f, _ := w.(*os.File)
	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
		NoColor:    !report.ColorEnabled(report.ColorAuto, f),
	}
	return zerolog.New(console).
		Level(level).
		With().Timestamp().Logger()
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "checksmtp: %v\n", err)
		return exitUsage
	}

	logger := newLogger(stderr, opts.verbose)

	cfg, cfgPath, err := loadConfig(opts)
	if err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return exitUsage
	}
	if err := applyFlags(cfg, opts); err != nil {
		logger.Error().Err(err).Msg("invalid flags")
		return exitUsage
	}
	if cfgPath != "" {
		logger.Debug().Str("path", cfgPath).Msg("config loaded")
	}
	logger.Debug().Msg(cfg.Summary())

	switch {
	case opts.aliases:
		if err := newRenderer(cfg, stdout).Aliases(alias.Known()); err != nil {
			logger.Error().Err(err).Send()
			return exitFailure
		}
		return exitOK
	case opts.replay != "":
		return replay(cfg, opts.replay, stdout, logger)
	case opts.set["history"] || opts.show != "":
		return showHistory(cfg, opts, stdout, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pre, err := bootstrap.Run(ctx, bootstrap.Options{Capabilities: cfg.Capabilities.ListCapabilities()}, logger)
	if err != nil {
		logger.Error().Err(err).Msg("preflight failed")
		return exitPreflight
	}
	nmapPath := ""
	if st, ok := pre.Capability("nmap"); ok && st.Available {
		nmapPath = st.Path
		if err := newFingerprinter(nmapPath, cfg.EffectiveProbe(), logger).Available(ctx); err != nil {
			logger.Error().Err(err).Msg("preflight failed")
			return exitPreflight
		}
	}

	comp := components{events: service.NewEventBus(), logger: logger}
	if cfg.History.Enabled {
		store, err := sqlite.New(cfg.History.Path)
		if err != nil {
			logger.Error().Err(err).Str("path", cfg.History.Path).Msg("cannot open run history")
			return exitFailure
		}
		defer store.Close()
		comp.store = store
	}
	if opts.verbose {
		logEvents(ctx, comp.events, logger)
	}

	reporter, err := newReporter(cfg, stdout)
	if err != nil {
		logger.Error().Err(err).Send()
		return exitUsage
	}

	driver := session.New(buildChecker(cfg, nmapPath, comp), reporter, stdin, stdout, logger)

	if opts.target != "" {
		if err := driver.RunOnce(ctx, opts.target); err != nil {
			if ctx.Err() != nil {
				return exitOK
			}
			logger.Error().Err(err).Msg("check failed")
			return exitFailure
		}
		return exitOK
	}

	if cfgPath != "" {
		watchConfig(ctx, cfgPath, opts, nmapPath, comp, driver)
	}

	if err := driver.Loop(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Send()
		return exitFailure
	}
	return exitOK
}

// watchConfig rebuilds the checker whenever the config file changes.
// An invalid edit keeps the previous checker.
func watchConfig(ctx context.Context, path string, opts *options, nmapPath string, comp components, driver *session.Driver) {
	var mu sync.Mutex
	reload := func(changed string) {
		mu.Lock()
		defer mu.Unlock()

		cfg, _, err := config.LoadFromPath(changed)
		if err == nil {
			err = applyFlags(cfg, opts)
		}
		if err != nil {
			comp.logger.Warn().Err(err).Msg("config reload failed, keeping previous settings")
			return
		}
		driver.SetChecker(buildChecker(cfg, nmapPath, comp))
		comp.logger.Info().Str("posture", string(cfg.Posture)).Msg("config reloaded")
	}

	w := watcher.New(path, reload, comp.logger)
	go func() {
		select {
		case <-w.Ready():
			comp.logger.Debug().Str("path", path).Msg("watching config for changes")
		case <-ctx.Done():
		}
	}()
	go func() {
		if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			comp.logger.Warn().Err(err).Msg("config watch stopped")
		}
	}()
}

// replay renders a previously exported report as text
func replay(cfg *config.Config, path string, stdout io.Writer, logger zerolog.Logger) int {
	c, err := codec.ForPath(path)
	if err != nil {
		logger.Error().Err(err).Send()
		return exitUsage
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Error().Err(err).Send()
		return exitFailure
	}
	defer f.Close()

	records, err := c.Parse(f)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Send()
		return exitFailure
	}

	renderer := newRenderer(cfg, stdout)
	for i, rec := range records {
		if i > 0 {
			fmt.Fprintln(stdout)
		}
		if err := renderer.Run(rec); err != nil {
			logger.Error().Err(err).Send()
			return exitFailure
		}
	}
	return exitOK
}

// showHistory lists stored runs or renders one of them.
// A history database that was never created is treated as empty.
func showHistory(cfg *config.Config, opts *options, stdout io.Writer, logger zerolog.Logger) int {
	if !historyExists(cfg.History.Path) {
		logger.Debug().Str("path", cfg.History.Path).Msg("no run history database")
		if opts.show != "" {
			logger.Error().Msgf("run %s not found", opts.show)
			return exitFailure
		}
		return listHistory(cfg, nil, 0, stdout, logger)
	}

	store, err := sqlite.New(cfg.History.Path)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.History.Path).Msg("cannot open run history")
		return exitFailure
	}
	defer store.Close()

	ctx := context.Background()
	history := service.NewHistoryService(store)

	if opts.show != "" {
		rec, err := history.Get(ctx, opts.show)
		if err != nil {
			logger.Error().Err(err).Send()
			return exitFailure
		}
		if cfg.Output.Format == "text" {
			err = newRenderer(cfg, stdout).Run(*rec)
		} else {
			err = exportRecords(cfg.Output.Format, []domain.RunRecord{*rec}, stdout)
		}
		if err != nil {
			logger.Error().Err(err).Send()
			return exitFailure
		}
		return exitOK
	}

	records, err := history.Recent(ctx, opts.history)
	if err != nil {
		logger.Error().Err(err).Send()
		return exitFailure
	}
	total, err := store.CountRuns(ctx)
	if err != nil {
		logger.Error().Err(err).Send()
		return exitFailure
	}
	return listHistory(cfg, records, total, stdout, logger)
}

func listHistory(cfg *config.Config, records []domain.RunRecord, total int, stdout io.Writer, logger zerolog.Logger) int {
	var err error
	if cfg.Output.Format == "text" {
		err = newRenderer(cfg, stdout).History(records, total)
	} else {
		err = exportRecords(cfg.Output.Format, records, stdout)
	}
	if err != nil {
		logger.Error().Err(err).Send()
		return exitFailure
	}
	return exitOK
}

func historyExists(path string) bool {
	if path == ":memory:" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func exportRecords(format string, records []domain.RunRecord, w io.Writer) error {
	exporter, err := codec.ForFormat(format)
	if err != nil {
		return err
	}
	return exporter.Export(records, w)
}
