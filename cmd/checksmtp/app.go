package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"checksmtp/internal/adapter"
	"checksmtp/internal/codec"
	"checksmtp/internal/config"
	"checksmtp/internal/domain"
	"checksmtp/internal/policy"
	"checksmtp/internal/report"
	"checksmtp/internal/service"
	"checksmtp/internal/session"
)

// loadConfig reads the config file named by -config, or searches for one
func loadConfig(opts *options) (*config.Config, string, error) {
	if opts.configPath != "" {
		return config.LoadFromPath(opts.configPath)
	}
	return config.Load()
}

// applyFlags overlays explicitly given flags onto the file config
func applyFlags(cfg *config.Config, opts *options) error {
	if opts.set["format"] {
		cfg.Output.Format = opts.format
	}
	switch cfg.Output.Format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unsupported format %q", cfg.Output.Format)
	}

	if opts.set["timeout"] || opts.set["parallel"] {
		if cfg.Probe == nil {
			cfg.Probe = &config.ProbeOverride{}
		}
		if opts.set["timeout"] {
			if opts.timeout <= 0 {
				return fmt.Errorf("-timeout must be positive")
			}
			cfg.Probe.Timeout = config.DurationPtr(opts.timeout)
		}
		if opts.set["parallel"] {
			parallel := opts.parallel
			cfg.Probe.Parallel = &parallel
		}
	}

	if opts.fingerprint {
		cfg.Capabilities.Plugins.Nmap.Enabled = true
		cfg.Capabilities.Plugins.Nmap.Required = true
	}

	if opts.dbPath != "" {
		cfg.History.Enabled = true
		cfg.History.Path = opts.dbPath
	}

	return nil
}

// components are the long-lived pieces shared by every checker built
type components struct {
	store  service.RunSaver
	events *service.EventBus
	logger zerolog.Logger
}

// buildChecker wires a checker from config
func buildChecker(cfg *config.Config, nmapPath string, c components) *service.Checker {
	probe := cfg.EffectiveProbe()

	var resolver adapter.Resolver
	if cfg.DNS.Server != "" {
		resolver = adapter.NewNameserverResolver(cfg.DNS.Server, probe.Timeout, c.logger)
	} else {
		resolver = adapter.NewSystemResolver(probe.Timeout, c.logger)
	}

	var source adapter.StatusSource
	if cfg.Capabilities.IsEnabled("vpn_status") {
		source = adapter.NewTailscaleSource(cfg.VPNClient(), probe.Timeout)
	}
	guard := policy.NewGuard(source, cfg.Policy.Enabled, c.logger)

	prober := adapter.NewSMTPProber(adapter.ProberConfig{
		Timeout:      probe.Timeout,
		GreetingWait: probe.GreetingWait,
		TLSVerify:    probe.TLSVerify,
	}, c.logger)

	opts := []service.CheckOption{
		service.WithParallel(probe.Parallel),
		service.WithEventBus(c.events),
	}
	if c.store != nil {
		opts = append(opts, service.WithStore(c.store))
	}
	if cfg.Capabilities.IsEnabled("nmap") && nmapPath != "" {
		opts = append(opts, service.WithFingerprinter(newFingerprinter(nmapPath, probe, c.logger)))
	}

	return service.NewChecker(resolver, guard, prober, c.logger, opts...)
}

// fingerprintPerTimeout scales the nmap budget with the posture's patience
const fingerprintPerTimeout = 12

func newFingerprinter(path string, probe config.ProbeProfile, logger zerolog.Logger) *adapter.NmapFingerprinter {
	return adapter.NewNmapFingerprinter(logger,
		adapter.WithNmapBinary(path),
		adapter.WithScanTimeout(fingerprintPerTimeout*probe.Timeout),
		adapter.WithServiceDetection(true),
		adapter.WithSkipHostDiscovery(true),
	)
}

// newReporter renders each run in the configured format
func newReporter(cfg *config.Config, stdout io.Writer) (session.ReportFunc, error) {
	if cfg.Output.Format == "text" {
		renderer := newRenderer(cfg, stdout)
		return func(run *domain.RunResult) error {
			return renderer.Run(run.Snapshot())
		}, nil
	}

	exporter, err := codec.ForFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	return func(run *domain.RunResult) error {
		return exporter.Export([]domain.RunRecord{run.Snapshot()}, stdout)
	}, nil
}

func newRenderer(cfg *config.Config, stdout io.Writer) *report.Renderer {
	f, _ := stdout.(*os.File)
	return report.NewRenderer(stdout, report.ColorEnabled(cfg.Output.Color, f))
}

// logEvents writes run progress to the debug log until ctx is done
func logEvents(ctx context.Context, bus *service.EventBus, logger zerolog.Logger) {
	ch := make(chan service.Event, 32)
	bus.Subscribe(ch)

	log := logger.With().Str("component", "progress").Logger()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				entry := log.Debug().Str("event", string(ev.Type)).Str("run_id", ev.RunID)
				if res, ok := ev.Payload.(domain.PortResult); ok {
					entry = entry.Str("port", res.Spec.String()).Str("outcome", string(res.Outcome)).Dur("elapsed", res.Elapsed)
				}
				entry.Msg("progress")
			}
		}
	}()
}
