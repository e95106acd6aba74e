package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"checksmtp/internal/adapter"
	"checksmtp/internal/alias"
	"checksmtp/internal/domain"
)

// PolicyDecider decides once per run whether policy-checked ports are probed
type PolicyDecider interface {
	Decide(ctx context.Context) domain.PolicyDecision
}

// RunSaver stores finished runs
type RunSaver interface {
	SaveRun(ctx context.Context, run *domain.RunResult) error
}

// CheckOption is a functional option for configuring Checker
type CheckOption func(*Checker)

// WithParallel probes the ports concurrently
func WithParallel(parallel bool) CheckOption {
	return func(c *Checker) {
		c.parallel = parallel
	}
}

// WithFingerprinter enables service fingerprinting of reachable ports
func WithFingerprinter(f adapter.Fingerprinter) CheckOption {
	return func(c *Checker) {
		c.fingerprinter = f
	}
}

// WithStore saves every finished run
func WithStore(store RunSaver) CheckOption {
	return func(c *Checker) {
		c.store = store
	}
}

// WithEventBus publishes progress events
func WithEventBus(bus *EventBus) CheckOption {
	return func(c *Checker) {
		c.events = bus
	}
}

// Checker runs target checks
type Checker struct {
	resolver      adapter.Resolver
	guard         PolicyDecider
	prober        adapter.PortProber
	fingerprinter adapter.Fingerprinter
	store         RunSaver
	events        *EventBus
	parallel      bool
	logger        zerolog.Logger
}

// NewChecker creates a checker from its collaborators
func NewChecker(resolver adapter.Resolver, guard PolicyDecider, prober adapter.PortProber, logger zerolog.Logger, opts ...CheckOption) *Checker {
	c := &Checker{
		resolver: resolver,
		guard:    guard,
		prober:   prober,
		logger:   logger.With().Str("component", "check").Logger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Check runs a full check of target.
// A resolution failure is reported on the result, not as an error; the
// error return is reserved for cancellation.
func (c *Checker) Check(ctx context.Context, target string) (*domain.RunResult, error) {
	run := domain.NewRunResult(target)
	hostname := alias.Resolve(target)

	log := c.logger.With().Str("run_id", run.ID).Str("target", target).Logger()
	if hostname != target {
		log.Debug().Str("hostname", hostname).Msg("alias expanded")
	}

	c.publish(EventRunStarted, run, map[string]any{"target": target, "hostname": hostname})

	host, err := c.resolver.Resolve(ctx, hostname)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("check %s: %w", target, ctx.Err())
		}

		var resErr *domain.ResolutionError
		if !errors.As(err, &resErr) {
			resErr = &domain.ResolutionError{Hostname: hostname, Err: err}
		}
		run.ResolutionErr = resErr
		log.Info().Err(resErr).Msg("resolution failed, no ports probed")

		return c.finish(ctx, run), nil
	}

	run.Host = host
	c.publish(EventHostResolved, run, host)

	run.Policy = c.guard.Decide(ctx)
	c.publish(EventPolicyDecided, run, run.Policy)

	results := c.probeAll(ctx, run)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("check %s: %w", target, err)
	}

	if c.fingerprinter != nil {
		c.fingerprint(ctx, host, &results)
	}

	for _, res := range results {
		if err := run.Record(res); err != nil {
			return nil, fmt.Errorf("check %s: %w", target, err)
		}
	}

	return c.finish(ctx, run), nil
}

// probeAll probes every port not skipped by policy.
// Results are indexed by report position, so completion order is irrelevant.
func (c *Checker) probeAll(ctx context.Context, run *domain.RunResult) [domain.PortCount]domain.PortResult {
	var results [domain.PortCount]domain.PortResult

	probe := func(i int) {
		spec := domain.PortAt(i)
		if run.Policy.Skips(spec) {
			results[i] = domain.PortResult{
				Spec:    spec,
				Outcome: domain.OutcomeSkipped,
				Detail:  "exit node " + run.Policy.ExitNode,
			}
		} else {
			results[i] = c.prober.Probe(ctx, run.Host, spec)
		}
		c.publish(EventPortProbed, run, results[i])
	}

	if !c.parallel {
		for i := 0; i < domain.PortCount; i++ {
			if ctx.Err() != nil {
				break
			}
			probe(i)
		}
		return results
	}

	var g errgroup.Group
	for i := 0; i < domain.PortCount; i++ {
		i := i
		g.Go(func() error {
			probe(i)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// fingerprint attaches nmap service info to reachable ports
func (c *Checker) fingerprint(ctx context.Context, host *domain.ResolvedHost, results *[domain.PortCount]domain.PortResult) {
	var ports []int
	for _, res := range results {
		if res.Outcome.Reachable() {
			ports = append(ports, res.Spec.Port)
		}
	}
	if len(ports) == 0 {
		return
	}

	fps, err := c.fingerprinter.Fingerprint(ctx, host, ports)
	if err != nil {
		c.logger.Warn().Err(err).Msg("fingerprint failed")
		return
	}

	for i := range results {
		if fp, ok := fps[results[i].Spec.Port]; ok {
			fp := fp
			results[i].Fingerprint = &fp
		}
	}
}

// finish stamps the run, stores it and announces it
func (c *Checker) finish(ctx context.Context, run *domain.RunResult) *domain.RunResult {
	run.Finish()

	if c.store != nil {
		if err := c.store.SaveRun(ctx, run); err != nil {
			c.logger.Warn().Err(err).Str("run_id", run.ID).Msg("failed to save run history")
		}
	}

	c.publish(EventRunFinished, run, map[string]any{
		"failed":   run.Failed(),
		"duration": run.Duration().String(),
	})
	return run
}

func (c *Checker) publish(t EventType, run *domain.RunResult, payload interface{}) {
	c.events.Publish(Event{Type: t, RunID: run.ID, Payload: payload})
}
