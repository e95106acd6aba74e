package adapter

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"checksmtp/internal/domain"
)

// ProberConfig holds timing settings for port probes
type ProberConfig struct {
	// Timeout bounds each connection attempt and TLS handshake; no retries
	Timeout time.Duration
	// GreetingWait bounds the wait for the server greeting
	GreetingWait time.Duration
	// TLSVerify enables certificate verification on implicit-TLS ports
	TLSVerify bool
}

// DefaultProberConfig returns the interactive defaults
func DefaultProberConfig() ProberConfig {
	return ProberConfig{
		Timeout:      5 * time.Second,
		GreetingWait: 5 * time.Second,
	}
}

// dialState classifies a connection attempt
type dialState int

const (
	dialOK dialState = iota
	dialRefused
	dialTimeout
	dialFailed
)

func (s dialState) String() string {
	switch s {
	case dialOK:
		return "connected"
	case dialRefused:
		return "connection refused"
	case dialTimeout:
		return "timeout"
	default:
		return "connect failed"
	}
}

// dialError marks a failure of the TCP dial itself, as opposed to a later
// handshake or read failure on an established connection
type dialError struct {
	err error
}

func (e *dialError) Error() string { return e.err.Error() }
func (e *dialError) Unwrap() error { return e.err }

// SMTPProber classifies SMTP ports by greeting and raw connect
type SMTPProber struct {
	config ProberConfig
	logger zerolog.Logger

	// portFor maps a port spec to the port actually dialed
	portFor func(domain.PortSpec) int
	dial    func(ctx context.Context, addr string) (net.Conn, error)
}

// NewSMTPProber creates a prober with the given timing
func NewSMTPProber(config ProberConfig, logger zerolog.Logger) *SMTPProber {
	defaults := DefaultProberConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.GreetingWait <= 0 {
		config.GreetingWait = defaults.GreetingWait
	}
	dialer := &net.Dialer{Timeout: config.Timeout}
	return &SMTPProber{
		config:  config,
		logger:  logger.With().Str("component", "prober").Logger(),
		portFor: func(spec domain.PortSpec) int { return spec.Port },
		dial: func(ctx context.Context, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, "tcp", addr)
		},
	}
}

// Probe checks one port: greeting first, then a raw connect if needed
func (p *SMTPProber) Probe(ctx context.Context, host *domain.ResolvedHost, spec domain.PortSpec) domain.PortResult {
	start := time.Now()
	res := domain.PortResult{Spec: spec}
	addr := host.HostPort(p.portFor(spec))

	log := p.logger.With().Str("addr", addr).Str("port", spec.String()).Logger()

	greeting, err := p.readGreeting(ctx, host, spec, addr)
	res.TLS = greeting.tls

	switch {
	case greeting.line != "":
		res.Outcome = domain.OutcomeOpenBanner
		res.Banner = greeting.line
		log.Debug().Str("banner", greeting.line).Msg("greeting received")

	case dialFailedWith(err, dialRefused):
		// Refused once is enough
		res.Outcome = domain.OutcomeClosed
		res.Detail = dialRefused.String()
		log.Debug().Msg("greeting dial refused")

	case dialFailedWith(err, dialTimeout):
		// A timed-out attempt is final, no second dial
		res.Outcome = domain.OutcomeTimeout
		res.Detail = dialTimeout.String()
		log.Debug().Msg("greeting dial timed out")

	default:
		if err != nil {
			log.Debug().Err(err).Msg("no greeting")
		}
		state, cerr := p.connect(ctx, addr)
		switch state {
		case dialOK:
			res.Outcome = domain.OutcomeOpenNoBanner
		case dialTimeout:
			res.Outcome = domain.OutcomeTimeout
			res.Detail = state.String()
		default:
			res.Outcome = domain.OutcomeClosed
			res.Detail = state.String()
			if cerr != nil && state == dialFailed {
				res.Detail = cerr.Error()
			}
		}
		log.Debug().Str("state", state.String()).Msg("raw connect")
	}

	res.Elapsed = time.Since(start)
	return res
}

// connect performs a bare TCP connect and closes it immediately
func (p *SMTPProber) connect(ctx context.Context, addr string) (dialState, error) {
	conn, err := p.dial(ctx, addr)
	if err != nil {
		return classifyDial(err), err
	}
	_ = conn.Close()
	return dialOK, nil
}

// classifyDial maps a dial error onto refused, timeout or failed
func classifyDial(err error) dialState {
	if err == nil {
		return dialOK
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return dialRefused
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return dialTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return dialTimeout
	}
	return dialFailed
}

// dialFailedWith reports whether err is a dial-stage failure of the given kind
func dialFailedWith(err error, state dialState) bool {
	var de *dialError
	return errors.As(err, &de) && classifyDial(de.err) == state
}
