package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/miekg/dns"
	"github.com/rs/zerolog"

	"checksmtp/internal/domain"
)

// ErrNoSuchHost is wrapped when a nameserver answers NXDOMAIN
var ErrNoSuchHost = errors.New("no such host")

// SystemResolver resolves names through the operating system configuration
type SystemResolver struct {
	resolver *net.Resolver
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewSystemResolver creates a resolver bounded by timeout per lookup
func NewSystemResolver(timeout time.Duration, logger zerolog.Logger) *SystemResolver {
	return &SystemResolver{
		resolver: net.DefaultResolver,
		timeout:  timeout,
		logger:   logger.With().Str("component", "resolver").Logger(),
	}
}

// Resolve looks up all addresses of hostname
func (r *SystemResolver) Resolve(ctx context.Context, hostname string) (*domain.ResolvedHost, error) {
	if host, ok := literalHost(hostname); ok {
		return host, nil
	}
	if hostname == "" {
		return nil, &domain.ResolutionError{Hostname: hostname, Err: errors.New("empty hostname")}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	addrs, err := r.resolver.LookupHost(ctx, hostname)
	if err != nil {
		var dnsErr *net.DNSError
		notFound := errors.As(err, &dnsErr) && dnsErr.IsNotFound
		r.logger.Debug().Str("host", hostname).Bool("not_found", notFound).Err(err).Msg("lookup failed")
		return nil, &domain.ResolutionError{Hostname: hostname, NotFound: notFound, Err: err}
	}
	if len(addrs) == 0 {
		return nil, &domain.ResolutionError{Hostname: hostname, NotFound: true}
	}

	sortAddresses(addrs)
	r.logger.Debug().Str("host", hostname).Strs("addresses", addrs).Msg("resolved")

	return &domain.ResolvedHost{Hostname: hostname, Addresses: addrs}, nil
}

// NameserverResolver queries one nameserver directly
type NameserverResolver struct {
	server string
	client *dns.Client
	logger zerolog.Logger
}

// NewNameserverResolver creates a resolver for server ("host" or "host:port")
func NewNameserverResolver(server string, timeout time.Duration, logger zerolog.Logger) *NameserverResolver {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return &NameserverResolver{
		server: server,
		client: &dns.Client{Timeout: timeout},
		logger: logger.With().Str("component", "resolver").Str("nameserver", server).Logger(),
	}
}

// Server returns the nameserver address in use
func (r *NameserverResolver) Server() string {
	return r.server
}

// Resolve asks for A then AAAA records of hostname
func (r *NameserverResolver) Resolve(ctx context.Context, hostname string) (*domain.ResolvedHost, error) {
	if host, ok := literalHost(hostname); ok {
		return host, nil
	}
	if hostname == "" {
		return nil, &domain.ResolutionError{Hostname: hostname, Err: errors.New("empty hostname")}
	}

	var (
		addrs   []string
		lastErr error
	)

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		m := new(dns.Msg)
		m.SetQuestion(dns.Fqdn(hostname), qtype)
		m.RecursionDesired = true

		in, _, err := r.client.ExchangeContext(ctx, m, r.server)
		if err != nil {
			r.logger.Debug().Str("host", hostname).Str("qtype", dns.TypeToString[qtype]).Err(err).Msg("exchange failed")
			lastErr = err
			continue
		}

		switch in.Rcode {
		case dns.RcodeSuccess:
		case dns.RcodeNameError:
			// The name does not exist for any record type
			return nil, &domain.ResolutionError{
				Hostname: hostname,
				NotFound: true,
				Err:      fmt.Errorf("%w (nameserver %s)", ErrNoSuchHost, r.server),
			}
		default:
			lastErr = fmt.Errorf("nameserver %s answered %s", r.server, dns.RcodeToString[in.Rcode])
			continue
		}

		for _, rr := range in.Answer {
			switch v := rr.(type) {
			case *dns.A:
				addrs = append(addrs, v.A.String())
			case *dns.AAAA:
				addrs = append(addrs, v.AAAA.String())
			}
		}
	}

	if len(addrs) > 0 {
		r.logger.Debug().Str("host", hostname).Strs("addresses", addrs).Msg("resolved")
		return &domain.ResolvedHost{Hostname: hostname, Addresses: addrs}, nil
	}
	if lastErr != nil {
		return nil, &domain.ResolutionError{Hostname: hostname, Err: lastErr}
	}
	return nil, &domain.ResolutionError{Hostname: hostname, NotFound: true}
}

// literalHost short-circuits IP literals so no lookup happens
func literalHost(target string) (*domain.ResolvedHost, bool) {
	ip := net.ParseIP(target)
	if ip == nil {
		return nil, false
	}
	return &domain.ResolvedHost{Hostname: target, Addresses: []string{ip.String()}}, true
}

// sortAddresses puts IPv4 addresses first, keeping resolver order otherwise
func sortAddresses(addrs []string) {
	sort.SliceStable(addrs, func(i, j int) bool {
		return isIPv4(addrs[i]) && !isIPv4(addrs[j])
	})
}

func isIPv4(addr string) bool {
	ip := net.ParseIP(addr)
	return ip != nil && ip.To4() != nil
}
