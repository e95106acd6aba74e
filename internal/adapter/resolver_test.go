package adapter

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checksmtp/internal/domain"
)

// startDNSServer runs a UDP nameserver on loopback answering from zone
func startDNSServer(t *testing.T) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		q := r.Question[0]

		switch q.Name {
		case "mx.test.":
			switch q.Qtype {
			case dns.TypeA:
				rr, _ := dns.NewRR("mx.test. 60 IN A 192.0.2.25")
				m.Answer = append(m.Answer, rr)
			case dns.TypeAAAA:
				rr, _ := dns.NewRR("mx.test. 60 IN AAAA 2001:db8::25")
				m.Answer = append(m.Answer, rr)
			}
		case "empty.test.":
			// NOERROR with no records
		case "broken.test.":
			m.Rcode = dns.RcodeServerFailure
		default:
			m.Rcode = dns.RcodeNameError
		}
		_ = w.WriteMsg(m)
	})

	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })

	return pc.LocalAddr().String()
}

func TestNameserverResolver(t *testing.T) {
	server := startDNSServer(t)
	r := NewNameserverResolver(server, 2*time.Second, zerolog.Nop())
	ctx := context.Background()

	t.Run("A and AAAA", func(t *testing.T) {
		host, err := r.Resolve(ctx, "mx.test")
		require.NoError(t, err)
		assert.Equal(t, "mx.test", host.Hostname)
		assert.Equal(t, []string{"192.0.2.25", "2001:db8::25"}, host.Addresses)
		assert.Equal(t, "192.0.2.25:587", host.HostPort(587))
	})

	t.Run("nxdomain", func(t *testing.T) {
		_, err := r.Resolve(ctx, "doesnotexist.invalid")
		var resErr *domain.ResolutionError
		require.True(t, errors.As(err, &resErr))
		assert.True(t, resErr.NotFound)
		assert.ErrorIs(t, err, ErrNoSuchHost)
	})

	t.Run("empty answer", func(t *testing.T) {
		_, err := r.Resolve(ctx, "empty.test")
		var resErr *domain.ResolutionError
		require.True(t, errors.As(err, &resErr))
		assert.True(t, resErr.NotFound)
		assert.Contains(t, err.Error(), "no addresses found")
	})

	t.Run("server failure", func(t *testing.T) {
		_, err := r.Resolve(ctx, "broken.test")
		var resErr *domain.ResolutionError
		require.True(t, errors.As(err, &resErr))
		assert.False(t, resErr.NotFound)
		assert.Contains(t, err.Error(), "SERVFAIL")
	})
}

func TestNewNameserverResolverDefaultPort(t *testing.T) {
	r := NewNameserverResolver("9.9.9.9", time.Second, zerolog.Nop())
	assert.Equal(t, "9.9.9.9:53", r.Server())

	r = NewNameserverResolver("[2620:fe::fe]:5353", time.Second, zerolog.Nop())
	assert.Equal(t, "[2620:fe::fe]:5353", r.Server())
}

func TestResolversShortCircuitLiterals(t *testing.T) {
	resolvers := map[string]Resolver{
		"system":     NewSystemResolver(time.Second, zerolog.Nop()),
		"nameserver": NewNameserverResolver("127.0.0.1:1", time.Second, zerolog.Nop()),
	}

	for name, r := range resolvers {
		t.Run(name, func(t *testing.T) {
			host, err := r.Resolve(context.Background(), "192.0.2.1")
			require.NoError(t, err)
			assert.Equal(t, []string{"192.0.2.1"}, host.Addresses)

			host, err = r.Resolve(context.Background(), "::1")
			require.NoError(t, err)
			assert.Equal(t, "[::1]:25", host.HostPort(25))

			_, err = r.Resolve(context.Background(), "")
			var resErr *domain.ResolutionError
			assert.True(t, errors.As(err, &resErr))
		})
	}
}

func TestSystemResolverFailure(t *testing.T) {
	r := NewSystemResolver(2*time.Second, zerolog.Nop())

	_, err := r.Resolve(context.Background(), "doesnotexist.invalid")
	var resErr *domain.ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "doesnotexist.invalid", resErr.Hostname)
}

func TestSortAddresses(t *testing.T) {
	addrs := []string{"2001:db8::1", "192.0.2.1", "2001:db8::2", "192.0.2.2"}
	sortAddresses(addrs)
	assert.Equal(t, []string{"192.0.2.1", "192.0.2.2", "2001:db8::1", "2001:db8::2"}, addrs)
}
