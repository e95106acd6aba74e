package adapter

import (
	"bufio"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/ocsp"

	"checksmtp/internal/domain"
)

// greetingPattern matches an SMTP reply line: three digits, then space or dash
var greetingPattern = regexp.MustCompile(`^\d{3}[ -]`)

const (
	quitCommand = "QUIT\r\n"
	// maxBannerLen caps what we keep from a misbehaving server
	maxBannerLen = 512
)

type greeting struct {
	line string
	tls  *domain.TLSDetails
}

// readGreeting dials the port and reads the server greeting
func (p *SMTPProber) readGreeting(ctx context.Context, host *domain.ResolvedHost, spec domain.PortSpec, addr string) (greeting, error) {
	conn, err := p.dial(ctx, addr)
	if err != nil {
		return greeting{}, &dialError{err: err}
	}
	defer conn.Close()

	// Unblock reads when the run is cancelled
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if spec.Protocol == domain.ProtocolImplicitTLS {
		return p.readTLSGreeting(ctx, conn, host)
	}
	return p.readPlainGreeting(conn)
}

// readPlainGreeting sends QUIT and reads the first line the server sends
func (p *SMTPProber) readPlainGreeting(conn net.Conn) (greeting, error) {
	if err := conn.SetDeadline(time.Now().Add(p.config.GreetingWait)); err != nil {
		return greeting{}, fmt.Errorf("set deadline: %w", err)
	}

	if _, err := conn.Write([]byte(quitCommand)); err != nil {
		return greeting{}, fmt.Errorf("send quit: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	line = cleanLine(line)
	if line != "" {
		return greeting{line: line}, nil
	}
	if err != nil {
		return greeting{}, fmt.Errorf("read greeting: %w", err)
	}
	return greeting{}, nil
}

// readTLSGreeting completes the handshake and waits for a greeting line
func (p *SMTPProber) readTLSGreeting(ctx context.Context, conn net.Conn, host *domain.ResolvedHost) (greeting, error) {
	if err := conn.SetDeadline(time.Now().Add(p.config.Timeout)); err != nil {
		return greeting{}, fmt.Errorf("set deadline: %w", err)
	}

	tlsConn := tls.Client(conn, &tls.Config{
		ServerName:         host.Hostname,
		InsecureSkipVerify: !p.config.TLSVerify,
	})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return greeting{}, fmt.Errorf("tls handshake: %w", err)
	}

	g := greeting{tls: tlsDetails(tlsConn.ConnectionState())}

	if err := tlsConn.SetDeadline(time.Now().Add(p.config.GreetingWait)); err != nil {
		return g, fmt.Errorf("set deadline: %w", err)
	}

	r := bufio.NewReader(tlsConn)
	var readErr error
	for {
		line, err := r.ReadString('\n')
		if l := cleanLine(line); greetingPattern.MatchString(l) {
			g.line = l
			break
		}
		if err != nil {
			readErr = err
			break
		}
	}

	_, _ = tlsConn.Write([]byte(quitCommand))

	if g.line == "" && readErr != nil {
		return g, fmt.Errorf("read greeting: %w", readErr)
	}
	return g, nil
}

func cleanLine(line string) string {
	line = strings.TrimRight(line, "\r\n")
	if len(line) > maxBannerLen {
		line = line[:maxBannerLen]
	}
	return line
}

// tlsDetails summarizes a completed handshake
func tlsDetails(state tls.ConnectionState) *domain.TLSDetails {
	d := &domain.TLSDetails{
		Version:     tls.VersionName(state.Version),
		CipherSuite: tls.CipherSuiteName(state.CipherSuite),
		ServerName:  state.ServerName,
	}

	if len(state.PeerCertificates) > 0 {
		leaf := state.PeerCertificates[0]
		d.CertSubject = leaf.Subject.String()
		d.CertIssuer = leaf.Issuer.String()
		notAfter := leaf.NotAfter
		d.CertNotAfter = &notAfter
	}

	if len(state.OCSPResponse) > 0 {
		var issuer *x509.Certificate
		if len(state.PeerCertificates) > 1 {
			issuer = state.PeerCertificates[1]
		}
		d.OCSPStatus = ocspStatus(state.OCSPResponse, issuer)
	}

	return d
}

// ocspStatus decodes a stapled response; issuer may be nil
func ocspStatus(raw []byte, issuer *x509.Certificate) string {
	resp, err := ocsp.ParseResponse(raw, issuer)
	if err != nil {
		return "invalid"
	}
	switch resp.Status {
	case ocsp.Good:
		return "good"
	case ocsp.Revoked:
		return "revoked"
	default:
		return "unknown"
	}
}
