// Package report renders check runs, run history and the alias table as text.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"checksmtp/internal/alias"
	"checksmtp/internal/domain"
)

const (
	portWidth    = 16
	outcomeWidth = 18
)

// Renderer writes human-readable reports
type Renderer struct {
	w   io.Writer
	pal palette
	now func() time.Time
}

// NewRenderer creates a renderer writing to w
func NewRenderer(w io.Writer, color bool) *Renderer {
	return &Renderer{
		w:   w,
		pal: palette{enabled: color},
		now: time.Now,
	}
}

// Run renders one finished run. Ports are listed in report order
// whatever order they were recorded in.
func (r *Renderer) Run(rec domain.RunRecord) error {
	var b strings.Builder

	if rec.Failed() {
		fmt.Fprintf(&b, "%s %s: %s\n", r.pal.red("✗"), r.pal.bold(rec.Target), rec.ResolutionError)
		return r.flush(&b)
	}

	header := rec.Target
	if rec.Hostname != "" && !strings.EqualFold(rec.Hostname, rec.Target) {
		header += " → " + rec.Hostname
	}
	fmt.Fprintf(&b, "%s", r.pal.bold(header))
	if len(rec.Addresses) > 0 {
		fmt.Fprintf(&b, " %s", r.pal.dim("("+strings.Join(rec.Addresses, ", ")+")"))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "policy: %s", rec.Policy.Verdict)
	if rec.Policy.Reason != "" {
		fmt.Fprintf(&b, " (%s)", rec.Policy.Reason)
	}
	b.WriteString("\n\n")

	byPort := make(map[int]domain.PortResult, len(rec.Results))
	for _, res := range rec.Results {
		byPort[res.Spec.Port] = res
	}

	for _, spec := range domain.Ports() {
		res, ok := byPort[spec.Port]
		if !ok {
			continue
		}
		r.portLine(&b, res)
	}

	b.WriteString("\n")
	b.WriteString(summaryLine(rec))
	b.WriteString("\n")

	return r.flush(&b)
}

func (r *Renderer) portLine(b *strings.Builder, res domain.PortResult) {
	label := fmt.Sprintf("%-*s", outcomeWidth, res.Outcome.Label())
	fmt.Fprintf(b, "  %-*s %s", portWidth, res.Spec.String(), r.outcomeColor(res.Outcome, label))

	switch {
	case res.Banner != "":
		b.WriteString(res.Banner)
	case res.Detail != "":
		b.WriteString(r.pal.dim(res.Detail))
	}
	b.WriteString("\n")

	indent := strings.Repeat(" ", portWidth+3)
	if res.TLS != nil {
		fmt.Fprintf(b, "%s%s\n", indent, r.pal.dim(tlsLine(res.TLS, r.now())))
	}
	if res.Fingerprint != nil {
		if fp := res.Fingerprint.String(); fp != "" {
			fmt.Fprintf(b, "%s%s\n", indent, r.pal.dim("service: "+fp))
		}
	}
}

func (r *Renderer) outcomeColor(o domain.PortOutcome, s string) string {
	switch o {
	case domain.OutcomeOpenBanner:
		return r.pal.green(s)
	case domain.OutcomeOpenNoBanner, domain.OutcomeTimeout:
		return r.pal.yellow(s)
	case domain.OutcomeClosed:
		return r.pal.red(s)
	default:
		return r.pal.cyan(s)
	}
}

func tlsLine(t *domain.TLSDetails, now time.Time) string {
	parts := []string{"tls: " + t.Version, t.CipherSuite}
	if t.CertSubject != "" {
		parts = append(parts, "subject "+t.CertSubject)
	}
	if t.CertNotAfter != nil {
		parts = append(parts, "expires "+humanize.RelTime(*t.CertNotAfter, now, "ago", "from now"))
	}
	if t.OCSPStatus != "" {
		parts = append(parts, "ocsp "+t.OCSPStatus)
	}
	return strings.Join(parts, ", ")
}

func summaryLine(rec domain.RunRecord) string {
	return fmt.Sprintf("%d reachable (%d with banner), %d closed, %d timeout, %d skipped in %s",
		rec.Reachable(),
		rec.Count(domain.OutcomeOpenBanner),
		rec.Count(domain.OutcomeClosed),
		rec.Count(domain.OutcomeTimeout),
		rec.Count(domain.OutcomeSkipped),
		rec.Duration().Round(time.Millisecond),
	)
}

// History renders a list of stored runs, newest first
func (r *Renderer) History(recs []domain.RunRecord, total int) error {
	var b strings.Builder

	if len(recs) == 0 {
		b.WriteString("no stored runs\n")
		return r.flush(&b)
	}

	fmt.Fprintf(&b, "%s\n", r.pal.bold(fmt.Sprintf("%-36s  %-24s  %-32s  %-9s  %s", "ID", "TARGET", "HOST", "REACHABLE", "WHEN")))
	for _, rec := range recs {
		reach := fmt.Sprintf("%d/%d", rec.Reachable(), len(rec.Results))
		if rec.Failed() {
			reach = "dns fail"
		}
		fmt.Fprintf(&b, "%-36s  %-24s  %-32s  %-9s  %s\n",
			rec.ID,
			truncate(rec.Target, 24),
			truncate(rec.Hostname, 32),
			reach,
			humanize.RelTime(rec.StartedAt, r.now(), "ago", "from now"),
		)
	}
	fmt.Fprintf(&b, "\n%s of %s stored runs\n", humanize.Comma(int64(len(recs))), humanize.Comma(int64(total)))

	return r.flush(&b)
}

// Aliases renders the alias table
func (r *Renderer) Aliases(providers []alias.Provider) error {
	var b strings.Builder
	for _, p := range providers {
		fmt.Fprintf(&b, "%s %s\n", r.pal.bold(fmt.Sprintf("%-36s", p.Host)), strings.Join(p.Names, ", "))
	}
	return r.flush(&b)
}

func (r *Renderer) flush(b *strings.Builder) error {
	if _, err := io.WriteString(r.w, b.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
