package adapter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/rs/zerolog"

	"checksmtp/internal/domain"
)

// ErrNmapUnavailable is returned when the nmap binary cannot be run
var ErrNmapUnavailable = errors.New("nmap not available")

// NmapFingerprinter runs nmap service detection on open SMTP ports
type NmapFingerprinter struct {
	binary            string
	timeout           time.Duration
	serviceDetection  bool
	skipHostDiscovery bool
	logger            zerolog.Logger
}

// NewNmapFingerprinter creates a fingerprinter
// opts: optional configuration options
func NewNmapFingerprinter(logger zerolog.Logger, opts ...NmapOption) *NmapFingerprinter {
	f := &NmapFingerprinter{
		timeout:           2 * time.Minute,
		serviceDetection:  true,
		skipHostDiscovery: true, // Mail hosts often drop ICMP
		logger:            logger.With().Str("component", "nmap").Logger(),
	}

	// Apply options
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Available checks that nmap can be executed with a trivial list scan
func (f *NmapFingerprinter) Available(ctx context.Context) error {
	opts := []nmap.Option{
		nmap.WithTargets("localhost"),
		nmap.WithListScan(),
	}
	if f.binary != "" {
		opts = append(opts, nmap.WithBinaryPath(f.binary))
	}

	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNmapUnavailable, err)
	}

	if _, _, err := scanner.Run(); err != nil {
		return fmt.Errorf("%w: %v", ErrNmapUnavailable, err)
	}
	return nil
}

// Fingerprint scans ports on host and returns service info keyed by port
func (f *NmapFingerprinter) Fingerprint(ctx context.Context, host *domain.ResolvedHost, ports []int) (map[int]domain.Fingerprint, error) {
	if len(ports) == 0 {
		return map[int]domain.Fingerprint{}, nil
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	// Build nmap options
	opts := []nmap.Option{
		nmap.WithTargets(host.DialAddress()),
		nmap.WithPorts(joinPorts(ports)),
	}
	if f.serviceDetection {
		opts = append(opts, nmap.WithServiceInfo())
	}
	if f.skipHostDiscovery {
		opts = append(opts, nmap.WithSkipHostDiscovery())
	}
	if f.binary != "" {
		opts = append(opts, nmap.WithBinaryPath(f.binary))
	}

	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		if errors.Is(err, nmap.ErrNmapNotInstalled) {
			return nil, fmt.Errorf("create scanner: %w", ErrNmapUnavailable)
		}
		return nil, fmt.Errorf("create scanner: %w", err)
	}

	f.logger.Debug().Str("target", host.DialAddress()).Ints("ports", ports).Msg("scanning")
	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	if warnings != nil && len(*warnings) > 0 {
		f.logger.Warn().Strs("warnings", *warnings).Msg("nmap reported warnings")
	}

	return fingerprintsFromRun(result), nil
}

// fingerprintsFromRun extracts service info for open ports
func fingerprintsFromRun(result *nmap.Run) map[int]domain.Fingerprint {
	out := make(map[int]domain.Fingerprint)
	if result == nil {
		return out
	}

	for _, host := range result.Hosts {
		for _, port := range host.Ports {
			if port.State.State != "open" {
				continue
			}
			out[int(port.ID)] = domain.Fingerprint{
				Service: port.Service.Name,
				Product: port.Service.Product,
				Version: port.Service.Version,
			}
		}
	}

	return out
}

// joinPorts renders ports in nmap's comma-separated form
func joinPorts(ports []int) string {
	sorted := append([]int(nil), ports...)
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, p := range sorted {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}
