package adapter

import "time"

// NmapOption is a functional option for configuring NmapFingerprinter
type NmapOption func(*NmapFingerprinter)

// WithNmapBinary sets an explicit nmap binary path
func WithNmapBinary(path string) NmapOption {
	return func(f *NmapFingerprinter) {
		f.binary = path
	}
}

// WithScanTimeout sets the timeout for the entire nmap scan
func WithScanTimeout(d time.Duration) NmapOption {
	return func(f *NmapFingerprinter) {
		f.timeout = d
	}
}

// WithServiceDetection enables or disables service version detection (-sV)
func WithServiceDetection(enabled bool) NmapOption {
	return func(f *NmapFingerprinter) {
		f.serviceDetection = enabled
	}
}

// WithSkipHostDiscovery sets whether to skip ping and treat the host as online (-Pn)
// Useful for networks that block ICMP
func WithSkipHostDiscovery(skip bool) NmapOption {
	return func(f *NmapFingerprinter) {
		f.skipHostDiscovery = skip
	}
}
