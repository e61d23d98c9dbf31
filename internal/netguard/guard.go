package netguard

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
)

// Options configures a Guard.
type Options struct {
	// AllowPrivate disables every check. It is an explicit opt-in; the zero
	// value keeps the guard active.
	AllowPrivate bool
}

// Verdict is the outcome of a single check.
type Verdict struct {
	Blocked bool
	Reason  string
}

// BlockedError is returned by DialControl when the resolved address of a
// connection is not allowed.
type BlockedError struct {
	Host   string
	Reason string
}

func (e *BlockedError) Error() string {
	return e.Reason
}

// Guard classifies hosts. It is safe for concurrent use.
type Guard struct {
	allowPrivate bool
}

// New creates a Guard.
func New(opts Options) *Guard {
	return &Guard{allowPrivate: opts.AllowPrivate}
}

// AllowsPrivate reports whether the guard has been disabled.
func (g *Guard) AllowsPrivate() bool {
	return g != nil && g.allowPrivate
}

var metadataHosts = map[string]bool{
	"metadata":                   true,
	"metadata.google.internal":   true,
	"metadata.goog":              true,
	"metadata.azure.internal":    true,
	"instance-data":              true,
	"instance-data.ec2.internal": true,
}

var blockedV4 = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("100.64.0.0/10"),
}

var blockedV6 = []netip.Prefix{
	netip.MustParsePrefix("::/128"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fe80::/10"),
	netip.MustParsePrefix("fc00::/7"),
}

// NormalizeHost lowercases host and strips a trailing dot, IPv6 brackets and
// an IPv6 zone suffix.
func NormalizeHost(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	h = strings.TrimPrefix(h, "[")
	h = strings.TrimSuffix(h, "]")
	if i := strings.IndexByte(h, '%'); i >= 0 {
		h = h[:i]
	}
	return strings.TrimSuffix(h, ".")
}

// Check classifies a hostname or IP literal.
func (g *Guard) Check(host string) Verdict {
	if g.AllowsPrivate() {
		return Verdict{}
	}
	h := NormalizeHost(host)
	if h == "" {
		return Verdict{Blocked: true, Reason: "Blocked empty host"}
	}
	if h == "localhost" || strings.HasSuffix(h, ".localhost") {
		return Verdict{Blocked: true, Reason: fmt.Sprintf("Blocked localhost host: %s", h)}
	}
	if metadataHosts[h] {
		return Verdict{Blocked: true, Reason: fmt.Sprintf("Blocked cloud metadata host: %s", h)}
	}
	addr, err := netip.ParseAddr(h)
	if err != nil {
		return Verdict{}
	}
	if IsPrivateAddr(addr) {
		return Verdict{Blocked: true, Reason: fmt.Sprintf("Blocked private IP host: %s", h)}
	}
	return Verdict{}
}

// CheckURL runs Check on the hostname of u.
func (g *Guard) CheckURL(u *url.URL) Verdict {
	if u == nil {
		return Verdict{Blocked: true, Reason: "Blocked empty host"}
	}
	return g.Check(u.Hostname())
}

// IsPrivateAddr reports whether addr falls inside one of the blocked ranges.
// IPv4-mapped IPv6 addresses are judged by their embedded IPv4 address.
func IsPrivateAddr(addr netip.Addr) bool {
	addr = addr.WithZone("")
	if addr.Is4In6() {
		addr = addr.Unmap()
	}
	prefixes := blockedV6
	if addr.Is4() {
		prefixes = blockedV4
	}
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// DialControl is a net.Dialer Control hook. It refuses connections whose
// resolved address is private, unless the guard allows private hosts.
func (g *Guard) DialControl(network, address string, _ syscall.RawConn) error {
	if g.AllowsPrivate() {
		return nil
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		host = address
	}
	addr, err := netip.ParseAddr(NormalizeHost(host))
	if err != nil {
		return nil
	}
	if IsPrivateAddr(addr) {
		return &BlockedError{
			Host:   addr.String(),
			Reason: fmt.Sprintf("Blocked private IP host: %s (resolved address)", addr.String()),
		}
	}
	return nil
}

// AsBlocked unwraps err looking for a BlockedError.
func AsBlocked(err error) (*BlockedError, bool) {
	var be *BlockedError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
