package adlist

import (
	"net/netip"
	"regexp"
	"strings"
)

// dnsmasqRe matches dnsmasq address and server directives.  The first group
// is the domain.
var dnsmasqRe = regexp.MustCompile(`(?:address|server)=/(.*)/.*`)

// IsIgnorable returns true for lines that never yield a domain: empty lines
// and comments.  line is assumed to be trimmed of whitespace characters.
func IsIgnorable(line string) bool {
	return line == "" || strings.HasPrefix(line, "#")
}

// ParseLine converts a trimmed line into a candidate domain according to
// format.  ok is false when the line yields no candidate.  The candidate may
// still be empty or ".", which callers must reject.
func ParseLine(format Format, line string) (domain string, ok bool) {
	switch format {
	case FormatHosts:
		return parseHostsLine(line)
	case FormatDomains:
		return line, true
	case FormatDnsmasq:
		return parseDnsmasqLine(line)
	default:
		return "", false
	}
}

// parseHostsLine accepts "<unspecified-ip> <hostname>".  The address only
// marks the line as a blackhole entry, so it is never normalised.
func parseHostsLine(line string) (string, bool) {
	addr, host, found := strings.Cut(line, " ")
	if !found {
		return "", false
	}

	ip, err := netip.ParseAddr(addr)
	if err != nil || !ip.IsUnspecified() {
		return "", false
	}

	host = strings.TrimSpace(host)
	if _, err := netip.ParseAddr(host); err == nil {
		return "", false
	}

	return host, true
}

func parseDnsmasqLine(line string) (string, bool) {
	m := dnsmasqRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}
