package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/miekg/dns"
)

// Kind is the artifact type of an output.  The implementations are Hosts,
// PdnsLua and RPZ.
type Kind interface {
	// Name returns the configuration name of the kind.
	Name() string

	validate() error
	// key returns the form of domain that the artifact actually records.
	// Deduplication compares keys.
	key(domain string) string
	writePrimer(w *bufio.Writer, o *Output, generated string) error
	writeDomain(w *bufio.Writer, o *Output, domain string) error
	writeTrailer(w *bufio.Writer, o *Output) error
}

// Hosts is a hosts-file artifact.  After the domains, the contents of every
// Include file are appended in order.
type Hosts struct {
	Include []string
}

// type check
var _ Kind = Hosts{}

// Name implements the Kind interface for Hosts.
func (Hosts) Name() string { return "hosts" }

func (Hosts) validate() error { return nil }

func (Hosts) writePrimer(w *bufio.Writer, _ *Output, generated string) error {
	_, err := w.WriteString("# " + generated + "\n")
	return err
}

func (Hosts) key(domain string) string { return domain }

func (Hosts) writeDomain(w *bufio.Writer, o *Output, domain string) error {
	_, err := w.WriteString(o.blackhole.String() + " " + domain + "\n")
	return err
}

func (k Hosts) writeTrailer(w *bufio.Writer, _ *Output) error {
	for _, path := range k.Include {
		if _, err := w.WriteString("\n# hosts included from " + path + "\n\n"); err != nil {
			return err
		}
		if err := copyFile(w, path); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path) // #nosec G304 -- include paths are provided via config.
	if err != nil {
		return fmt.Errorf("open include: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("copy include %s: %w", path, err)
	}
	return nil
}

// PdnsLua is a PowerDNS Recursor Lua script that answers matching queries
// with the blackhole address.  When OutputMetric is set, every blocked query
// increments the MetricName metric.
type PdnsLua struct {
	OutputMetric bool
	MetricName   string
}

// type check
var _ Kind = PdnsLua{}

// Name implements the Kind interface for PdnsLua.
func (PdnsLua) Name() string { return "pdns-lua" }

func (k PdnsLua) validate() error {
	if k.OutputMetric && k.MetricName == "" {
		return ErrEmptyMetricName
	}
	return nil
}

func (PdnsLua) writePrimer(w *bufio.Writer, _ *Output, generated string) error {
	_, err := w.WriteString("-- " + generated + "\nb=newDS() b:add{")
	return err
}

// key drops a trailing "#" comment and the whitespace before it.
func (PdnsLua) key(domain string) string {
	domain, _, _ = strings.Cut(domain, "#")
	return strings.TrimRightFunc(domain, unicode.IsSpace)
}

func (k PdnsLua) writeDomain(w *bufio.Writer, _ *Output, domain string) error {
	_, err := w.WriteString(`"` + k.key(domain) + `",`)
	return err
}

func (k PdnsLua) writeTrailer(w *bufio.Writer, o *Output) error {
	_, err := w.WriteString(k.trailer(o))
	return err
}

func (k PdnsLua) trailer(o *Output) string {
	record := "AAAA"
	if o.blackhole.Is4() {
		record = "A"
	}

	metric := ""
	if k.OutputMetric {
		metric = `m=getMetric("` + k.MetricName + `") m:inc() `
	}

	return "} function preresolve(q) if b:check(q.qname) then if q.qtype==pdns." + record +
		" then q:addAnswer(pdns." + record + `,"` + o.blackhole.String() + `") ` +
		metric + "return true end end return false end\n"
}

// RPZ defaults.
const (
	DefaultRPZZone = "rpz.sinkhole."
	DefaultRPZTTL  = 3600
)

// RPZ is a response-policy zone that maps every domain to the blackhole
// address.  Records are rendered in zone-file syntax.  Domains that are not
// valid DNS names are left out since they would break the zone.
type RPZ struct {
	// Zone is the policy zone origin.  The zero value means DefaultRPZZone.
	Zone string

	// TTL is the TTL of every record.  The zero value means DefaultRPZTTL.
	TTL uint32
}

// type check
var _ Kind = RPZ{}

// Name implements the Kind interface for RPZ.
func (RPZ) Name() string { return "rpz" }

func (k RPZ) validate() error {
	if _, ok := dns.IsDomainName(k.zone()); !ok {
		return fmt.Errorf("invalid rpz zone %q", k.Zone)
	}
	return nil
}

func (k RPZ) zone() string {
	if k.Zone == "" {
		return DefaultRPZZone
	}
	return dns.Fqdn(k.Zone)
}

func (k RPZ) ttl() uint32 {
	if k.TTL == 0 {
		return DefaultRPZTTL
	}
	return k.TTL
}

func (k RPZ) header(rrtype uint16, name string) dns.RR_Header {
	return dns.RR_Header{Name: name, Rrtype: rrtype, Class: dns.ClassINET, Ttl: k.ttl()}
}

func (k RPZ) writePrimer(w *bufio.Writer, _ *Output, generated string) error {
	zone := k.zone()
	soa := &dns.SOA{
		Hdr:     k.header(dns.TypeSOA, zone),
		Ns:      "localhost.",
		Mbox:    "hostmaster.localhost.",
		Serial:  1,
		Refresh: 3600,
		Retry:   600,
		Expire:  604800,
		Minttl:  k.ttl(),
	}
	ns := &dns.NS{Hdr: k.header(dns.TypeNS, zone), Ns: "localhost."}

	_, err := fmt.Fprintf(w, "; %s\n$TTL %d\n%s\n%s\n", generated, k.ttl(), soa, ns)
	return err
}

func (RPZ) key(domain string) string { return strings.TrimSuffix(domain, ".") }

func (k RPZ) writeDomain(w *bufio.Writer, o *Output, domain string) error {
	name := dns.Fqdn(strings.TrimSuffix(domain, ".") + "." + k.zone())
	if _, ok := dns.IsDomainName(name); !ok {
		return nil
	}

	var rr dns.RR
	if o.blackhole.Is4() {
		rr = &dns.A{Hdr: k.header(dns.TypeA, name), A: o.blackhole.AsSlice()}
	} else {
		rr = &dns.AAAA{Hdr: k.header(dns.TypeAAAA, name), AAAA: o.blackhole.AsSlice()}
	}

	_, err := w.WriteString(rr.String() + "\n")
	return err
}

func (RPZ) writeTrailer(*bufio.Writer, *Output) error { return nil }
