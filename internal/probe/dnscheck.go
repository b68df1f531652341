package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

// DNS classes reported by ResolveTarget.
const (
	DNSResolves      = "RESOLVES"
	DNSNXDomain      = "NXDOMAIN"
	DNSNoARecord     = "NO_A_RECORD"
	DNSServfail      = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName   = "INVALID_NAME"
	DNSLiteralIPAddr = "IP_LITERAL"
)

type DNSStatus struct {
	Host          string
	IPs           []net.IP
	HasNS         bool
	Class         string
	ResolverError string
}

var dnsTimeout = 3 * time.Second

// ResolveTarget checks that the host behind a target resolves. It is used
// for configuration diagnostics, not during cycles.
func ResolveTarget(ctx context.Context, t domain.Target) DNSStatus {
	return resolveHost(ctx, TargetHost(t))
}

// TargetHost extracts the host name from a target address of any kind.
func TargetHost(t domain.Target) string {
	switch t.Kind {
	case domain.KindHTTP:
		u, err := url.Parse(t.Address)
		if err != nil || u.Hostname() == "" {
			return t.Address
		}
		return u.Hostname()
	case domain.KindTCP:
		host, _, err := net.SplitHostPort(t.Address)
		if err != nil {
			return t.Address
		}
		return host
	default:
		return t.Address
	}
}

func resolveHost(ctx context.Context, host string) DNSStatus {
	s := DNSStatus{Host: strings.TrimSpace(host)}
	if s.Host == "" || strings.Contains(s.Host, "://") {
		s.Class = DNSInvalidName
		return s
	}
	if ip := net.ParseIP(s.Host); ip != nil {
		s.IPs = []net.IP{ip}
		s.Class = DNSLiteralIPAddr
		return s
	}

	ctx, cancel := context.WithTimeout(ctx, dnsTimeout)
	defer cancel()
	r := &net.Resolver{}

	ips, err := r.LookupIP(ctx, "ip", s.Host)
	switch {
	case err == nil && len(ips) > 0:
		s.IPs = ips
		s.Class = DNSResolves
		return s
	case err != nil:
		s.ResolverError = err.Error()
		var de *net.DNSError
		if errors.As(err, &de) {
			if de.IsNotFound {
				s.Class = DNSNXDomain
			} else if de.IsTemporary || de.Timeout() {
				s.Class = DNSServfail
			}
		}
	}

	if ns, err := r.LookupNS(ctx, s.Host); err == nil && len(ns) > 0 {
		s.HasNS = true
		if s.Class == DNSNXDomain || s.Class == "" {
			s.Class = DNSNoARecord
		}
	}
	if s.Class == "" {
		if s.ResolverError != "" {
			s.Class = DNSServfail
		} else {
			s.Class = DNSNXDomain
		}
	}
	return s
}
