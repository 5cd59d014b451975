package utils

import (
	"fmt"
	"net/netip"
)

// defaultInternalCIDRs cover the RFC1918 private ranges plus link-local.
// Traffic to any of them never leaves the network boundary and is never
// billable egress.
var defaultInternalCIDRs = []string{
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
}

// EgressClassifier decides whether a destination address is billable egress.
// The internal ranges are explicit prefixes, never string matching on the
// address text.
type EgressClassifier struct {
	internal []netip.Prefix
}

// NewEgressClassifier builds a classifier from the given internal CIDRs. An
// empty list falls back to the default ranges.
func NewEgressClassifier(cidrs ...string) (*EgressClassifier, error) {
	if len(cidrs) == 0 {
		cidrs = defaultInternalCIDRs
	}

	internal := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid internal CIDR %q: %w", cidr, err)
		}
		internal = append(internal, prefix)
	}

	return &EgressClassifier{internal: internal}, nil
}

// IsInternal reports whether addr falls inside any internal range.
func (c *EgressClassifier) IsInternal(addr netip.Addr) bool {
	for _, prefix := range c.internal {
		if prefix.Contains(addr.Unmap()) {
			return true
		}
	}
	return false
}

// IsEgress reports whether traffic to dst leaves the network boundary.
func (c *EgressClassifier) IsEgress(dst netip.Addr) bool {
	return !c.IsInternal(dst)
}

// ClassifyAddr parses a textual address and classifies it.
func (c *EgressClassifier) ClassifyAddr(addr string) (bool, error) {
	parsed, err := netip.ParseAddr(addr)
	if err != nil {
		return false, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return c.IsEgress(parsed), nil
}
