// Package discovery finds peers through the DNS A-records a container
// orchestrator publishes for a service name, the same mechanism the
// original Python implementation used (app/raft/discovery.py) against
// Docker's embedded DNS.
package discovery

import (
	"fmt"
	"net"
)

// Resolver is the subset of net's lookup functions discovery needs, so
// tests can substitute a fake without touching the real resolver.
type Resolver interface {
	LookupHost(host string) (addrs []string, err error)
	LookupAddr(addr string) (names []string, err error)
}

type netResolver struct{}

func (netResolver) LookupHost(host string) ([]string, error) { return net.LookupHost(host) }
func (netResolver) LookupAddr(addr string) ([]string, error) { return net.LookupAddr(addr) }

// DefaultResolver is backed by the real net package resolver.
var DefaultResolver Resolver = netResolver{}

// Discover resolves appName to its full set of A-records, drops this
// host's own address (identified by resolving hostname), and returns the
// remaining replicas keyed by their reverse-resolved hostname, mapped to
// "host:port" addresses built from port.
//
// Cluster size (discovered peers + self) must be odd for majority voting
// to be unambiguous; Discover rejects an even total outright, matching
// spec §9's guidance to fail fast at startup rather than silently run a
// cluster that can tie.
func Discover(resolver Resolver, appName, hostname, port string) (map[string]string, error) {
	addrs, err := resolver.LookupHost(appName)
	if err != nil {
		return nil, fmt.Errorf("discovery: failed to resolve %q: %w", appName, err)
	}

	ownAddrs, err := resolver.LookupHost(hostname)
	if err != nil {
		return nil, fmt.Errorf("discovery: failed to resolve own hostname %q: %w", hostname, err)
	}
	own := make(map[string]struct{}, len(ownAddrs))
	for _, a := range ownAddrs {
		own[a] = struct{}{}
	}

	peers := make(map[string]string)
	for _, addr := range addrs {
		if _, isSelf := own[addr]; isSelf {
			continue
		}

		names, err := resolver.LookupAddr(addr)
		id := addr
		if err == nil && len(names) > 0 {
			id = names[0]
		}

		peers[id] = net.JoinHostPort(addr, port)
	}

	total := len(peers) + 1
	if total%2 == 0 {
		return nil, fmt.Errorf("discovery: cluster size %d (peers=%d + self) is even, majority voting requires an odd total", total, len(peers))
	}

	return peers, nil
}
