package jobdesc

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"
)

// errBlockedAddress is returned by the dialer for destinations inside the
// host's own networks.
var errBlockedAddress = errors.New("destination address is not publicly routable")

// publicOnlyControl refuses connections to loopback, private, link-local,
// unspecified and multicast addresses. It runs after DNS resolution and on
// every redirect hop, so hostnames that resolve inward are caught too.
func publicOnlyControl(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("dial %s: %w", address, errBlockedAddress)
	}
	if !publicAddr(ip) {
		return fmt.Errorf("dial %s: %w", address, errBlockedAddress)
	}
	return nil
}

func publicAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	switch {
	case !ip.IsValid(),
		ip.IsLoopback(),
		ip.IsPrivate(),
		ip.IsLinkLocalUnicast(),
		ip.IsLinkLocalMulticast(),
		ip.IsInterfaceLocalMulticast(),
		ip.IsMulticast(),
		ip.IsUnspecified():
		return false
	}
	// 100.64.0.0/10 carrier-grade NAT is not covered by IsPrivate.
	if ip.Is4() && cgnat.Contains(ip) {
		return false
	}
	return true
}

var cgnat = netip.MustParsePrefix("100.64.0.0/10")

// newGuardedClient builds a client that never proxies and only dials public
// addresses.
func newGuardedClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: timeout, Control: publicOnlyControl}
	transport := &http.Transport{
		Proxy:                 nil,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       30 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}
