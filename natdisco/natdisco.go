// Copyright 2022 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

// Package natdisco discovers a node's own routable IP address and opens a
// port mapping on the local gateway, via UPnP or NAT-PMP, for operators
// who haven't pinned config.RoutableIP by hand.
package natdisco

import (
	"net/netip"
	"time"

	"github.com/huin/goupnp/dcps/internetgateway1"
	natpmp "github.com/jackpal/go-nat-pmp"

	"github.com/massa-labs/go-massa/log"
)

// Mapping is an open port forward on the gateway, returned so the caller
// can let it lapse or refresh it before Lifetime elapses.
type Mapping struct {
	ExternalIP   netip.Addr
	ExternalPort uint16
	Lifetime     time.Duration
}

var logger = log.New("component", "natdisco")

// Discover tries UPnP first, then NAT-PMP, returning the first mapping
// either protocol manages to open. Operators who pin config.RoutableIP by
// hand never reach this path.
func Discover(internalPort int, protocol, description string) (Mapping, bool) {
	if m, ok := DiscoverUPnP(internalPort, protocol, description); ok {
		return m, true
	}
	return DiscoverNATPMP(internalPort, protocol)
}

// DiscoverNATPMP attempts NAT-PMP discovery against the default gateway,
// requesting a mapping for internalPort on protocol ("tcp"/"udp").
// Returns (Mapping{}, false) on any failure — NAT traversal is always
// best-effort, never required for correctness.
func DiscoverNATPMP(internalPort int, protocol string) (Mapping, bool) {
	gw, err := natpmp.DiscoverGateway()
	if err != nil {
		logger.Debug("nat-pmp gateway discovery failed", "err", err)
		return Mapping{}, false
	}

	extAddr, err := gw.GetExternalAddress()
	if err != nil {
		logger.Debug("nat-pmp external address query failed", "err", err)
		return Mapping{}, false
	}
	ip, ok := netip.AddrFromSlice(extAddr.ExternalIPAddress[:])
	if !ok {
		return Mapping{}, false
	}

	const lifetimeSeconds = 3600
	result, err := gw.AddPortMapping(protocol, internalPort, internalPort, lifetimeSeconds)
	if err != nil {
		logger.Debug("nat-pmp port mapping failed", "err", err)
		return Mapping{}, false
	}

	return Mapping{
		ExternalIP:   ip,
		ExternalPort: result.MappedExternalPort,
		Lifetime:     lifetimeSeconds * time.Second,
	}, true
}

// DiscoverUPnP attempts UPnP IGDv1 discovery, requesting a port mapping
// for internalPort on protocol ("TCP"/"UDP"). It tries WANIPConnection1
// clients before falling back to WANPPPConnection1, mirroring how IGD
// devices in the wild are split between the two services.
func DiscoverUPnP(internalPort int, protocol, description string) (Mapping, bool) {
	if m, ok := discoverUPnPIPConnection(internalPort, protocol, description); ok {
		return m, true
	}
	return discoverUPnPPPPConnection(internalPort, protocol, description)
}

func discoverUPnPIPConnection(internalPort int, protocol, description string) (Mapping, bool) {
	clients, _, err := internetgateway1.NewWANIPConnection1Clients()
	if err != nil || len(clients) == 0 {
		return Mapping{}, false
	}
	client := clients[0]

	extIP, err := client.GetExternalIPAddress()
	if err != nil {
		logger.Debug("upnp external address query failed", "err", err)
		return Mapping{}, false
	}
	ip, err := netip.ParseAddr(extIP)
	if err != nil {
		return Mapping{}, false
	}

	if err := client.AddPortMapping("", uint16(internalPort), protocol, uint16(internalPort), "", true, description, 0); err != nil {
		logger.Debug("upnp port mapping failed", "err", err)
		return Mapping{}, false
	}

	return Mapping{ExternalIP: ip, ExternalPort: uint16(internalPort), Lifetime: 0}, true
}

func discoverUPnPPPPConnection(internalPort int, protocol, description string) (Mapping, bool) {
	clients, _, err := internetgateway1.NewWANPPPConnection1Clients()
	if err != nil || len(clients) == 0 {
		return Mapping{}, false
	}
	client := clients[0]

	extIP, err := client.GetExternalIPAddress()
	if err != nil {
		logger.Debug("upnp external address query failed", "err", err)
		return Mapping{}, false
	}
	ip, err := netip.ParseAddr(extIP)
	if err != nil {
		return Mapping{}, false
	}

	if err := client.AddPortMapping("", uint16(internalPort), protocol, uint16(internalPort), "", true, description, 0); err != nil {
		logger.Debug("upnp port mapping failed", "err", err)
		return Mapping{}, false
	}

	return Mapping{ExternalIP: ip, ExternalPort: uint16(internalPort), Lifetime: 0}, true
}
