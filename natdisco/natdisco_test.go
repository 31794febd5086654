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

package natdisco

import "testing"

// These environments have no UPnP/NAT-PMP gateway reachable, so discovery
// must fail closed rather than block or panic.
func TestDiscoverNATPMPFailsClosedWithoutGateway(t *testing.T) {
	if _, ok := DiscoverNATPMP(31244, "tcp"); ok {
		t.Fatal("expected no gateway to be discoverable in the test sandbox")
	}
}

func TestDiscoverUPnPFailsClosedWithoutGateway(t *testing.T) {
	if _, ok := DiscoverUPnP(31244, "TCP", "massanode"); ok {
		t.Fatal("expected no gateway to be discoverable in the test sandbox")
	}
}

func TestDiscoverFallsBackThroughBothProtocols(t *testing.T) {
	if _, ok := Discover(31244, "TCP", "massanode"); ok {
		t.Fatal("expected no gateway to be discoverable in the test sandbox")
	}
}
