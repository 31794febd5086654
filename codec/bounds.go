// Copyright 2014 The go-probeum Authors
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

package codec

// Bounds groups a deserialization cap such as the configured maximums
// from the configuration keys (max_executed_ops_length,
// max_operations_per_block, max_size_peers_announcement,
// max_size_listeners_per_peer). The bounded collection decoders in this
// module do not take a Bounds: each receives its caps as plain uint64
// arguments (see UvarintBounded).
type Bounds struct {
	MaxLen uint64
}
