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

package executedops

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/VictoriaMetrics/fastcache"
)

// chunkCache memoizes the serialized bytes of recently requested bootstrap
// chunks, keyed by the requesting cursor and a generation counter that is
// bumped on every mutation. It is a pure performance add-on: a miss simply
// falls back to re-serializing, so it is never observable from
// GetExecutedOpsPart's contract.
type chunkCache struct {
	mu  sync.Mutex
	c   *fastcache.Cache
	gen uint64
}

func newChunkCache() *chunkCache {
	return &chunkCache{c: fastcache.New(1 << 20)} // 1 MiB, plenty for a handful of bootstrap chunks
}

func (cc *chunkCache) invalidate() {
	atomic.AddUint64(&cc.gen, 1)
}

func (cc *chunkCache) key(cursor StreamingStep) []byte {
	gen := atomic.LoadUint64(&cc.gen)
	buf := make([]byte, 0, 18)
	buf = binary.BigEndian.AppendUint64(buf, gen)
	buf = append(buf, byte(cursor.Kind))
	buf = binary.BigEndian.AppendUint64(buf, cursor.Slot.Period)
	buf = append(buf, cursor.Slot.Thread)
	return buf
}

func (cc *chunkCache) get(cursor StreamingStep) ([]byte, bool) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	v, ok := cc.c.HasGet(nil, cc.key(cursor))
	return v, ok
}

func (cc *chunkCache) set(cursor StreamingStep, encoded []byte) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.c.Set(cc.key(cursor), encoded)
}
