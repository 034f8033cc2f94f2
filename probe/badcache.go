// Copyright 2015 The go-probeum Authors
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

package probe

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/probeum/go-probeum/common"
)

// DefaultBadImportCacheCapacity is the bad-import cache's default size
// (§4.5).
const DefaultBadImportCacheCapacity = 10000

// BadImportCache remembers transaction hashes that failed a consensus-class
// check, so repeated deliveries of the same bad hash short-circuit without
// re-validating. Only consensus-class failures are ever admitted here
// (invariant §8.4); non-consensus pool errors (nonce gaps, underpriced) are
// never inserted.
type BadImportCache struct {
	cache *lru.Cache
}

// NewBadImportCache constructs a cache with the default capacity.
func NewBadImportCache() *BadImportCache {
	return NewBadImportCacheWithCapacity(DefaultBadImportCacheCapacity)
}

// NewBadImportCacheWithCapacity is NewBadImportCache with a caller-chosen
// capacity, mainly useful in tests.
func NewBadImportCacheWithCapacity(capacity int) *BadImportCache {
	cache, err := lru.New(capacity)
	if err != nil {
		panic(err)
	}
	return &BadImportCache{cache: cache}
}

// Insert admits h. Callers must only call this for consensus-class
// failures observed while the node was not syncing.
func (c *BadImportCache) Insert(h common.Hash) {
	c.cache.Add(h, struct{}{})
}

// Contains reports whether h is a known-bad hash.
func (c *BadImportCache) Contains(h common.Hash) bool {
	return c.cache.Contains(h)
}
