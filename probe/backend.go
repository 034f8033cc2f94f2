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

import "github.com/probeum/go-probeum/log"

// New wires a Transactions Manager for the given pool and network facades
// using documented defaults, starts its event loop, and returns a handle
// the rest of the node (RPC layer, CLI, operator tooling) can clone
// freely. Mirrors the teacher's own New(...)/newHandler construction
// shape: build the config, construct, Start, hand back a thin facade.
func New(pool TxPool, network PeerBackend) (*Manager, ManagerHandle) {
	cfg := DefaultManagerConfig(pool, network)
	m, handle := NewManager(cfg)
	log.Info("Starting transactions manager",
		"seenSetCapacity", cfg.SeenSetCapacity,
		"badImportCacheCapacity", cfg.BadImportCacheCapacity,
	)
	m.Start()
	return m, handle
}
