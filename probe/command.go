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
	"github.com/probeum/go-probeum/common"
	"github.com/probeum/go-probeum/probe/protocols/probe"
)

// command is the sealed set of messages a ManagerHandle can send to the
// event loop. Only this file's constructors produce values of this type.
type command interface {
	isCommand()
}

type cmdPropagateHash struct{ hash common.Hash }

type cmdPropagateHashesToPeer struct {
	peer   PeerId
	hashes []common.Hash
}

type cmdPropagateTransactions struct{ txs []probe.PooledTx }

type cmdBroadcastTransactions struct{ txs []probe.PooledTx }

type cmdGetActivePeers struct{ resp chan<- []PeerId }

type cmdGetTransactionHashes struct {
	peer PeerId
	resp chan<- []common.Hash
}

type cmdGetPeerSender struct {
	peer PeerId
	resp chan<- probe.Peer
}

func (cmdPropagateHash) isCommand()         {}
func (cmdPropagateHashesToPeer) isCommand() {}
func (cmdPropagateTransactions) isCommand() {}
func (cmdBroadcastTransactions) isCommand() {}
func (cmdGetActivePeers) isCommand()        {}
func (cmdGetTransactionHashes) isCommand()  {}
func (cmdGetPeerSender) isCommand()         {}

// ManagerHandle is a cloneable operator/RPC facade onto a running manager,
// backed by an unbounded channel. Cloning is a plain struct copy: the
// underlying channel is shared, matching the teacher's convention of
// passing small facade types around by value.
type ManagerHandle struct {
	commands chan<- command
}

// newManagerHandle constructs a handle paired with the channel the event
// loop will read from. The queue between them is unbounded: a pump
// goroutine drains an internal slice buffer so PropagateHash and friends
// never block a caller on the event loop's pace, matching "the operator
// gave up" semantics for a disconnected command channel (§7).
func newManagerHandle() (ManagerHandle, <-chan command) {
	in := make(chan command)
	out := make(chan command)
	go pumpUnbounded(in, out)
	return ManagerHandle{commands: in}, out
}

// pumpUnbounded forwards from in to out through a growable buffer, so a
// send on in never blocks regardless of how far behind out's reader is.
func pumpUnbounded(in <-chan command, out chan<- command) {
	defer close(out)
	var buf []command
	for {
		if len(buf) == 0 {
			c, ok := <-in
			if !ok {
				return
			}
			buf = append(buf, c)
			continue
		}
		select {
		case c, ok := <-in:
			if !ok {
				// Drain remaining buffered commands before closing out.
				for _, c := range buf {
					out <- c
				}
				return
			}
			buf = append(buf, c)
		case out <- buf[0]:
			buf = buf[1:]
		}
	}
}

// PropagateHash requests that a single already-pooled transaction, named
// by hash, be propagated using the normal full/hash split.
func (h ManagerHandle) PropagateHash(hash common.Hash) error {
	return h.send(cmdPropagateHash{hash: hash})
}

// PropagateHashesToPeer requests that hashes be hash-announced to a single
// named peer, bypassing the full/hash split.
func (h ManagerHandle) PropagateHashesToPeer(peer PeerId, hashes []common.Hash) error {
	return h.send(cmdPropagateHashesToPeer{peer: peer, hashes: hashes})
}

// PropagateTransactions requests the normal full/hash split propagation
// for an explicit transaction list (as opposed to the pool's pending
// stream).
func (h ManagerHandle) PropagateTransactions(txs []probe.PooledTx) error {
	return h.send(cmdPropagateTransactions{txs: txs})
}

// BroadcastTransactions propagates txs to every eligible peer with the usual
// full/hash split, ignoring each peer's seen-set (forced propagation mode,
// §4.2).
func (h ManagerHandle) BroadcastTransactions(txs []probe.PooledTx) error {
	return h.send(cmdBroadcastTransactions{txs: txs})
}

// GetActivePeers returns the currently-connected peer IDs.
func (h ManagerHandle) GetActivePeers() ([]PeerId, error) {
	resp := make(chan []PeerId, 1)
	if err := h.send(cmdGetActivePeers{resp: resp}); err != nil {
		return nil, err
	}
	ids, ok := <-resp
	if !ok {
		return nil, errNoResponse
	}
	return ids, nil
}

// GetTransactionHashes returns the hashes believed known to peer (its
// seen-set contents), or an error if peer is not connected.
func (h ManagerHandle) GetTransactionHashes(peer PeerId) ([]common.Hash, error) {
	resp := make(chan []common.Hash, 1)
	if err := h.send(cmdGetTransactionHashes{peer: peer, resp: resp}); err != nil {
		return nil, err
	}
	hashes, ok := <-resp
	if !ok {
		return nil, errNoResponse
	}
	return hashes, nil
}

// GetPeerSender returns the wire-session facade for peer, a cloneable
// handle rather than an owner of the session task.
func (h ManagerHandle) GetPeerSender(peer PeerId) (probe.Peer, error) {
	resp := make(chan probe.Peer, 1)
	if err := h.send(cmdGetPeerSender{peer: peer, resp: resp}); err != nil {
		return nil, err
	}
	p, ok := <-resp
	if !ok {
		return nil, errNoResponse
	}
	return p, nil
}

func (h ManagerHandle) send(c command) error {
	if h.commands == nil {
		return errTerminated
	}
	h.commands <- c
	return nil
}
