// Copyright 2019 The go-probeum Authors
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

// Package fetcher implements the Transaction Fetcher: it turns a firehose of
// announced-but-unknown hashes into a bounded stream of GetPooledTransactions
// requests, with per-peer single-flight, retry and fallback.
//
// Unlike go-ethereum's three-stage waitlist/announces/fetching pipeline, this
// fetcher has exactly two stages — pending and inflight — because the manager
// that embeds it owns all fetcher state directly (single-owner cooperative
// loop, no internal goroutine of its own) and the invariant it must uphold is
// simpler: a hash is in at most one of {pending, inflight} at any time.
package fetcher

import (
	"errors"

	lru "github.com/hashicorp/golang-lru"
	"github.com/probeum/go-probeum/common"
	"github.com/probeum/go-probeum/log"
)

const (
	// DefaultMaxRetries is the number of times a hash may be re-requested
	// from a fallback peer before being given up on.
	DefaultMaxRetries = 2

	// DefaultResponseByteSoftLimit bounds the estimated cost of a single
	// GetPooledTransactions request.
	DefaultResponseByteSoftLimit = 2 * 1024 * 1024

	// DefaultMaxHashesPerRequest is an absolute cap on the number of
	// hashes packed into one request, independent of the byte budget.
	DefaultMaxHashesPerRequest = 256

	// defaultV1HashCost is the conservative per-hash cost assumed for
	// v1-family announcements, which carry no size metadata.
	defaultV1HashCost = 4 * 1024
)

var errUnknownPeer = errors.New("unknown peer")

// RequestFunc dispatches a GetPooledTransactions request to peer for the
// given hashes.
type RequestFunc func(peer string, hashes []common.Hash) error

// Config bounds the fetcher's behavior; see §3/§4.3 of the design.
type Config struct {
	MaxRetries             int
	ResponseByteSoftLimit  int
	MaxHashesPerRequest    int
	MaxPendingHashes       int
	MaxInflightHashes      int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:            DefaultMaxRetries,
		ResponseByteSoftLimit: DefaultResponseByteSoftLimit,
		MaxHashesPerRequest:   DefaultMaxHashesPerRequest,
		MaxPendingHashes:      100_000,
		MaxInflightHashes:     100_000,
	}
}

// pendingEntry is a hash waiting to be assigned to an idle fallback peer.
type pendingEntry struct {
	hash      common.Hash
	size      uint32 // announced size, 0 if unknown (v1-family)
	fallbacks []string
	retries   int
}

// Fetcher is the Transaction Fetcher. It is driven exclusively by the
// Transactions Manager's single-owner event loop; none of its methods are
// safe to call concurrently.
type Fetcher struct {
	cfg     Config
	request RequestFunc

	// pending_hashes: bounded LRU of hash -> *pendingEntry.
	pending *lru.Cache

	// active_peers / inflight_by_hash. inflightEntries retains each
	// hash's pendingEntry (retry count, fallback list) for the duration
	// of the request, since invariant §8.2 means the hash itself is
	// absent from the pending LRU while inflight.
	busy            map[string]bool            // peer -> has an inflight request
	inflight        map[common.Hash]string      // hash -> peer it was requested from
	requested       map[string][]common.Hash    // peer -> hashes in its inflight request
	inflightEntries map[common.Hash]*pendingEntry

	log log.Logger
}

// New creates a Transaction Fetcher with the given request dispatcher.
func New(cfg Config, request RequestFunc) *Fetcher {
	cache, err := lru.New(cfg.MaxPendingHashes)
	if err != nil {
		// Only returns an error for a non-positive size, which is a
		// programmer error in the supplied config.
		panic(err)
	}
	return &Fetcher{
		cfg:             cfg,
		request:         request,
		pending:         cache,
		busy:            make(map[string]bool),
		inflight:        make(map[common.Hash]string),
		requested:       make(map[string][]common.Hash),
		inflightEntries: make(map[common.Hash]*pendingEntry),
		log:             log.New("component", "txfetcher"),
	}
}

// IsBusy reports whether peer has an outstanding GetPooledTransactions
// request.
func (f *Fetcher) IsBusy(peer string) bool { return f.busy[peer] }

// BusyPeers returns every peer with an outstanding inflight request, for
// timeout polling.
func (f *Fetcher) BusyPeers() []string {
	out := make([]string, 0, len(f.busy))
	for p := range f.busy {
		out = append(out, p)
	}
	return out
}

// FilterUnseen partitions hashes announced by peer into ones that are
// genuinely new to the fetcher and ones already tracked (pending or
// inflight), for which peer is registered as a fallback origin. Only the
// new hashes are returned; the caller (manager) is responsible for handing
// those to Buffer or Dispatch.
//
// sizes, if non-nil, is parallel to hashes (v2-family announcements).
func (f *Fetcher) FilterUnseen(peer string, hashes []common.Hash, sizes []uint32) []common.Hash {
	fresh := make([]common.Hash, 0, len(hashes))
	for _, h := range hashes {
		if origin, ok := f.inflight[h]; ok {
			if origin != peer {
				if entry, ok := f.inflightEntries[h]; ok {
					entry.addFallback(peer)
				}
			}
			continue
		}
		if v, ok := f.pending.Get(h); ok {
			v.(*pendingEntry).addFallback(peer)
			continue
		}
		fresh = append(fresh, h)
	}
	return fresh
}

func (entry *pendingEntry) addFallback(peer string) {
	for _, p := range entry.fallbacks {
		if p == peer {
			return
		}
	}
	entry.fallbacks = append([]string{peer}, entry.fallbacks...)
}

// Buffer inserts hashes into pending-fetch with peer as their (sole, for
// now) fallback origin. sizes is parallel to hashes when non-nil.
func (f *Fetcher) Buffer(peer string, hashes []common.Hash, sizes []uint32) {
	for i, h := range hashes {
		if v, ok := f.pending.Get(h); ok {
			v.(*pendingEntry).addFallback(peer)
			continue
		}
		var size uint32
		if sizes != nil && i < len(sizes) {
			size = sizes[i]
		}
		f.pending.Add(h, &pendingEntry{hash: h, size: size, fallbacks: []string{peer}})
	}
}

// Pack selects hashes to request from peer out of candidates, respecting
// the response byte soft limit and the absolute per-request hash cap.
// Hashes are considered in the order given. It returns the selected hashes
// and the surplus, which the caller should re-buffer with peer as fallback.
func (f *Fetcher) Pack(candidates []common.Hash, sizeOf func(common.Hash) uint32) (selected, surplus []common.Hash) {
	var cumulative int
	for _, h := range candidates {
		cost := int(sizeOf(h))
		if cost == 0 {
			cost = defaultV1HashCost
		}
		if len(selected) > 0 && (cumulative+cost > f.cfg.ResponseByteSoftLimit || len(selected) >= f.cfg.MaxHashesPerRequest) {
			surplus = append(surplus, h)
			continue
		}
		selected = append(selected, h)
		cumulative += cost
		if len(selected) >= f.cfg.MaxHashesPerRequest {
			// Still accumulate remaining candidates as surplus.
			continue
		}
	}
	return selected, surplus
}

// Dispatch marks peer busy and moves the given hashes from pending to
// inflight, then issues the request. On dispatch failure the hashes are
// returned to pending (caller does not need to re-buffer them).
func (f *Fetcher) Dispatch(peer string, hashes []common.Hash) error {
	if len(hashes) == 0 {
		return nil
	}
	for _, h := range hashes {
		entry, ok := f.pending.Peek(h)
		f.pending.Remove(h)
		var pe *pendingEntry
		if ok {
			pe = entry.(*pendingEntry)
		} else {
			pe = &pendingEntry{hash: h}
		}
		// The requesting peer stays registered as a fallback: if this
		// request only partially resolves, retire needs a non-empty
		// fallback list to re-buffer the unreturned hashes against.
		pe.addFallback(peer)
		f.inflightEntries[h] = pe
		f.inflight[h] = peer
	}
	f.busy[peer] = true
	f.requested[peer] = hashes

	if err := f.request(peer, hashes); err != nil {
		f.log.Debug("Failed to dispatch transaction request", "peer", peer, "count", len(hashes), "err", err)
		f.releaseInflight(peer)
		for _, h := range hashes {
			f.pending.Add(h, f.takeInflightEntry(h))
		}
		return err
	}
	return nil
}

// takeInflightEntry removes and returns h's inflight-tracked entry,
// synthesizing an empty one if none was tracked (defensive; should not
// happen in normal operation).
func (f *Fetcher) takeInflightEntry(h common.Hash) *pendingEntry {
	entry, ok := f.inflightEntries[h]
	delete(f.inflightEntries, h)
	if !ok {
		entry = &pendingEntry{hash: h}
	}
	return entry
}

func (f *Fetcher) releaseInflight(peer string) {
	for _, h := range f.requested[peer] {
		delete(f.inflight, h)
	}
	delete(f.requested, peer)
	delete(f.busy, peer)
}

// Deliver processes a (possibly partial) response from peer. Hashes present
// in returned are retired (successfully). Hashes that were requested but
// not returned are re-buffered with an incremented retry counter, provided
// retries remain and at least one fallback peer is available; otherwise
// they are dropped.
func (f *Fetcher) Deliver(peer string, returned []common.Hash) {
	requested := f.requested[peer]
	got := make(map[common.Hash]bool, len(returned))
	for _, h := range returned {
		got[h] = true
	}
	for _, h := range requested {
		if got[h] {
			delete(f.inflight, h)
			delete(f.inflightEntries, h)
			continue
		}
		f.retire(h)
	}
	f.releaseInflight(peer)
}

// retire re-buffers an unreturned hash if it has retries and fallbacks
// left, otherwise discards it (§8 invariant 8). A peer whose request came
// back empty or partial is not struck from the fallback list here — a
// non-disconnecting peer that didn't return a hash may still legitimately
// hold it later; only Drop (session closure) removes a peer outright.
func (f *Fetcher) retire(h common.Hash) {
	delete(f.inflight, h)
	entry := f.takeInflightEntry(h)
	entry.retries++

	if entry.retries > f.cfg.MaxRetries || len(entry.fallbacks) == 0 {
		return
	}
	f.pending.Add(h, entry)
}

// Error processes an outright request failure (timeout, transport error,
// malformed response). Every requested hash is treated as unreturned.
func (f *Fetcher) Error(peer string) {
	f.Deliver(peer, nil)
}

// ReadyPeers computes, for each pending entry, whether it has an idle
// fallback peer available to serve it. isIdle should report whether a peer
// currently has no inflight request (i.e. !IsBusy(peer)).
//
// It returns a map of peer -> hashes to request next, built greedily in
// pending-queue order: the same peer will not appear as a fallback target
// for two different entries inside a single call (each peer gets at most
// one batch per drain, one inflight request at a time).
func (f *Fetcher) ReadyPeers(isIdle func(peer string) bool) map[string][]common.Hash {
	claimed := make(map[string]bool)
	out := make(map[string][]common.Hash)
	for _, key := range f.pending.Keys() {
		v, ok := f.pending.Peek(key)
		if !ok {
			continue
		}
		entry := v.(*pendingEntry)
		for _, p := range entry.fallbacks {
			if claimed[p] {
				continue
			}
			if !isIdle(p) {
				continue
			}
			out[p] = append(out[p], entry.hash)
			claimed[p] = true
			break
		}
	}
	return out
}

// Drop discards all fetcher state associated with peer: its inflight
// request (if any) and its presence as a fallback on any pending entry.
// Used on session closure.
func (f *Fetcher) Drop(peer string) {
	// Hashes inflight to the dropped peer return to pending without
	// consuming a retry (this is a disconnect, not a failed response),
	// minus the dropped peer as a fallback.
	inflight := f.requested[peer]
	f.releaseInflight(peer)
	for _, h := range inflight {
		entry := f.takeInflightEntry(h)
		kept := entry.fallbacks[:0]
		for _, p := range entry.fallbacks {
			if p != peer {
				kept = append(kept, p)
			}
		}
		entry.fallbacks = kept
		if len(entry.fallbacks) > 0 {
			f.pending.Add(h, entry)
		}
	}

	for _, key := range f.pending.Keys() {
		v, ok := f.pending.Peek(key)
		if !ok {
			continue
		}
		entry := v.(*pendingEntry)
		kept := entry.fallbacks[:0]
		for _, p := range entry.fallbacks {
			if p != peer {
				kept = append(kept, p)
			}
		}
		entry.fallbacks = kept
		if len(entry.fallbacks) == 0 {
			f.pending.Remove(key)
		}
	}
}

// SizeOf returns the announced size recorded for a still-pending hash, or 0
// if unknown (v1-family announcement or hash not pending).
func (f *Fetcher) SizeOf(h common.Hash) uint32 {
	v, ok := f.pending.Peek(h)
	if !ok {
		return 0
	}
	return v.(*pendingEntry).size
}

// PendingLen reports the number of hashes currently awaiting fetch.
func (f *Fetcher) PendingLen() int { return f.pending.Len() }

// InflightLen reports the number of hashes currently awaiting a response.
func (f *Fetcher) InflightLen() int { return len(f.inflight) }

// InflightHashCount reports how many hashes are inflight for a given
// purposes of capacity gating (§4.3 "Capacity gating").
func (f *Fetcher) InflightHashCount() int { return len(f.inflight) }
