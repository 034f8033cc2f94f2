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

// Package probe implements the Transactions Manager: the single-owner
// coordinator that gossips pooled transactions over the probe wire
// sub-protocol, in the same place go-ethereum's own eth/handler.go +
// eth/fetcher/tx_fetcher.go + eth/protocols/eth live in the teacher
// lineage this package is descended from.
package probe

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/probeum/go-probeum/common"
	"github.com/probeum/go-probeum/log"
	"github.com/probeum/go-probeum/probe/fetcher"
	"github.com/probeum/go-probeum/probe/protocols/probe"
)

// Soft limits named in §4.1/§4.2, carried as ManagerConfig defaults.
const (
	DefaultHashAnnouncementSoftLimit  = 4096
	DefaultBroadcastMessageSoftLimit  = 128 * 1024
	DefaultResponseByteSoftLimit      = fetcher.DefaultResponseByteSoftLimit
	DefaultMaxRequestRetriesPerHash   = fetcher.DefaultMaxRetries
	DefaultMaxPendingImports          = 4096
	DefaultBackpressureImportFraction = 0.75
	DefaultFairnessBudget             = 256
	DefaultFetchDrainInterval         = 50 * time.Millisecond
	DefaultRequestTimeout             = 5 * time.Second
)

// ManagerConfig bounds and wires the manager, mirroring the teacher's
// handlerConfig / probeconfig.Config pattern of a plain struct with
// package-level defaults.
type ManagerConfig struct {
	Pool    TxPool
	Network PeerBackend

	SeenSetCapacity         int
	BadImportCacheCapacity  int
	HashAnnouncementLimit   int
	BroadcastMessageLimit   int
	ResponseByteSoftLimit   int
	MaxRequestRetries       int
	MaxPendingImports       int64
	BackpressureFraction    float64
	FairnessBudget          int
	FetchDrainInterval      time.Duration
	RequestTimeout          time.Duration
	AnnouncementFilter      AnnouncementFilterPolicy
	Propagation             PropagationPolicy
}

// DefaultManagerConfig returns a ManagerConfig with every documented
// default filled in except Pool/Network, which the caller must supply.
func DefaultManagerConfig(pool TxPool, network PeerBackend) ManagerConfig {
	return ManagerConfig{
		Pool:                   pool,
		Network:                network,
		SeenSetCapacity:        DefaultSeenSetCapacity,
		BadImportCacheCapacity: DefaultBadImportCacheCapacity,
		HashAnnouncementLimit:  DefaultHashAnnouncementSoftLimit,
		BroadcastMessageLimit:  DefaultBroadcastMessageSoftLimit,
		ResponseByteSoftLimit:  DefaultResponseByteSoftLimit,
		MaxRequestRetries:      DefaultMaxRequestRetriesPerHash,
		MaxPendingImports:      DefaultMaxPendingImports,
		BackpressureFraction:   DefaultBackpressureImportFraction,
		FairnessBudget:         DefaultFairnessBudget,
		FetchDrainInterval:     DefaultFetchDrainInterval,
		RequestTimeout:         DefaultRequestTimeout,
		AnnouncementFilter:     StrictAnnouncementFilter{},
		Propagation:            DefaultPropagationPolicy{},
	}
}

// Manager is the Transactions Manager: a single-owner cooperative event
// loop. All fields below this point in the struct are mutated only from
// the loop goroutine; no locks guard them (§5).
type Manager struct {
	cfg ManagerConfig

	pool    TxPool
	network PeerBackend

	peers       *PeerTable
	pending     *PendingByPeer
	badImports  *BadImportCache
	fetcher     *fetcher.Fetcher
	tracker     *probe.RequestTracker
	announceFlt AnnouncementFilterPolicy
	propagation PropagationPolicy

	commands      <-chan command
	netEvents     chan netTxEvent
	fetcherEvents chan fetcherEvent
	importResults chan importResult

	importSem           *semaphore.Weighted
	importInFlightCount int64

	log log.Logger

	quit chan struct{}
	wg   sync.WaitGroup
}

// NewManager constructs a Manager and its ManagerHandle. Call Start to
// begin the event loop.
func NewManager(cfg ManagerConfig) (*Manager, ManagerHandle) {
	handle, commandsOut := newManagerHandle()

	m := &Manager{
		cfg:           cfg,
		pool:          cfg.Pool,
		network:       cfg.Network,
		peers:         NewPeerTable(),
		pending:       NewPendingByPeer(),
		badImports:    NewBadImportCacheWithCapacity(cfg.BadImportCacheCapacity),
		tracker:       probe.NewRequestTracker(cfg.RequestTimeout),
		announceFlt:   cfg.AnnouncementFilter,
		propagation:   cfg.Propagation,
		commands:      commandsOut,
		netEvents:     make(chan netTxEvent, 256),
		fetcherEvents: make(chan fetcherEvent, 256),
		importResults: make(chan importResult, 256),
		importSem:     semaphore.NewWeighted(cfg.MaxPendingImports),
		log:           log.New("component", "txmanager"),
		quit:          make(chan struct{}),
	}
	m.fetcher = fetcher.New(fetcher.Config{
		MaxRetries:            cfg.MaxRequestRetries,
		ResponseByteSoftLimit: cfg.ResponseByteSoftLimit,
		MaxHashesPerRequest:   fetcher.DefaultMaxHashesPerRequest,
		MaxPendingHashes:      100_000,
		MaxInflightHashes:     100_000,
	}, m.dispatchFetch)

	return m, handle
}

// Start launches the event loop. The loop runs until quit is closed or
// Stop is called.
func (m *Manager) Start() {
	m.wg.Add(1)
	go m.loop()
}

// Stop cancels the loop and waits for it to exit. In-flight pool imports
// continue to completion but their results are discarded (§5
// "Cancellation").
func (m *Manager) Stop() {
	close(m.quit)
	m.wg.Wait()
}

// dispatchFetch is the fetcher's RequestFunc: it looks up the peer's
// session facade and issues the wire request, tracking round-trip time.
func (m *Manager) dispatchFetch(peer PeerId, hashes []common.Hash) error {
	meta, ok := m.peers.Get(peer)
	if !ok {
		return errUnknownPeer
	}
	m.tracker.Track(peer)
	return meta.Peer.RequestTxs(hashes)
}

// loop is the single-owner cooperative event loop multiplexing the seven
// sources named in §4.1. Every source is drained against a fairness
// budget; a source left with more queued work re-wakes the loop
// immediately instead of waiting for the next external event.
func (m *Manager) loop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.FetchDrainInterval)
	defer ticker.Stop()

	for {
		more := false

		more = m.drainNetworkEvents() || more
		more = m.drainNetTxEvents() || more
		more = m.drainFetcherEvents() || more
		more = m.drainImportResults() || more
		more = m.drainPendingTxStream() || more
		more = m.drainCommands() || more

		if m.backpressureOK() {
			m.drainPendingFetch()
		}

		if more {
			// Re-schedule immediately: at least one source reported
			// leftover work after exhausting its budget.
			select {
			case <-m.quit:
				return
			default:
				continue
			}
		}

		select {
		case <-m.quit:
			return
		case ev := <-m.network.EventListener():
			m.handleNetworkEvent(ev)
		case ev := <-m.netEvents:
			m.handleNetTxEvent(ev)
		case ev := <-m.fetcherEvents:
			m.handleFetcherEvent(ev)
		case res := <-m.importResults:
			m.handleImportResult(res)
		case h := <-m.pool.PendingTransactionsListener():
			m.handlePendingTx(h)
		case c := <-m.commands:
			m.handleCommand(c)
		case <-ticker.C:
			m.checkTimeouts()
			// Falls through to the top of the loop, where
			// backpressureOK gates drainPendingFetch.
		}
	}
}

// drainNetworkEvents processes up to FairnessBudget queued peer session
// lifecycle events, reporting whether more remain queued.
func (m *Manager) drainNetworkEvents() bool {
	ch := m.network.EventListener()
	for i := 0; i < m.cfg.FairnessBudget; i++ {
		select {
		case ev := <-ch:
			m.handleNetworkEvent(ev)
		default:
			return len(ch) > 0
		}
	}
	return len(ch) > 0
}

// drainNetTxEvents processes queued inbound announcement/broadcast/
// GetPooledTransactions events.
func (m *Manager) drainNetTxEvents() bool {
	for i := 0; i < m.cfg.FairnessBudget; i++ {
		select {
		case ev := <-m.netEvents:
			m.handleNetTxEvent(ev)
		default:
			return len(m.netEvents) > 0
		}
	}
	return len(m.netEvents) > 0
}

// drainFetcherEvents processes queued fetcher response/error/empty events.
func (m *Manager) drainFetcherEvents() bool {
	for i := 0; i < m.cfg.FairnessBudget; i++ {
		select {
		case ev := <-m.fetcherEvents:
			m.handleFetcherEvent(ev)
		default:
			return len(m.fetcherEvents) > 0
		}
	}
	return len(m.fetcherEvents) > 0
}

func (m *Manager) drainImportResults() bool {
	for i := 0; i < m.cfg.FairnessBudget; i++ {
		select {
		case res := <-m.importResults:
			m.handleImportResult(res)
		default:
			return false
		}
	}
	return len(m.importResults) > 0
}

func (m *Manager) drainPendingTxStream() bool {
	ch := m.pool.PendingTransactionsListener()
	for i := 0; i < m.cfg.FairnessBudget; i++ {
		select {
		case h := <-ch:
			m.handlePendingTx(h)
		default:
			return false
		}
	}
	return len(ch) > 0
}

func (m *Manager) drainCommands() bool {
	for i := 0; i < m.cfg.FairnessBudget; i++ {
		select {
		case c := <-m.commands:
			m.handleCommand(c)
		default:
			return false
		}
	}
	return len(m.commands) > 0
}

// backpressureOK implements the backpressure coupling of §4.3: the
// drain-pending-fetch action only runs when the pool-import in-flight
// count is below a fraction of its cap, and the fetcher's own inflight
// counters are below their caps.
func (m *Manager) backpressureOK() bool {
	threshold := int64(float64(m.cfg.MaxPendingImports) * m.cfg.BackpressureFraction)
	if atomic.LoadInt64(&m.importInFlightCount) >= threshold {
		return false
	}
	return m.fetcher.InflightHashCount() < fetcher.DefaultConfig().MaxInflightHashes
}
