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

import "errors"

var (
	// errUnknownPeer is returned (and only traced, never fatal) when an
	// event names a peer not present in the peer table.
	errUnknownPeer = errors.New("probe: unknown peer")

	// errTerminated is returned by command handle operations on a handle
	// with no command channel (a zero ManagerHandle). A handle whose
	// manager has stopped does not return it: its commands are still
	// accepted, and are never processed.
	errTerminated = errors.New("probe: manager terminated")

	// errNoResponse is returned internally when a one-shot response
	// channel was closed without a value, which the event loop does for a
	// per-peer query naming a peer that is not connected.
	errNoResponse = errors.New("probe: no response")
)
