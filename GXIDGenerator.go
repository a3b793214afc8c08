package gxserialrpc

// --------------------------------------------------------------------------
//
//	Gurux Ltd
//
// Filename:        $HeadURL$
//
// Version:         $Revision$,
//
//	$Date$
//	$Author$
//
// # Copyright (c) Gurux Ltd
//
// ---------------------------------------------------------------------------
//
//	DESCRIPTION
//
// This file is a part of Gurux Device Framework.
//
// Gurux Device Framework is Open Source software; you can redistribute it
// and/or modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2 of the License.
// Gurux Device Framework is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU General Public License for more details.
//
// More information of Gurux products: https://www.gurux.org
//
// This code is licensed under the GNU General Public License v2.
// Full text may be retrieved at http://www.gnu.org/licenses/gpl-2.0.txt
// ---------------------------------------------------------------------------

import "sync"

// MaxRequestID is the largest request id. Ids cycle over 1..MaxRequestID, 0 is reserved.
const MaxRequestID = 65534

// idGenerator hands out request ids for one client.
type idGenerator struct {
	mu   sync.Mutex
	last uint16
}

func (g *idGenerator) next() uint16 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last >= MaxRequestID {
		g.last = 0
	}
	g.last++
	return g.last
}
