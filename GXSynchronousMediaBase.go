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

import (
	"io"
	"sync"
)

// synchronousMediaBase buffers bytes received asynchronously from the media
// and returns them through a blocking Read.
type synchronousMediaBase struct {
	mu  sync.Mutex
	buf []byte
	// err is returned by Read when the buffer is empty.
	err  error
	wait chan struct{}
}

func newGXSynchronousMediaBase() *synchronousMediaBase {
	return &synchronousMediaBase{wait: make(chan struct{})}
}

// Append adds received bytes. Bytes appended after Close are dropped.
func (b *synchronousMediaBase) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	b.mu.Lock()
	if b.err != nil {
		b.mu.Unlock()
		return
	}
	b.buf = append(b.buf, p...)
	old := b.wait
	b.wait = make(chan struct{})
	b.mu.Unlock()
	close(old)
}

// Read implements io.Reader. It waits until data is available or the buffer is closed.
func (b *synchronousMediaBase) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		b.mu.Lock()
		if len(b.buf) != 0 {
			n := copy(p, b.buf)
			//Remove copied bytes.
			b.buf = b.buf[n:]
			if len(b.buf) == 0 {
				b.buf = nil
			}
			b.mu.Unlock()
			return n, nil
		}
		if b.err != nil {
			err := b.err
			b.mu.Unlock()
			return 0, err
		}
		ch := b.wait
		b.mu.Unlock()
		<-ch
	}
}

// Available returns the number of buffered bytes.
func (b *synchronousMediaBase) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// Close wakes up readers. Buffered bytes are still returned, after them Read
// returns err, or io.EOF when err is nil.
func (b *synchronousMediaBase) Close(err error) {
	if err == nil {
		err = io.EOF
	}
	b.mu.Lock()
	if b.err != nil {
		b.mu.Unlock()
		return
	}
	b.err = err
	old := b.wait
	b.wait = make(chan struct{})
	b.mu.Unlock()
	close(old)
}
