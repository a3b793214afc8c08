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
	"errors"
	"io"
	"testing"
	"time"
)

func TestReceiveBufferRead(t *testing.T) {
	b := newGXSynchronousMediaBase()
	b.Append([]byte{1, 2, 3})
	p := make([]byte, 2)
	if n, err := b.Read(p); n != 2 || err != nil || p[0] != 1 || p[1] != 2 {
		t.Fatalf("got %d, %v, % x", n, err, p)
	}
	if b.Available() != 1 {
		t.Fatalf("available %d", b.Available())
	}
	if n, err := b.Read(p); n != 1 || err != nil || p[0] != 3 {
		t.Fatalf("got %d, %v", n, err)
	}
}

func TestReceiveBufferReadWaits(t *testing.T) {
	b := newGXSynchronousMediaBase()
	go func() {
		time.Sleep(10 * time.Millisecond)
		b.Append([]byte("ok"))
	}()
	p := make([]byte, 8)
	n, err := b.Read(p)
	if err != nil || string(p[:n]) != "ok" {
		t.Fatalf("got %q, %v", p[:n], err)
	}
}

func TestReceiveBufferClose(t *testing.T) {
	b := newGXSynchronousMediaBase()
	b.Append([]byte{7})
	b.Close(nil)
	b.Append([]byte{8})
	p := make([]byte, 4)
	if n, err := b.Read(p); n != 1 || err != nil {
		t.Fatalf("buffered bytes lost: %d, %v", n, err)
	}
	if _, err := b.Read(p); err != io.EOF {
		t.Fatalf("got %v", err)
	}

	b = newGXSynchronousMediaBase()
	done := make(chan error, 1)
	go func() {
		_, err := b.Read(p)
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	b.Close(ErrConnectionLost)
	if err := <-done; !errors.Is(err, ErrConnectionLost) {
		t.Fatalf("got %v", err)
	}
}
