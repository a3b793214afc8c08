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
	"bufio"
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	payloads := [][]byte{nil, {0x08, 0x01}, bytes.Repeat([]byte{0xAA}, 300)}
	var stream bytes.Buffer
	for i, p := range payloads {
		kind := FramePrimary
		if i%2 == 1 {
			kind = FrameSecondary
		}
		if err := WriteFrame(&stream, kind, p); err != nil {
			t.Fatal(err)
		}
	}
	r := bufio.NewReader(&stream)
	for i, p := range payloads {
		f, err := ReadFrame(r)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if int(f.Length) != len(p) || !bytes.Equal(f.Payload, p) {
			t.Fatalf("frame %d: got %d bytes", i, f.Length)
		}
	}
	if _, err := ReadFrame(r); err != io.EOF {
		t.Fatalf("got %v, want io.EOF", err)
	}
}

func TestEncodeFrameHeader(t *testing.T) {
	b, err := EncodeFrame(FrameSecondary, bytes.Repeat([]byte{1}, 0x0102))
	if err != nil {
		t.Fatal(err)
	}
	if b[0] != 2 || b[1] != 0x02 || b[2] != 0x01 || len(b) != 3+0x0102 {
		t.Fatalf("unexpected header % x", b[:3])
	}
}

func TestReadDebugLine(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte("\x03Free memory: 1024\n\x01\x00\x00\x03tail")))
	f, err := ReadFrame(r)
	if err != nil {
		t.Fatal(err)
	}
	if !f.IsDebug() || string(f.Payload) != "Free memory: 1024" {
		t.Fatalf("got %+v", f)
	}
	if f, err = ReadFrame(r); err != nil || f.Kind != FramePrimary || f.Length != 0 {
		t.Fatalf("got %+v, %v", f, err)
	}
	// The stream ends inside a debug line.
	if f, err = ReadFrame(r); err != nil || string(f.Payload) != "tail" {
		t.Fatalf("got %+v, %v", f, err)
	}
}

func TestReadShortFrame(t *testing.T) {
	for _, raw := range [][]byte{{1}, {1, 5}, {1, 5, 0}, {2, 5, 0, 1, 2}} {
		_, err := ReadFrame(bufio.NewReader(bytes.NewReader(raw)))
		if !errors.Is(err, ErrShortFrame) {
			t.Fatalf("% x: got %v", raw, err)
		}
	}
}

func TestEncodeFrameErrors(t *testing.T) {
	if _, err := EncodeFrame(FrameDebug, []byte("x")); !errors.Is(err, ErrDebugFrameWrite) {
		t.Fatalf("got %v", err)
	}
	if _, err := EncodeFrame(FramePrimary, make([]byte, MaxPayloadLen+1)); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("got %v", err)
	}
	if _, err := EncodeFrame(FramePrimary, make([]byte, MaxPayloadLen)); err != nil {
		t.Fatalf("largest payload: %v", err)
	}
}

func TestFrameKindString(t *testing.T) {
	if FramePrimary.String() != "primary" || FrameKind(9).String() != "unknown(9)" {
		t.Fatal("unexpected frame kind names")
	}
}
