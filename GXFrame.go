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
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// FrameKind is the first byte of every frame.
type FrameKind uint8

const (
	// FramePrimary carries primary channel messages.
	FramePrimary FrameKind = 1
	// FrameSecondary carries secondary (test and diagnostic) channel messages.
	FrameSecondary FrameKind = 2
	// FrameDebug is a device debug line terminated by '\n'. It has no length field.
	FrameDebug FrameKind = 3
)

const (
	frameHeaderLen = 3
	// MaxPayloadLen is the largest payload a 2 byte length field can describe.
	MaxPayloadLen = 0xFFFF
)

var (
	// ErrShortFrame is returned when the stream ends inside a length field or payload.
	ErrShortFrame = errors.New("gxserialrpc: short frame")
	// ErrPayloadTooLarge is returned when a payload does not fit the length field.
	ErrPayloadTooLarge = errors.New("gxserialrpc: payload too large")
	// ErrDebugFrameWrite is returned when a debug frame is encoded. Debug frames are device to client only.
	ErrDebugFrameWrite = errors.New("gxserialrpc: debug frames cannot be written")
)

// String returns the frame kind name.
func (k FrameKind) String() string {
	switch k {
	case FramePrimary:
		return "primary"
	case FrameSecondary:
		return "secondary"
	case FrameDebug:
		return "debug"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Frame is one unit on the wire.
type Frame struct {
	Kind    FrameKind
	Length  uint16
	Payload []byte
}

// IsDebug returns true if the frame is a device debug line.
func (f Frame) IsDebug() bool {
	return f.Kind == FrameDebug
}

// ReadFrame reads the next frame from r.
//
// A debug frame is returned with the line in Payload, without the terminator.
// An end of stream inside a debug line ends the line. An end of stream inside
// a length field or payload returns ErrShortFrame. io.EOF is returned when the
// stream ends before the kind byte.
func ReadFrame(r *bufio.Reader) (Frame, error) {
	kind, err := r.ReadByte()
	if err != nil {
		return Frame{}, err
	}
	if FrameKind(kind) == FrameDebug {
		line, err := r.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Frame{}, err
		}
		if n := len(line); n != 0 && line[n-1] == '\n' {
			line = line[:n-1]
		}
		return Frame{Kind: FrameDebug, Length: uint16(min(len(line), MaxPayloadLen)), Payload: line}, nil
	}
	var size [2]byte
	if _, err := io.ReadFull(r, size[:]); err != nil {
		return Frame{}, shortFrame(err)
	}
	length := binary.LittleEndian.Uint16(size[:])
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, shortFrame(err)
	}
	return Frame{Kind: FrameKind(kind), Length: length, Payload: payload}, nil
}

func shortFrame(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrShortFrame, io.ErrUnexpectedEOF)
	}
	return err
}

// EncodeFrame returns [kind][len(payload) little endian][payload].
func EncodeFrame(kind FrameKind, payload []byte) ([]byte, error) {
	if kind == FrameDebug {
		return nil, ErrDebugFrameWrite
	}
	if len(payload) > MaxPayloadLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	buf := make([]byte, frameHeaderLen, frameHeaderLen+len(payload))
	buf[0] = byte(kind)
	binary.LittleEndian.PutUint16(buf[1:3], uint16(len(payload)))
	return append(buf, payload...), nil
}

// WriteFrame encodes the frame and writes it with a single Write call.
func WriteFrame(w io.Writer, kind FrameKind, payload []byte) error {
	buf, err := EncodeFrame(kind, payload)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}
