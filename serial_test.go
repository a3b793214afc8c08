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
	"testing"

	"github.com/Gurux/gxcommon-go"
	"github.com/rs/zerolog"
)

func TestNewGXSerialMediaSettings(t *testing.T) {
	s := DefaultSettings()
	s.Port = "/dev/ttyUSB9"
	s.BaudRate = 19200
	s.DataBits = 7
	s.Parity = "Even"
	m, err := NewGXSerialMedia(s, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if m.serial.Port != s.Port || m.serial.BaudRate() != gxcommon.BaudRate(19200) || m.serial.DataBits() != 7 {
		t.Fatalf("unexpected port %s", m)
	}
	if m.serial.Parity() != gxcommon.ParityEven || m.serial.StopBits() != gxcommon.StopBitsOne {
		t.Fatalf("parity %v, stop bits %v", m.serial.Parity(), m.serial.StopBits())
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if err := m.Open(); err == nil {
		t.Fatal("closed media opened")
	}
}
