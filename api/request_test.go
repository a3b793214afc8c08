package api

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
	"bytes"
	"errors"
	"testing"
)

func TestRequestRoundTrip(t *testing.T) {
	tests := []struct {
		ch  Channel
		req Request
	}{
		{ChannelPrimary, Request{ID: 1, Command: CreateWaterSource{Name: "Compesa", Pin: 15, WaterTankName: "Tank"}}},
		{ChannelPrimary, Request{ID: 65534, Command: CreateWaterTank{Name: "Tank", PressureSensorPin: -3, VolumeFactor: 1.5, PressureFactor: 0.25}}},
		{ChannelPrimary, Request{ID: 9, Command: FillWaterTank{WaterTankName: "Tank", Enabled: true}}},
		{ChannelSecondary, Request{ID: 300, Command: AdvanceClock{Seconds: 3600}}},
		{ChannelSecondary, Request{ID: 2, Command: FreeMemory{}}},
	}
	for _, tt := range tests {
		b, err := MarshalRequest(tt.req)
		if err != nil {
			t.Fatalf("%s: marshal: %v", tt.req.Command.CommandName(), err)
		}
		got, err := UnmarshalRequest(tt.ch, b)
		if err != nil {
			t.Fatalf("%s: unmarshal: %v", tt.req.Command.CommandName(), err)
		}
		if got != tt.req {
			t.Fatalf("round trip: got %+v, want %+v", got, tt.req)
		}
		ch, err := got.Channel()
		if err != nil || ch != tt.ch {
			t.Fatalf("%s: channel %v (%v), want %v", tt.req.Command.CommandName(), ch, err, tt.ch)
		}
	}
}

func TestEmptyCommandIsPresent(t *testing.T) {
	b, err := MarshalRequest(Request{Command: GetMode{}})
	if err != nil {
		t.Fatal(err)
	}
	// Field 14, length delimited, empty.
	if want := []byte{14<<3 | 2, 0}; !bytes.Equal(b, want) {
		t.Fatalf("got % x, want % x", b, want)
	}
	req, err := UnmarshalRequest(ChannelPrimary, b)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := req.Command.(GetMode); !ok || req.ID != 0 {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestUnmarshalRequestWrongChannel(t *testing.T) {
	b, err := MarshalRequest(Request{ID: 4, Command: GetIOValue{Pin: 3}})
	if err != nil {
		t.Fatal(err)
	}
	// Field 4 is getWaterSourceList on the primary channel.
	req, err := UnmarshalRequest(ChannelPrimary, b)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := req.Command.(GetWaterSourceList); !ok {
		t.Fatalf("got %T", req.Command)
	}
	if _, err = UnmarshalRequest(ChannelSecondary, []byte{8, 4}); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
	if _, err = UnmarshalRequest(ChannelPrimary, []byte("Nothing")); err == nil {
		t.Fatal("expected error")
	}
}

func TestLookupParseArgs(t *testing.T) {
	s, ok := Lookup("setWaterSourceState")
	if !ok {
		t.Fatal("setWaterSourceState not registered")
	}
	args, err := s.ParseArgs(map[string]string{"waterSourceName": "Compesa", "enabled": "true"})
	if err != nil {
		t.Fatal(err)
	}
	cmd := s.Build(args)
	if cmd != (SetWaterSourceState{WaterSourceName: "Compesa", Enabled: true}) {
		t.Fatalf("unexpected command %+v", cmd)
	}
	if _, err = s.ParseArgs(map[string]string{"enabled": "true"}); err == nil {
		t.Fatal("expected missing argument error")
	}
	if _, err = s.ParseArgs(map[string]string{"waterSourceName": "a", "enabled": "1", "pin": "3"}); err == nil {
		t.Fatal("expected unknown argument error")
	}
	if _, err = s.ParseArgs(map[string]string{"waterSourceName": "a", "enabled": "maybe"}); err == nil {
		t.Fatal("expected parse error")
	}
	if _, ok = Lookup("launchRocket"); ok {
		t.Fatal("unexpected command")
	}
}

func TestSpecsCoverEveryCommand(t *testing.T) {
	specs := Specs()
	if len(specs) != 22 {
		t.Fatalf("got %d commands", len(specs))
	}
	for _, s := range specs {
		cmd := s.Build(Args{})
		if cmd.CommandName() != s.Name {
			t.Fatalf("%s builds %s", s.Name, cmd.CommandName())
		}
		if _, err := MarshalRequest(Request{ID: 1, Command: cmd}); err != nil {
			t.Fatalf("%s: %v", s.Name, err)
		}
	}
	if specs[0].Channel != ChannelPrimary || specs[len(specs)-1].Channel != ChannelSecondary {
		t.Fatal("specs are not sorted by channel")
	}
}
