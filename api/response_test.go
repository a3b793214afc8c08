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
	"errors"
	"reflect"
	"testing"
)

func TestResponseRoundTrip(t *testing.T) {
	tank := "Tank"
	tests := []Response{
		{ID: 1},
		{ID: 2, Message: &Value{Variant: IntValue(0)}},
		{ID: 3, Message: &Value{Variant: FloatValue(-1.5)}},
		{ID: 4, Message: &Value{Variant: StringValue("Compesa")}},
		{ID: 5, Message: &Value{Variant: ListValue{{Variant: StringValue("a")}, {Variant: StringValue("b")}}}},
		{ID: 6, Message: &Value{Variant: &WaterSourceState{Name: "Compesa", Pin: 15, SourceWaterTank: &tank}}},
		{ID: 7, Message: &Value{Variant: &WaterTankState{Name: "Tank", Volume: 12.5, Filling: true}}},
		{ID: 8, Error: ErrorRecord{Type: 2, Message: "Max of water sources reached"}},
		{Error: ErrorFlag(true)},
		{ID: 9, Message: &Value{}},
	}
	for _, want := range tests {
		b, err := MarshalResponse(want)
		if err != nil {
			t.Fatal(err)
		}
		got, err := UnmarshalResponse(ChannelPrimary, b)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round trip: got %+v, want %+v", got, want)
		}
	}
}

func TestErrorIndicatorWireType(t *testing.T) {
	// id 0, error varint 1.
	r, err := UnmarshalResponse(ChannelPrimary, []byte{3<<3 | 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if r.Error != ErrorFlag(true) {
		t.Fatalf("got %#v", r.Error)
	}
	// error record with type 1.
	r, err = UnmarshalResponse(ChannelSecondary, []byte{3<<3 | 2, 2, 1 << 3, 1})
	if err != nil {
		t.Fatal(err)
	}
	if r.Error != (ErrorRecord{Type: 1}) {
		t.Fatalf("got %#v", r.Error)
	}
}

func TestFieldsOnlyPopulated(t *testing.T) {
	if f := (Response{}).Fields(); len(f) != 0 {
		t.Fatalf("got %v", f)
	}
	f := Response{ID: 3, Error: ErrorFlag(true)}.Fields()
	if len(f) != 2 || f[0].Name != "id" || f[1].Name != "error" {
		t.Fatalf("got %v", f)
	}
}

func TestUnmarshalResponseMalformed(t *testing.T) {
	tests := [][]byte{
		// id with wire type bytes.
		{1<<3 | 2, 1, 0},
		// truncated message.
		{2<<3 | 2, 5, 1},
		// float with varint wire type inside value.
		{2<<3 | 2, 2, 2<<3 | 0, 1},
	}
	for _, b := range tests {
		if _, err := UnmarshalResponse(ChannelPrimary, b); !errors.Is(err, ErrMalformed) {
			t.Fatalf("% x: expected ErrMalformed, got %v", b, err)
		}
	}
	if _, err := UnmarshalResponse(Channel(3), nil); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestUnknownFieldsSkipped(t *testing.T) {
	// field 15 varint, then id 7.
	r, err := UnmarshalResponse(ChannelPrimary, []byte{15 << 3, 1, 1 << 3, 7})
	if err != nil {
		t.Fatal(err)
	}
	if r.ID != 7 {
		t.Fatalf("got id %d", r.ID)
	}
}
