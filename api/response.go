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
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	fieldResponseID      protowire.Number = 1
	fieldResponseMessage protowire.Number = 2
	fieldResponseError   protowire.Number = 3
)

// Value field numbers.
const (
	fieldValueInt protowire.Number = iota + 1
	fieldValueFloat
	fieldValueBool
	fieldValueString
	fieldValueList
	fieldValueWaterSource
	fieldValueWaterTank
)

const fieldListItem protowire.Number = 1

// Variant is the populated member of a Value.
// It is one of IntValue, FloatValue, BoolValue, StringValue, ListValue,
// *WaterSourceState or *WaterTankState.
type Variant interface {
	isVariant()
}

// IntValue is an int32 value.
type IntValue int32

// FloatValue is a float value.
type FloatValue float32

// BoolValue is a bool value.
type BoolValue bool

// StringValue is a string value.
type StringValue string

// ListValue is a list of values.
type ListValue []Value

// WaterSourceState is the state of one water source.
type WaterSourceState struct {
	Name    string
	Pin     int32
	Enabled bool
	// SourceWaterTank is nil when the source is not connected to a water tank.
	SourceWaterTank *string
}

// WaterTankState is the state of one water tank.
type WaterTankState struct {
	Name               string
	PressureSensorPin  int32
	VolumeFactor       float32
	PressureFactor     float32
	MinimumVolume      float32
	MaxVolume          float32
	ZeroVolumePressure float32
	Volume             float32
	Pressure           float32
	Filling            bool
	// WaterSource is nil when no water source fills the tank.
	WaterSource *string
	Active      bool
}

func (IntValue) isVariant()          {}
func (FloatValue) isVariant()        {}
func (BoolValue) isVariant()         {}
func (StringValue) isVariant()       {}
func (ListValue) isVariant()         {}
func (*WaterSourceState) isVariant() {}
func (*WaterTankState) isVariant()   {}

// Value wraps one value of the schema. Variant is nil when nothing is populated.
type Value struct {
	Variant Variant
}

// ErrorIndicator is ErrorFlag or ErrorRecord.
type ErrorIndicator interface {
	isErrorIndicator()
}

// ErrorFlag is the legacy boolean error indicator.
type ErrorFlag bool

// ErrorRecord is the structured error indicator.
type ErrorRecord struct {
	// Type is 0 for a generic error, 1 for a runtime error and 2 for an invalid request.
	Type    int32
	Message string
	Arg     string
}

func (ErrorFlag) isErrorIndicator()   {}
func (ErrorRecord) isErrorIndicator() {}

// Response is a decoded primary or secondary channel response.
type Response struct {
	ID      uint16
	Message *Value
	Error   ErrorIndicator
}

// Field is one populated top level field of a response.
type Field struct {
	Name  string
	Value any
}

// Fields returns the populated top level fields in field number order.
// Values are uint16 for "id", *Value for "message" and ErrorIndicator for "error".
func (r Response) Fields() []Field {
	var ret []Field
	if r.ID != 0 {
		ret = append(ret, Field{Name: "id", Value: r.ID})
	}
	if r.Message != nil {
		ret = append(ret, Field{Name: "message", Value: r.Message})
	}
	if r.Error != nil {
		ret = append(ret, Field{Name: "error", Value: r.Error})
	}
	return ret
}

// MarshalResponse encodes the response.
func MarshalResponse(r Response) ([]byte, error) {
	var b []byte
	if r.ID != 0 {
		b = appendUint32(b, fieldResponseID, uint32(r.ID))
	}
	if r.Message != nil {
		v, err := marshalValue(*r.Message)
		if err != nil {
			return nil, err
		}
		b = appendMessage(b, fieldResponseMessage, v)
	}
	switch e := r.Error.(type) {
	case nil:
	case ErrorFlag:
		if e {
			b = appendBool(b, fieldResponseError, true)
		}
	case ErrorRecord:
		var rec []byte
		if e.Type != 0 {
			rec = appendInt32(rec, 1, e.Type)
		}
		if e.Message != "" {
			rec = appendString(rec, 2, e.Message)
		}
		if e.Arg != "" {
			rec = appendString(rec, 3, e.Arg)
		}
		b = appendMessage(b, fieldResponseError, rec)
	default:
		return nil, fmt.Errorf("api: unknown error indicator %T", e)
	}
	return b, nil
}

// UnmarshalResponse decodes a response received on the given channel.
func UnmarshalResponse(ch Channel, b []byte) (Response, error) {
	if ch != ChannelPrimary && ch != ChannelSecondary {
		return Response{}, fmt.Errorf("%w: %s", ErrMalformed, ch)
	}
	var r Response
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldResponseID:
			v, n, err := consumeVarint(num, typ, b)
			r.ID = uint16(v)
			return n, err
		case fieldResponseMessage:
			raw, n, err := consumeBytes(num, typ, b)
			if err != nil {
				return 0, err
			}
			v, err := unmarshalValue(raw)
			if err != nil {
				return 0, err
			}
			r.Message = &v
			return n, nil
		case fieldResponseError:
			// The wire type tells the legacy flag from the record.
			if typ == protowire.VarintType {
				v, n, err := consumeVarint(num, typ, b)
				r.Error = ErrorFlag(protowire.DecodeBool(v))
				return n, err
			}
			raw, n, err := consumeBytes(num, typ, b)
			if err != nil {
				return 0, err
			}
			rec, err := unmarshalErrorRecord(raw)
			if err != nil {
				return 0, err
			}
			r.Error = rec
			return n, nil
		}
		return 0, nil
	})
	if err != nil {
		return Response{}, err
	}
	return r, nil
}

func unmarshalErrorRecord(b []byte) (ErrorRecord, error) {
	var rec ErrorRecord
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(num, typ, b)
			rec.Type = int32(v)
			return n, err
		case 2, 3:
			v, n, err := consumeBytes(num, typ, b)
			if num == 2 {
				rec.Message = string(v)
			} else {
				rec.Arg = string(v)
			}
			return n, err
		}
		return 0, nil
	})
	return rec, err
}

func marshalValue(v Value) ([]byte, error) {
	var b []byte
	switch x := v.Variant.(type) {
	case nil:
	case IntValue:
		b = appendInt32(b, fieldValueInt, int32(x))
	case FloatValue:
		b = appendFloat(b, fieldValueFloat, float32(x))
	case BoolValue:
		b = appendBool(b, fieldValueBool, bool(x))
	case StringValue:
		b = appendString(b, fieldValueString, string(x))
	case ListValue:
		var list []byte
		for _, item := range x {
			raw, err := marshalValue(item)
			if err != nil {
				return nil, err
			}
			list = appendMessage(list, fieldListItem, raw)
		}
		b = appendMessage(b, fieldValueList, list)
	case *WaterSourceState:
		var s []byte
		if x.Name != "" {
			s = appendString(s, 1, x.Name)
		}
		if x.Pin != 0 {
			s = appendInt32(s, 2, x.Pin)
		}
		if x.Enabled {
			s = appendBool(s, 3, true)
		}
		if x.SourceWaterTank != nil {
			s = appendString(s, 4, *x.SourceWaterTank)
		}
		b = appendMessage(b, fieldValueWaterSource, s)
	case *WaterTankState:
		b = appendMessage(b, fieldValueWaterTank, marshalWaterTank(x))
	default:
		return nil, fmt.Errorf("api: unknown value variant %T", x)
	}
	return b, nil
}

func marshalWaterTank(x *WaterTankState) []byte {
	var s []byte
	if x.Name != "" {
		s = appendString(s, 1, x.Name)
	}
	if x.PressureSensorPin != 0 {
		s = appendInt32(s, 2, x.PressureSensorPin)
	}
	floats := []float32{x.VolumeFactor, x.PressureFactor, x.MinimumVolume, x.MaxVolume,
		x.ZeroVolumePressure, x.Volume, x.Pressure}
	for i, f := range floats {
		if f != 0 {
			s = appendFloat(s, protowire.Number(3+i), f)
		}
	}
	if x.Filling {
		s = appendBool(s, 10, true)
	}
	if x.WaterSource != nil {
		s = appendString(s, 11, *x.WaterSource)
	}
	if x.Active {
		s = appendBool(s, 12, true)
	}
	return s
}

func unmarshalValue(b []byte) (Value, error) {
	var v Value
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldValueInt:
			x, n, err := consumeVarint(num, typ, b)
			v.Variant = IntValue(int32(x))
			return n, err
		case fieldValueFloat:
			x, n, err := consumeFloat(num, typ, b)
			v.Variant = FloatValue(x)
			return n, err
		case fieldValueBool:
			x, n, err := consumeVarint(num, typ, b)
			v.Variant = BoolValue(protowire.DecodeBool(x))
			return n, err
		case fieldValueString:
			x, n, err := consumeBytes(num, typ, b)
			v.Variant = StringValue(x)
			return n, err
		case fieldValueList, fieldValueWaterSource, fieldValueWaterTank:
			raw, n, err := consumeBytes(num, typ, b)
			if err != nil {
				return 0, err
			}
			switch num {
			case fieldValueList:
				v.Variant, err = unmarshalList(raw)
			case fieldValueWaterSource:
				v.Variant, err = unmarshalWaterSource(raw)
			default:
				v.Variant, err = unmarshalWaterTank(raw)
			}
			return n, err
		}
		return 0, nil
	})
	return v, err
}

func unmarshalList(b []byte) (ListValue, error) {
	list := ListValue{}
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldListItem {
			return 0, nil
		}
		raw, n, err := consumeBytes(num, typ, b)
		if err != nil {
			return 0, err
		}
		item, err := unmarshalValue(raw)
		if err != nil {
			return 0, err
		}
		list = append(list, item)
		return n, nil
	})
	return list, err
}

func unmarshalWaterSource(b []byte) (*WaterSourceState, error) {
	s := &WaterSourceState{}
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1, 4:
			x, n, err := consumeBytes(num, typ, b)
			if num == 1 {
				s.Name = string(x)
			} else {
				tank := string(x)
				s.SourceWaterTank = &tank
			}
			return n, err
		case 2:
			x, n, err := consumeVarint(num, typ, b)
			s.Pin = int32(x)
			return n, err
		case 3:
			x, n, err := consumeVarint(num, typ, b)
			s.Enabled = protowire.DecodeBool(x)
			return n, err
		}
		return 0, nil
	})
	return s, err
}

func unmarshalWaterTank(b []byte) (*WaterTankState, error) {
	s := &WaterTankState{}
	floats := []*float32{&s.VolumeFactor, &s.PressureFactor, &s.MinimumVolume, &s.MaxVolume,
		&s.ZeroVolumePressure, &s.Volume, &s.Pressure}
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 || num == 11:
			x, n, err := consumeBytes(num, typ, b)
			if num == 1 {
				s.Name = string(x)
			} else {
				source := string(x)
				s.WaterSource = &source
			}
			return n, err
		case num == 2:
			x, n, err := consumeVarint(num, typ, b)
			s.PressureSensorPin = int32(x)
			return n, err
		case num >= 3 && num <= 9:
			x, n, err := consumeFloat(num, typ, b)
			*floats[num-3] = x
			return n, err
		case num == 10 || num == 12:
			x, n, err := consumeVarint(num, typ, b)
			if num == 10 {
				s.Filling = protowire.DecodeBool(x)
			} else {
				s.Active = protowire.DecodeBool(x)
			}
			return n, err
		}
		return 0, nil
	})
	return s, err
}
