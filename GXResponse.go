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
	"github.com/Gurux/gxserialrpc-go/api"
)

// Response is a normalized device response.
//
// Value holds only plain Go values: int, float64, bool, string, []any,
// map[string]any or nil. A success without a message field has the value "".
// Err is set when the device reported a failure.
type Response struct {
	// ID of the request. 0 when the device could not associate an id.
	ID uint16
	// Value is the flattened message field of a successful response.
	Value any
	// Err is the device failure.
	Err *DeviceError
	// Fields holds every populated top level field by name, flattened.
	Fields map[string]any
}

// Failed returns true if the device reported a failure.
func (r Response) Failed() bool {
	return r.Err != nil
}

// Normalize flattens a decoded response and classifies it as success or failure.
func Normalize(r api.Response) Response {
	ret := Response{Fields: map[string]any{}}
	var indicator api.ErrorIndicator
	for _, f := range r.Fields() {
		switch v := f.Value.(type) {
		case uint16:
			ret.ID = v
			ret.Fields[f.Name] = int(v)
		case *api.Value:
			ret.Fields[f.Name] = flatten(*v)
		case api.ErrorIndicator:
			indicator = v
			ret.Fields[f.Name] = flattenError(v)
		}
	}
	message, ok := ret.Fields["message"]
	if !ok {
		message = ""
	}
	switch e := indicator.(type) {
	case api.ErrorFlag:
		if e {
			text, _ := message.(string)
			ret.Err = &DeviceError{Kind: ErrorKindGeneric, Message: text, ID: ret.ID}
			return ret
		}
	case api.ErrorRecord:
		text := e.Message
		if text == "" {
			text, _ = message.(string)
		}
		ret.Err = &DeviceError{Kind: errorKindOf(e.Type), Message: text, Arg: e.Arg, ID: ret.ID}
		return ret
	}
	ret.Value = message
	return ret
}

func errorKindOf(t int32) ErrorKind {
	switch ErrorKind(t) {
	case ErrorKindRuntime, ErrorKindInvalidRequest:
		return ErrorKind(t)
	default:
		return ErrorKindGeneric
	}
}

func flattenError(e api.ErrorIndicator) any {
	switch e := e.(type) {
	case api.ErrorFlag:
		return bool(e)
	case api.ErrorRecord:
		return map[string]any{"type": int(e.Type), "message": e.Message, "arg": e.Arg}
	}
	return nil
}

// flatten unwraps a value to its populated member. State records are
// returned as maps with every field present.
func flatten(v api.Value) any {
	switch x := v.Variant.(type) {
	case api.IntValue:
		return int(x)
	case api.FloatValue:
		return float64(x)
	case api.BoolValue:
		return bool(x)
	case api.StringValue:
		return string(x)
	case api.ListValue:
		list := make([]any, len(x))
		for i, item := range x {
			list[i] = flatten(item)
		}
		return list
	case *api.WaterSourceState:
		return map[string]any{
			"name":            x.Name,
			"pin":             int(x.Pin),
			"enabled":         x.Enabled,
			"sourceWaterTank": optional(x.SourceWaterTank),
		}
	case *api.WaterTankState:
		return map[string]any{
			"name":               x.Name,
			"pressureSensorPin":  int(x.PressureSensorPin),
			"volumeFactor":       float64(x.VolumeFactor),
			"pressureFactor":     float64(x.PressureFactor),
			"minimumVolume":      float64(x.MinimumVolume),
			"maxVolume":          float64(x.MaxVolume),
			"zeroVolumePressure": float64(x.ZeroVolumePressure),
			"volume":             float64(x.Volume),
			"pressure":           float64(x.Pressure),
			"filling":            x.Filling,
			"waterSource":        optional(x.WaterSource),
			"active":             x.Active,
		}
	}
	return nil
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
