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

const fieldRequestID protowire.Number = 1

// Command is one device operation with its parameters.
type Command interface {
	// CommandName returns the schema name of the command.
	CommandName() string
	// Args returns the command parameters by name.
	Args() Args
}

// Request is one command with its request id.
type Request struct {
	// ID correlates the response. 0 is reserved.
	ID      uint16
	Command Command
}

// Channel returns the channel of the request command.
func (r Request) Channel() (Channel, error) {
	s, err := specOf(r.Command)
	if err != nil {
		return 0, err
	}
	return s.Channel, nil
}

// MarshalRequest encodes the request. The command is always present on the
// wire, also when it has no parameters.
func MarshalRequest(r Request) ([]byte, error) {
	if r.Command == nil {
		return nil, fmt.Errorf("%w: nil command", ErrUnknownCommand)
	}
	s, err := specOf(r.Command)
	if err != nil {
		return nil, err
	}
	params, err := appendParams(nil, s, r.Command.Args())
	if err != nil {
		return nil, err
	}
	var b []byte
	if r.ID != 0 {
		b = appendUint32(b, fieldRequestID, uint32(r.ID))
	}
	return appendMessage(b, s.Number, params), nil
}

// UnmarshalRequest decodes a request of the given channel.
func UnmarshalRequest(ch Channel, b []byte) (Request, error) {
	var (
		req   Request
		found bool
	)
	commands := specsByWire[ch]
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == fieldRequestID {
			v, n, err := consumeVarint(num, typ, b)
			req.ID = uint16(v)
			return n, err
		}
		s, ok := commands[num]
		if !ok {
			return 0, nil
		}
		raw, n, err := consumeBytes(num, typ, b)
		if err != nil {
			return 0, err
		}
		args, err := consumeParams(s, raw)
		if err != nil {
			return 0, err
		}
		req.Command = s.Build(args)
		found = true
		return n, nil
	})
	if err != nil {
		return Request{}, err
	}
	if !found {
		return Request{}, fmt.Errorf("%w: no %s command in request", ErrUnknownCommand, ch)
	}
	return req, nil
}

func appendParams(b []byte, s Spec, args Args) ([]byte, error) {
	for _, p := range s.Params {
		v, ok := args[p.Name]
		if !ok {
			continue
		}
		var typeOK bool
		switch p.Kind {
		case KindString:
			var x string
			if x, typeOK = v.(string); typeOK && x != "" {
				b = appendString(b, p.Number, x)
			}
		case KindInt32:
			var x int32
			if x, typeOK = v.(int32); typeOK && x != 0 {
				b = appendInt32(b, p.Number, x)
			}
		case KindUint32:
			var x uint32
			if x, typeOK = v.(uint32); typeOK && x != 0 {
				b = appendUint32(b, p.Number, x)
			}
		case KindFloat:
			var x float32
			if x, typeOK = v.(float32); typeOK && x != 0 {
				b = appendFloat(b, p.Number, x)
			}
		case KindBool:
			var x bool
			if x, typeOK = v.(bool); typeOK && x {
				b = appendBool(b, p.Number, x)
			}
		}
		if !typeOK {
			return nil, fmt.Errorf("api: %s.%s: unexpected type %T", s.Name, p.Name, v)
		}
	}
	return b, nil
}

func consumeParams(s Spec, b []byte) (Args, error) {
	args := Args{}
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var p *Param
		for i := range s.Params {
			if s.Params[i].Number == num {
				p = &s.Params[i]
				break
			}
		}
		if p == nil {
			return 0, nil
		}
		switch p.Kind {
		case KindString:
			v, n, err := consumeBytes(num, typ, b)
			args[p.Name] = string(v)
			return n, err
		case KindFloat:
			v, n, err := consumeFloat(num, typ, b)
			args[p.Name] = v
			return n, err
		default:
			v, n, err := consumeVarint(num, typ, b)
			switch p.Kind {
			case KindInt32:
				args[p.Name] = int32(v)
			case KindUint32:
				args[p.Name] = uint32(v)
			case KindBool:
				args[p.Name] = protowire.DecodeBool(v)
			}
			return n, err
		}
	})
	return args, err
}

// Primary channel commands.

// CreateWaterSource registers a water source on a digital pin, optionally fed by a water tank.
type CreateWaterSource struct {
	Name          string
	Pin           int32
	WaterTankName string
}

// RemoveWaterSource unregisters a water source.
type RemoveWaterSource struct {
	WaterSourceName string
}

// GetWaterSourceList returns the names of the registered water sources.
type GetWaterSourceList struct{}

// GetWaterSource returns the state of one water source.
type GetWaterSource struct {
	WaterSourceName string
}

// CreateWaterTank registers a water tank measured by a pressure sensor.
type CreateWaterTank struct {
	Name                  string
	PressureSensorPin     int32
	VolumeFactor          float32
	PressureFactor        float32
	WaterSourceName       string
	PressureChangingValue float32
}

// RemoveWaterTank unregisters a water tank.
type RemoveWaterTank struct {
	WaterTankName string
}

// GetWaterTankList returns the names of the registered water tanks.
type GetWaterTankList struct{}

// GetWaterTank returns the state of one water tank.
type GetWaterTank struct {
	WaterTankName string
}

// SetWaterTankMinimumVolume sets the volume below which the tank is filled.
type SetWaterTankMinimumVolume struct {
	WaterTankName string
	Volume        float32
}

// SetWaterTankMaxVolume sets the volume where filling stops.
type SetWaterTankMaxVolume struct {
	WaterTankName string
	Volume        float32
}

// SetWaterTankZeroVolume sets the pressure read when the tank is empty.
type SetWaterTankZeroVolume struct {
	WaterTankName string
	Pressure      float32
}

// SetMode sets the operation mode.
type SetMode struct {
	Mode int32
}

// GetMode returns the operation mode.
type GetMode struct{}

// SetWaterSourceState turns a water source on or off.
type SetWaterSourceState struct {
	WaterSourceName string
	Enabled         bool
	Force           bool
}

// FillWaterTank starts or stops filling a water tank.
type FillWaterTank struct {
	WaterTankName string
	Enabled       bool
	Force         bool
}

// Secondary channel commands.

// CreateIO creates a virtual IO on a pin.
type CreateIO struct {
	Pin  int32
	Type int32
}

// SetIOValue sets the value of a virtual IO.
type SetIOValue struct {
	Pin   int32
	Value int32
}

// GetIOValue reads an IO value.
type GetIOValue struct {
	Pin int32
}

// ClearIOs removes every IO.
type ClearIOs struct{}

// FreeMemory returns the free RAM of the device in bytes.
type FreeMemory struct{}

// ResetAPI resets the device state.
type ResetAPI struct{}

// AdvanceClock moves the device clock forward.
type AdvanceClock struct {
	Seconds uint32
}

func (CreateWaterSource) CommandName() string         { return "createWaterSource" }
func (RemoveWaterSource) CommandName() string         { return "removeWaterSource" }
func (GetWaterSourceList) CommandName() string        { return "getWaterSourceList" }
func (GetWaterSource) CommandName() string            { return "getWaterSource" }
func (CreateWaterTank) CommandName() string           { return "createWaterTank" }
func (RemoveWaterTank) CommandName() string           { return "removeWaterTank" }
func (GetWaterTankList) CommandName() string          { return "getWaterTankList" }
func (GetWaterTank) CommandName() string              { return "getWaterTank" }
func (SetWaterTankMinimumVolume) CommandName() string { return "setWaterTankMinimumVolume" }
func (SetWaterTankMaxVolume) CommandName() string     { return "setWaterTankMaxVolume" }
func (SetWaterTankZeroVolume) CommandName() string    { return "setWaterTankZeroVolume" }
func (SetMode) CommandName() string                   { return "setMode" }
func (GetMode) CommandName() string                   { return "getMode" }
func (SetWaterSourceState) CommandName() string       { return "setWaterSourceState" }
func (FillWaterTank) CommandName() string             { return "fillWaterTank" }
func (CreateIO) CommandName() string                  { return "createIO" }
func (SetIOValue) CommandName() string                { return "setIOValue" }
func (GetIOValue) CommandName() string                { return "getIOValue" }
func (ClearIOs) CommandName() string                  { return "clearIOs" }
func (FreeMemory) CommandName() string                { return "freeMemory" }
func (ResetAPI) CommandName() string                  { return "resetAPI" }
func (AdvanceClock) CommandName() string              { return "advanceClock" }

func (c CreateWaterSource) Args() Args {
	return Args{"name": c.Name, "pin": c.Pin, "waterTankName": c.WaterTankName}
}
func (c RemoveWaterSource) Args() Args { return Args{"waterSourceName": c.WaterSourceName} }
func (GetWaterSourceList) Args() Args  { return Args{} }
func (c GetWaterSource) Args() Args    { return Args{"waterSourceName": c.WaterSourceName} }
func (c CreateWaterTank) Args() Args {
	return Args{
		"name":                  c.Name,
		"pressureSensorPin":     c.PressureSensorPin,
		"volumeFactor":          c.VolumeFactor,
		"pressureFactor":        c.PressureFactor,
		"waterSourceName":       c.WaterSourceName,
		"pressureChangingValue": c.PressureChangingValue,
	}
}
func (c RemoveWaterTank) Args() Args { return Args{"waterTankName": c.WaterTankName} }
func (GetWaterTankList) Args() Args  { return Args{} }
func (c GetWaterTank) Args() Args    { return Args{"waterTankName": c.WaterTankName} }
func (c SetWaterTankMinimumVolume) Args() Args {
	return Args{"waterTankName": c.WaterTankName, "volume": c.Volume}
}
func (c SetWaterTankMaxVolume) Args() Args {
	return Args{"waterTankName": c.WaterTankName, "volume": c.Volume}
}
func (c SetWaterTankZeroVolume) Args() Args {
	return Args{"waterTankName": c.WaterTankName, "pressure": c.Pressure}
}
func (c SetMode) Args() Args { return Args{"mode": c.Mode} }
func (GetMode) Args() Args   { return Args{} }
func (c SetWaterSourceState) Args() Args {
	return Args{"waterSourceName": c.WaterSourceName, "enabled": c.Enabled, "force": c.Force}
}
func (c FillWaterTank) Args() Args {
	return Args{"waterTankName": c.WaterTankName, "enabled": c.Enabled, "force": c.Force}
}
func (c CreateIO) Args() Args     { return Args{"pin": c.Pin, "type": c.Type} }
func (c SetIOValue) Args() Args   { return Args{"pin": c.Pin, "value": c.Value} }
func (c GetIOValue) Args() Args   { return Args{"pin": c.Pin} }
func (ClearIOs) Args() Args       { return Args{} }
func (FreeMemory) Args() Args     { return Args{} }
func (ResetAPI) Args() Args       { return Args{} }
func (c AdvanceClock) Args() Args { return Args{"seconds": c.Seconds} }

func init() {
	register(Spec{Name: "createWaterSource", Channel: ChannelPrimary, Number: 2,
		Params: []Param{{1, "name", KindString, false}, {2, "pin", KindInt32, false}, {3, "waterTankName", KindString, true}},
		build: func(a Args) Command {
			return CreateWaterSource{Name: a.String("name"), Pin: a.Int32("pin"), WaterTankName: a.String("waterTankName")}
		}})
	register(Spec{Name: "removeWaterSource", Channel: ChannelPrimary, Number: 3,
		Params: []Param{{1, "waterSourceName", KindString, false}},
		build:  func(a Args) Command { return RemoveWaterSource{WaterSourceName: a.String("waterSourceName")} }})
	register(Spec{Name: "getWaterSourceList", Channel: ChannelPrimary, Number: 4,
		build: func(Args) Command { return GetWaterSourceList{} }})
	register(Spec{Name: "getWaterSource", Channel: ChannelPrimary, Number: 5,
		Params: []Param{{1, "waterSourceName", KindString, false}},
		build:  func(a Args) Command { return GetWaterSource{WaterSourceName: a.String("waterSourceName")} }})
	register(Spec{Name: "createWaterTank", Channel: ChannelPrimary, Number: 6,
		Params: []Param{
			{1, "name", KindString, false},
			{2, "pressureSensorPin", KindInt32, false},
			{3, "volumeFactor", KindFloat, false},
			{4, "pressureFactor", KindFloat, false},
			{5, "waterSourceName", KindString, true},
			{6, "pressureChangingValue", KindFloat, true},
		},
		build: func(a Args) Command {
			return CreateWaterTank{
				Name:                  a.String("name"),
				PressureSensorPin:     a.Int32("pressureSensorPin"),
				VolumeFactor:          a.Float32("volumeFactor"),
				PressureFactor:        a.Float32("pressureFactor"),
				WaterSourceName:       a.String("waterSourceName"),
				PressureChangingValue: a.Float32("pressureChangingValue"),
			}
		}})
	register(Spec{Name: "removeWaterTank", Channel: ChannelPrimary, Number: 7,
		Params: []Param{{1, "waterTankName", KindString, false}},
		build:  func(a Args) Command { return RemoveWaterTank{WaterTankName: a.String("waterTankName")} }})
	register(Spec{Name: "getWaterTankList", Channel: ChannelPrimary, Number: 8,
		build: func(Args) Command { return GetWaterTankList{} }})
	register(Spec{Name: "getWaterTank", Channel: ChannelPrimary, Number: 9,
		Params: []Param{{1, "waterTankName", KindString, false}},
		build:  func(a Args) Command { return GetWaterTank{WaterTankName: a.String("waterTankName")} }})
	register(Spec{Name: "setWaterTankMinimumVolume", Channel: ChannelPrimary, Number: 10,
		Params: []Param{{1, "waterTankName", KindString, false}, {2, "volume", KindFloat, false}},
		build: func(a Args) Command {
			return SetWaterTankMinimumVolume{WaterTankName: a.String("waterTankName"), Volume: a.Float32("volume")}
		}})
	register(Spec{Name: "setWaterTankMaxVolume", Channel: ChannelPrimary, Number: 11,
		Params: []Param{{1, "waterTankName", KindString, false}, {2, "volume", KindFloat, false}},
		build: func(a Args) Command {
			return SetWaterTankMaxVolume{WaterTankName: a.String("waterTankName"), Volume: a.Float32("volume")}
		}})
	register(Spec{Name: "setWaterTankZeroVolume", Channel: ChannelPrimary, Number: 12,
		Params: []Param{{1, "waterTankName", KindString, false}, {2, "pressure", KindFloat, false}},
		build: func(a Args) Command {
			return SetWaterTankZeroVolume{WaterTankName: a.String("waterTankName"), Pressure: a.Float32("pressure")}
		}})
	register(Spec{Name: "setMode", Channel: ChannelPrimary, Number: 13,
		Params: []Param{{1, "mode", KindInt32, false}},
		build:  func(a Args) Command { return SetMode{Mode: a.Int32("mode")} }})
	register(Spec{Name: "getMode", Channel: ChannelPrimary, Number: 14,
		build: func(Args) Command { return GetMode{} }})
	register(Spec{Name: "setWaterSourceState", Channel: ChannelPrimary, Number: 15,
		Params: []Param{{1, "waterSourceName", KindString, false}, {2, "enabled", KindBool, false}, {3, "force", KindBool, true}},
		build: func(a Args) Command {
			return SetWaterSourceState{WaterSourceName: a.String("waterSourceName"), Enabled: a.Bool("enabled"), Force: a.Bool("force")}
		}})
	register(Spec{Name: "fillWaterTank", Channel: ChannelPrimary, Number: 16,
		Params: []Param{{1, "waterTankName", KindString, false}, {2, "enabled", KindBool, false}, {3, "force", KindBool, true}},
		build: func(a Args) Command {
			return FillWaterTank{WaterTankName: a.String("waterTankName"), Enabled: a.Bool("enabled"), Force: a.Bool("force")}
		}})

	register(Spec{Name: "createIO", Channel: ChannelSecondary, Number: 2,
		Params: []Param{{1, "pin", KindInt32, false}, {2, "type", KindInt32, true}},
		build:  func(a Args) Command { return CreateIO{Pin: a.Int32("pin"), Type: a.Int32("type")} }})
	register(Spec{Name: "setIOValue", Channel: ChannelSecondary, Number: 3,
		Params: []Param{{1, "pin", KindInt32, false}, {2, "value", KindInt32, false}},
		build:  func(a Args) Command { return SetIOValue{Pin: a.Int32("pin"), Value: a.Int32("value")} }})
	register(Spec{Name: "getIOValue", Channel: ChannelSecondary, Number: 4,
		Params: []Param{{1, "pin", KindInt32, false}},
		build:  func(a Args) Command { return GetIOValue{Pin: a.Int32("pin")} }})
	register(Spec{Name: "clearIOs", Channel: ChannelSecondary, Number: 5,
		build: func(Args) Command { return ClearIOs{} }})
	register(Spec{Name: "freeMemory", Channel: ChannelSecondary, Number: 6,
		build: func(Args) Command { return FreeMemory{} }})
	register(Spec{Name: "resetAPI", Channel: ChannelSecondary, Number: 7,
		build: func(Args) Command { return ResetAPI{} }})
	register(Spec{Name: "advanceClock", Channel: ChannelSecondary, Number: 8,
		Params: []Param{{1, "seconds", KindUint32, false}},
		build:  func(a Args) Command { return AdvanceClock{Seconds: a.Uint32("seconds")} }})
}
