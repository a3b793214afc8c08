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
	"fmt"
	"sort"
	"strconv"

	"google.golang.org/protobuf/encoding/protowire"
)

// Channel selects the message family and the frame kind it travels in.
type Channel uint8

const (
	// ChannelPrimary carries Request and Response messages.
	ChannelPrimary Channel = 1
	// ChannelSecondary carries the test and diagnostic messages.
	ChannelSecondary Channel = 2
)

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case ChannelPrimary:
		return "primary"
	case ChannelSecondary:
		return "secondary"
	default:
		return "channel(" + strconv.Itoa(int(c)) + ")"
	}
}

// ErrUnknownCommand is returned for command names or numbers outside the schema.
var ErrUnknownCommand = errors.New("api: unknown command")

// ParamKind is the scalar type of a command parameter.
type ParamKind int

const (
	// KindString is a length delimited UTF-8 string.
	KindString ParamKind = iota
	// KindInt32 is a varint encoded int32.
	KindInt32
	// KindUint32 is a varint encoded uint32.
	KindUint32
	// KindFloat is a fixed32 float.
	KindFloat
	// KindBool is a varint encoded bool.
	KindBool
)

// String returns the parameter type name.
func (k ParamKind) String() string {
	switch k {
	case KindInt32:
		return "int32"
	case KindUint32:
		return "uint32"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "string"
	}
}

// Param describes one command parameter.
type Param struct {
	Number   protowire.Number
	Name     string
	Kind     ParamKind
	Optional bool
}

// Spec describes one command of the schema.
type Spec struct {
	Name    string
	Channel Channel
	// Number is the field number of the command inside the request one-of.
	Number protowire.Number
	Params []Param
	build  func(a Args) Command
}

// Build returns the command for the given arguments. Missing arguments are zero.
func (s Spec) Build(a Args) Command {
	return s.build(a)
}

// ParseArgs converts textual name=value arguments into typed Args.
// Every parameter that is not optional must be present.
func (s Spec) ParseArgs(values map[string]string) (Args, error) {
	args := Args{}
	for _, p := range s.Params {
		raw, ok := values[p.Name]
		if !ok {
			if !p.Optional {
				return nil, fmt.Errorf("%s: missing argument %q", s.Name, p.Name)
			}
			continue
		}
		v, err := parseParam(p.Kind, raw)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %q: %w", s.Name, p.Name, err)
		}
		args[p.Name] = v
	}
	for name := range values {
		if _, ok := s.param(name); !ok {
			return nil, fmt.Errorf("%s: unknown argument %q", s.Name, name)
		}
	}
	return args, nil
}

func (s Spec) param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

func parseParam(kind ParamKind, raw string) (any, error) {
	switch kind {
	case KindInt32:
		v, err := strconv.ParseInt(raw, 10, 32)
		return int32(v), err
	case KindUint32:
		v, err := strconv.ParseUint(raw, 10, 32)
		return uint32(v), err
	case KindFloat:
		v, err := strconv.ParseFloat(raw, 32)
		return float32(v), err
	case KindBool:
		return strconv.ParseBool(raw)
	default:
		return raw, nil
	}
}

// Args holds command parameters by name.
type Args map[string]any

// String returns the named string argument or "".
func (a Args) String(name string) string {
	v, _ := a[name].(string)
	return v
}

// Int32 returns the named int32 argument or 0.
func (a Args) Int32(name string) int32 {
	v, _ := a[name].(int32)
	return v
}

// Uint32 returns the named uint32 argument or 0.
func (a Args) Uint32(name string) uint32 {
	v, _ := a[name].(uint32)
	return v
}

// Float32 returns the named float argument or 0.
func (a Args) Float32(name string) float32 {
	v, _ := a[name].(float32)
	return v
}

// Bool returns the named bool argument or false.
func (a Args) Bool(name string) bool {
	v, _ := a[name].(bool)
	return v
}

var (
	specsByName = map[string]Spec{}
	specsByWire = map[Channel]map[protowire.Number]Spec{}
)

func register(s Spec) {
	specsByName[s.Name] = s
	if specsByWire[s.Channel] == nil {
		specsByWire[s.Channel] = map[protowire.Number]Spec{}
	}
	specsByWire[s.Channel][s.Number] = s
}

// Lookup returns the command description by name, for example "createWaterSource".
func Lookup(name string) (Spec, bool) {
	s, ok := specsByName[name]
	return s, ok
}

// Specs returns every command description sorted by channel and number.
func Specs() []Spec {
	ret := make([]Spec, 0, len(specsByName))
	for _, s := range specsByName {
		ret = append(ret, s)
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Channel != ret[j].Channel {
			return ret[i].Channel < ret[j].Channel
		}
		return ret[i].Number < ret[j].Number
	})
	return ret
}

func specOf(c Command) (Spec, error) {
	s, ok := specsByName[c.CommandName()]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnknownCommand, c.CommandName())
	}
	return s, nil
}
