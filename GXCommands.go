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
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Gurux/gxserialrpc-go/api"
)

// OperationMode is the device operation mode.
type OperationMode int

const (
	// OperationModeManual leaves the water tanks to the user.
	OperationModeManual OperationMode = iota
	// OperationModeAuto fills the water tanks automatically.
	OperationModeAuto
)

// String returns the operation mode name.
func (m OperationMode) String() string {
	switch m {
	case OperationModeManual:
		return "Manual"
	case OperationModeAuto:
		return "Auto"
	default:
		return "OperationMode(" + strconv.Itoa(int(m)) + ")"
	}
}

// IOType is the type of a virtual IO.
type IOType int

const (
	// IOTypeDigital is a digital IO.
	IOTypeDigital IOType = iota
	// IOTypeAnalogic is an analog IO.
	IOTypeAnalogic
)

// isEmpty reports whether the value is empty: nil, "", 0, false or an empty
// list or map. Coercions return their default for an empty value.
func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case int:
		return v == 0
	case float64:
		return v == 0
	case bool:
		return !v
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}

// CoerceList returns the value as []any. An empty value is an empty list.
func CoerceList(value any) (any, error) {
	if isEmpty(value) {
		return []any{}, nil
	}
	switch v := value.(type) {
	case []any:
		return v, nil
	}
	return nil, unexpected("list", value)
}

// CoerceStrings returns the value as []string. An empty value is an empty list.
func CoerceStrings(value any) (any, error) {
	list, err := CoerceList(value)
	if err != nil {
		return nil, err
	}
	items := list.([]any)
	ret := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, unexpected("string", item)
		}
		ret[i] = s
	}
	return ret, nil
}

// CoerceInt returns the value as int. An empty value is 0.
func CoerceInt(value any) (any, error) {
	if isEmpty(value) {
		return 0, nil
	}
	switch v := value.(type) {
	case int:
		return v, nil
	case bool:
		return 1, nil
	}
	return nil, unexpected("int", value)
}

// CoerceMap returns the value as map[string]any. An empty value is nil.
func CoerceMap(value any) (any, error) {
	if isEmpty(value) {
		return map[string]any(nil), nil
	}
	switch v := value.(type) {
	case map[string]any:
		return v, nil
	}
	return nil, unexpected("map", value)
}

// CoerceOperationMode returns the value as OperationMode. An empty value is OperationModeManual.
func CoerceOperationMode(value any) (any, error) {
	v, err := CoerceInt(value)
	if err != nil {
		return nil, err
	}
	return OperationMode(v.(int)), nil
}

func unexpected(want string, value any) error {
	return fmt.Errorf("%w: want %s, got %T", ErrUnexpectedValue, want, value)
}

func (g *GXClient) exec(ctx context.Context, cmd api.Command) error {
	_, err := g.SendRequest(ctx, cmd, nil)
	return err
}

// CreateWaterSource registers a water source. waterTankName is optional.
func (g *GXClient) CreateWaterSource(ctx context.Context, name string, pin int, waterTankName string) error {
	return g.exec(ctx, api.CreateWaterSource{Name: name, Pin: int32(pin), WaterTankName: waterTankName})
}

// RemoveWaterSource unregisters a water source.
func (g *GXClient) RemoveWaterSource(ctx context.Context, name string) error {
	return g.exec(ctx, api.RemoveWaterSource{WaterSourceName: name})
}

// GetWaterSourceList returns the water source names.
func (g *GXClient) GetWaterSourceList(ctx context.Context) ([]string, error) {
	v, err := g.SendRequest(ctx, api.GetWaterSourceList{}, CoerceStrings)
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// GetWaterSource returns the state of a water source: name, pin, enabled and sourceWaterTank.
func (g *GXClient) GetWaterSource(ctx context.Context, name string) (map[string]any, error) {
	v, err := g.SendRequest(ctx, api.GetWaterSource{WaterSourceName: name}, CoerceMap)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

// SetWaterSourceState turns a water source on or off. force skips the device safety checks.
func (g *GXClient) SetWaterSourceState(ctx context.Context, name string, enabled, force bool) error {
	return g.exec(ctx, api.SetWaterSourceState{WaterSourceName: name, Enabled: enabled, Force: force})
}

// CreateWaterTank registers a water tank. waterSourceName is optional.
func (g *GXClient) CreateWaterTank(ctx context.Context, name string, pressureSensorPin int, volumeFactor, pressureFactor float32, waterSourceName string) error {
	return g.exec(ctx, api.CreateWaterTank{
		Name:              name,
		PressureSensorPin: int32(pressureSensorPin),
		VolumeFactor:      volumeFactor,
		PressureFactor:    pressureFactor,
		WaterSourceName:   waterSourceName,
	})
}

// RemoveWaterTank unregisters a water tank.
func (g *GXClient) RemoveWaterTank(ctx context.Context, name string) error {
	return g.exec(ctx, api.RemoveWaterTank{WaterTankName: name})
}

// GetWaterTankList returns the water tank names.
func (g *GXClient) GetWaterTankList(ctx context.Context) ([]string, error) {
	v, err := g.SendRequest(ctx, api.GetWaterTankList{}, CoerceStrings)
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// GetWaterTank returns the state of a water tank.
func (g *GXClient) GetWaterTank(ctx context.Context, name string) (map[string]any, error) {
	v, err := g.SendRequest(ctx, api.GetWaterTank{WaterTankName: name}, CoerceMap)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

// SetWaterTankMinimumVolume sets the volume where automatic filling starts.
func (g *GXClient) SetWaterTankMinimumVolume(ctx context.Context, name string, volume float32) error {
	return g.exec(ctx, api.SetWaterTankMinimumVolume{WaterTankName: name, Volume: volume})
}

// SetWaterTankMaxVolume sets the volume where filling stops.
func (g *GXClient) SetWaterTankMaxVolume(ctx context.Context, name string, volume float32) error {
	return g.exec(ctx, api.SetWaterTankMaxVolume{WaterTankName: name, Volume: volume})
}

// SetWaterTankZeroVolume sets the pressure of an empty water tank.
func (g *GXClient) SetWaterTankZeroVolume(ctx context.Context, name string, pressure float32) error {
	return g.exec(ctx, api.SetWaterTankZeroVolume{WaterTankName: name, Pressure: pressure})
}

// FillWaterTank starts or stops filling a water tank.
func (g *GXClient) FillWaterTank(ctx context.Context, name string, enabled, force bool) error {
	return g.exec(ctx, api.FillWaterTank{WaterTankName: name, Enabled: enabled, Force: force})
}

// SetOperationMode sets the operation mode.
func (g *GXClient) SetOperationMode(ctx context.Context, mode OperationMode) error {
	return g.exec(ctx, api.SetMode{Mode: int32(mode)})
}

// GetOperationMode returns the operation mode.
func (g *GXClient) GetOperationMode(ctx context.Context) (OperationMode, error) {
	v, err := g.SendRequest(ctx, api.GetMode{}, CoerceOperationMode)
	if err != nil {
		return OperationModeManual, err
	}
	return v.(OperationMode), nil
}

// CreateIO creates a virtual IO.
func (g *GXClient) CreateIO(ctx context.Context, pin int, typ IOType) error {
	return g.exec(ctx, api.CreateIO{Pin: int32(pin), Type: int32(typ)})
}

// SetIOValue sets the value of a virtual IO.
func (g *GXClient) SetIOValue(ctx context.Context, pin int, value int) error {
	return g.exec(ctx, api.SetIOValue{Pin: int32(pin), Value: int32(value)})
}

// GetIOValue returns the value of an IO.
func (g *GXClient) GetIOValue(ctx context.Context, pin int) (int, error) {
	v, err := g.SendRequest(ctx, api.GetIOValue{Pin: int32(pin)}, CoerceInt)
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// ClearIOs removes every IO.
func (g *GXClient) ClearIOs(ctx context.Context) error {
	return g.exec(ctx, api.ClearIOs{})
}

// GetFreeMemory returns the free device memory in bytes.
func (g *GXClient) GetFreeMemory(ctx context.Context) (int, error) {
	v, err := g.SendRequest(ctx, api.FreeMemory{}, CoerceInt)
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// Reset resets the device state.
func (g *GXClient) Reset(ctx context.Context) error {
	return g.exec(ctx, api.ResetAPI{})
}

// AdvanceClock moves the device clock forward. d is rounded down to whole seconds.
func (g *GXClient) AdvanceClock(ctx context.Context, d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("gxserialrpc: negative clock advance %v", d)
	}
	return g.exec(ctx, api.AdvanceClock{Seconds: uint32(d / time.Second)})
}
