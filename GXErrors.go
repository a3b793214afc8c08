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
	"errors"
	"fmt"
)

var (
	// ErrRequestTimeout is returned when the device did not answer in time.
	ErrRequestTimeout = errors.New("gxserialrpc: request timed out")
	// ErrCancelled is returned when a pending request is cancelled by Close or by the caller.
	ErrCancelled = errors.New("gxserialrpc: request cancelled")
	// ErrClosed is returned by operations on a closed client or queue.
	ErrClosed = errors.New("gxserialrpc: closed")
	// ErrConnectionLost is returned to waiters when the read loop stops on a transport failure.
	ErrConnectionLost = errors.New("gxserialrpc: connection lost")
	// ErrDuplicateRequestID is returned when an id is registered while still in flight.
	ErrDuplicateRequestID = errors.New("gxserialrpc: request id already in flight")
	// ErrDeviceNotFound is returned when no serial port is configured or available.
	ErrDeviceNotFound = errors.New("gxserialrpc: device not found")
	// ErrInvalidSettings is returned by Settings.Validate.
	ErrInvalidSettings = errors.New("gxserialrpc: invalid settings")
	// ErrUnexpectedValue is returned when a response value cannot be coerced.
	ErrUnexpectedValue = errors.New("gxserialrpc: unexpected response value")

	// ErrDevice matches every device reported failure.
	ErrDevice = errors.New("gxserialrpc: device error")
	// ErrRuntime matches device runtime failures.
	ErrRuntime = errors.New("gxserialrpc: device runtime error")
	// ErrInvalidRequest matches device request validation failures.
	ErrInvalidRequest = errors.New("gxserialrpc: invalid request")
)

// ErrorKind classifies a device reported failure.
type ErrorKind int

const (
	// ErrorKindGeneric is used for unclassified failures and the boolean error flag.
	ErrorKindGeneric ErrorKind = iota
	// ErrorKindRuntime is a failure while the device executed the command.
	ErrorKindRuntime
	// ErrorKindInvalidRequest is a business rule validation failure.
	ErrorKindInvalidRequest
)

// String returns the error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindRuntime:
		return "RuntimeError"
	case ErrorKindInvalidRequest:
		return "InvalidRequest"
	default:
		return "Exception"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case ErrorKindRuntime:
		return ErrRuntime
	case ErrorKindInvalidRequest:
		return ErrInvalidRequest
	default:
		return ErrDevice
	}
}

// DeviceError is a failure reported by the device.
type DeviceError struct {
	// Kind of the failure.
	Kind ErrorKind
	// Message is the device error text.
	Message string
	// Arg is the optional error argument, for example a water tank name.
	Arg string
	// ID is the request id the device associated with the failure, 0 when unknown.
	ID uint16
}

// Error implements error.
func (e *DeviceError) Error() string {
	if e.Arg != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Arg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is reports whether target is the sentinel of this error kind or ErrDevice.
func (e *DeviceError) Is(target error) bool {
	return target == ErrDevice || target == e.Kind.sentinel()
}
