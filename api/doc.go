// Package api implements the message codec of the device RPC surface.
//
// Requests and responses use the protobuf wire format. The schema is fixed
// and small, so it is encoded and decoded directly with protowire instead of
// generated code.
//
// # Requests
//
// Every command is a plain struct (CreateWaterSource, GetIOValue, ...). A
// Request pairs one command with a request id. The command decides the
// channel: primary commands travel in frame kind 1, test and diagnostic
// commands in frame kind 2.
//
//	payload, err := api.MarshalRequest(api.Request{
//	    ID:      7,
//	    Command: api.CreateWaterSource{Name: "Compesa", Pin: 15},
//	})
//
// Commands can also be built by name through Lookup, which is used by tools
// that take the command from the command line.
//
// # Responses
//
// A Response carries an id, an optional message Value and an optional error
// indicator. Value is the one-of wrapper of the schema; its Variant holds the
// populated member (IntValue, FloatValue, BoolValue, StringValue, ListValue,
// *WaterSourceState or *WaterTankState), or nil when nothing is populated.
//
// The error indicator is either the legacy boolean ErrorFlag or the
// structured ErrorRecord. They share field number 3 and are told apart by
// the wire type.
package api
