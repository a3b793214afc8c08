// Package gxserialrpc is an asynchronous RPC client for an embedded device
// connected to a serial port.
//
// Many goroutines can send requests over the same serial stream. Every
// request carries an id and the response is returned to the caller whose id
// it carries, in whatever order the device answers.
//
// Features
//
//   - Framing: [kind][length LE][payload] frames and '\n' terminated debug lines.
//   - Responses are normalized to plain Go values (int, float64, bool, string, []any, map[string]any).
//   - Device failures are *DeviceError values, local timeouts are ErrRequestTimeout
//     and cancellations are ErrCancelled.
//   - Failures that match no pending request go to a small drop-oldest ErrorQueue.
//   - One goroutine services the request deadlines.
//   - Structured logging with zerolog and Prometheus metrics.
//   - Settings from TOML or YAML files, environment variables or the Gurux XML settings format.
//
// # Construction
//
// Use NewGXSerialMedia to open a serial port through gxserial and NewGXClient
// to create the client. Any Media implementation can be used, for example
// an in-memory pipe in tests.
//
// Example
//
//	settings, err := gxserialrpc.LoadSettings("gxserialrpc.toml")
//	if err != nil {
//	    // handle settings error
//	}
//	media, err := gxserialrpc.NewGXSerialMedia(settings, log)
//	if err != nil {
//	    // handle port error
//	}
//	client := gxserialrpc.NewGXClient(media, gxserialrpc.WithSettings(settings), gxserialrpc.WithLogger(log))
//	defer client.Close()
//
//	if err := client.CreateWaterSource(ctx, "Compesa", 15, ""); err != nil {
//	    var de *gxserialrpc.DeviceError
//	    if errors.As(err, &de) {
//	        // the device refused the request
//	    }
//	}
//	names, err := client.GetWaterSourceList(ctx)
//
// # Errors without a request
//
// The device reports some failures with id 0, for example when it cannot
// decode a request or receives a truncated frame. They are read with
// ErrorResponse:
//
//	r, err := client.ErrorResponse(ctx)
//	// r.Err.Message == "Truncated message received"
//
// # Notes
//
// The zero value of GXClient is not ready for use; always construct via NewGXClient.
// Functions given to WithDebugLines are called from the read loop and must not block.
package gxserialrpc
