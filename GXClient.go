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
	"bufio"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Gurux/gxserialrpc-go/api"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DecodeFailureMessage is the message of the failure reported when a response
// frame cannot be decoded.
const DecodeFailureMessage = "Failed to decode the response"

// Option configures a GXClient.
type Option func(*GXClient)

// WithLogger sets the logger. The default logger discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(g *GXClient) {
		g.log = log
	}
}

// WithMetrics sets the metrics. By default the metrics are registered on a private registry.
func WithMetrics(m *Metrics) Option {
	return func(g *GXClient) {
		g.metrics = m
	}
}

// WithSettings sets the timeouts, the settle delay and the error queue capacity.
func WithSettings(s Settings) Option {
	return func(g *GXClient) {
		g.settings = s
	}
}

// WithDebugLines sets a function that receives every device debug line.
// It is called from the read loop and must not block.
func WithDebugLines(fn func(line string)) Option {
	return func(g *GXClient) {
		g.debugLines = fn
	}
}

// GXClient sends requests to the device and correlates the responses.
// Many goroutines may use a client at the same time.
type GXClient struct {
	id       string
	media    Media
	settings Settings
	log      zerolog.Logger
	metrics  *Metrics
	// Printer for localized messages.
	p atomic.Pointer[message.Printer]

	ids        idGenerator
	queue      *ErrorQueue
	corr       *correlator
	debugLines func(line string)
	// timeout is the registration timeout in nanoseconds.
	timeout atomic.Int64

	mu     sync.Mutex
	opened bool
	closed atomic.Bool
	// done is closed by Close.
	done    chan struct{}
	stop    context.CancelFunc
	group   *errgroup.Group
	writeMu sync.Mutex
}

// NewGXClient creates a client for the media. The media is opened by Open or
// by the first request.
func NewGXClient(media Media, opts ...Option) *GXClient {
	g := &GXClient{
		id:       uuid.NewString(),
		media:    media,
		settings: DefaultSettings(),
		log:      zerolog.Nop(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.metrics == nil {
		g.metrics = NewMetrics(prometheus.NewRegistry())
	}
	g.log = g.log.With().Str("client", g.id).Logger()
	g.timeout.Store(int64(g.settings.RequestTimeout))
	g.queue = NewErrorQueue(g.settings.ErrorQueueCapacity)
	g.queue.onDrop = func(r Response) {
		g.metrics.ErrorQueueDropped.Inc()
		g.log.Warn().Uint16("id", r.ID).Err(r.Err).Msg("error queue full, dropped oldest failure")
	}
	g.corr = newCorrelator(g.queue, g.metrics, g.log)
	tag := language.AmericanEnglish
	if g.settings.Language != "" {
		if t, err := language.Parse(g.settings.Language); err == nil {
			tag = t
		}
	}
	g.p.Store(message.NewPrinter(tag))
	return g
}

// ID returns the client instance id used in the log.
func (g *GXClient) ID() string {
	return g.id
}

// Open opens the media once and waits the settle delay before the read loop starts.
// Calling Open again does nothing. Close ends the settle wait and Open returns ErrClosed.
func (g *GXClient) Open(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed.Load() {
		return ErrClosed
	}
	if g.opened {
		return nil
	}
	if err := g.media.Open(); err != nil {
		return err
	}
	g.log.Info().Str("media", g.media.String()).Msg("media opened")
	if d := g.settings.SettleDelay; d > 0 {
		g.log.Debug().Dur("delay", d).Msg(g.p.Load().Sprintf("msg.settling"))
		t := time.NewTimer(d)
		select {
		case <-t.C:
		case <-g.done:
			t.Stop()
			_ = g.media.Close()
			return ErrClosed
		case <-ctx.Done():
			t.Stop()
			_ = g.media.Close()
			return ctx.Err()
		}
	}
	loopCtx, stop := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(loopCtx)
	group.Go(func() error {
		return g.corr.run(gctx)
	})
	group.Go(g.readLoop)
	g.stop = stop
	g.group = group
	g.opened = true
	return nil
}

// SetTimeout sets the registration timeout of the following requests. 0 never evicts.
func (g *GXClient) SetTimeout(d time.Duration) {
	g.timeout.Store(int64(d))
}

// Timeout returns the registration timeout.
func (g *GXClient) Timeout() time.Duration {
	return time.Duration(g.timeout.Load())
}

// ErrorQueue returns the queue of failures without a pending request.
func (g *GXClient) ErrorQueue() *ErrorQueue {
	return g.queue
}

// ErrorResponse waits for the next failure without a pending request and
// marks it processed.
func (g *GXClient) ErrorResponse(ctx context.Context) (Response, error) {
	r, err := g.queue.Get(ctx)
	if err != nil {
		return Response{}, err
	}
	g.queue.TaskDone()
	return r, nil
}

// BuildRequest assigns a new request id to the command and returns the id and
// the encoded frame.
func (g *GXClient) BuildRequest(cmd api.Command) (uint16, []byte, error) {
	req := api.Request{ID: g.ids.next(), Command: cmd}
	ch, err := req.Channel()
	if err != nil {
		return 0, nil, err
	}
	payload, err := api.MarshalRequest(req)
	if err != nil {
		return 0, nil, err
	}
	frame, err := EncodeFrame(FrameKind(ch), payload)
	if err != nil {
		return 0, nil, err
	}
	return req.ID, frame, nil
}

// SendRequest sends the command and waits for the response.
//
// The result is the normalized response value passed through coercion, when it
// is not nil. A device failure is returned as *DeviceError. The wait ends with
// ErrRequestTimeout when the request or call timeout expires and with
// ErrCancelled when ctx is cancelled or the client is closed.
func (g *GXClient) SendRequest(ctx context.Context, cmd api.Command, coercion Coercion) (any, error) {
	id, frame, err := g.BuildRequest(cmd)
	if err != nil {
		return nil, err
	}
	call, err := g.SendPayload(ctx, frame, id, coercion)
	if err != nil {
		return nil, err
	}
	if d := g.settings.CallTimeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	return call.Wait(ctx)
}

// SendPayload writes data to the media unchanged and registers a pending
// request for id. Id 0 registers a new id from the request id sequence.
// The data is usually a frame, but it can be anything, for example a
// truncated frame.
func (g *GXClient) SendPayload(ctx context.Context, data []byte, id uint16, coercion Coercion) (*Call, error) {
	if err := g.Open(ctx); err != nil {
		return nil, err
	}
	if id == 0 {
		id = g.ids.next()
	}
	ch := "raw"
	if len(data) != 0 && (FrameKind(data[0]) == FramePrimary || FrameKind(data[0]) == FrameSecondary) {
		ch = FrameKind(data[0]).String()
	}
	call, err := g.corr.register(id, ch, g.Timeout(), coercion)
	if err != nil {
		return nil, err
	}
	g.writeMu.Lock()
	_, err = g.media.Write(data)
	g.writeMu.Unlock()
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrConnectionLost, err)
		g.corr.cancel(call, err)
		return nil, err
	}
	g.log.Debug().Uint16("id", id).Int("size", len(data)).Msg("request sent")
	return call, nil
}

// InFlight returns the number of pending requests.
func (g *GXClient) InFlight() int {
	return g.corr.inFlight()
}

func (g *GXClient) readLoop() error {
	r := bufio.NewReader(g.media)
	for {
		f, err := ReadFrame(r)
		if err != nil {
			if g.closed.Load() {
				return nil
			}
			err = fmt.Errorf("%w: %w", ErrConnectionLost, err)
			g.log.Error().Err(err).Msg(g.p.Load().Sprintf("msg.connection_lost"))
			g.corr.cancelAll(err)
			g.queue.Close()
			return err
		}
		g.metrics.frameRead(f.Kind)
		g.handleFrame(f)
	}
}

func (g *GXClient) handleFrame(f Frame) {
	switch f.Kind {
	case FrameDebug:
		line := string(f.Payload)
		g.log.Debug().Str("line", line).Msg(g.p.Load().Sprintf("msg.debug_line"))
		if g.debugLines != nil {
			g.debugLines(line)
		}
		return
	case FramePrimary, FrameSecondary:
	default:
		g.log.Warn().Stringer("kind", f.Kind).Int("size", len(f.Payload)).Msg("dropped frame of unknown kind")
		return
	}
	resp, err := api.UnmarshalResponse(api.Channel(f.Kind), f.Payload)
	if err != nil {
		g.log.Warn().Err(err).Stringer("kind", f.Kind).Msg("failed to decode response")
		resp = api.Response{
			Message: &api.Value{Variant: api.StringValue(DecodeFailureMessage)},
			Error:   api.ErrorFlag(true),
		}
	}
	n := Normalize(resp)
	switch g.corr.dispatch(n) {
	case dispatchQueued:
		g.log.Warn().Uint16("id", n.ID).Err(n.Err).Msg("device error without pending request")
	case dispatchResolved:
		g.log.Debug().Uint16("id", n.ID).Bool("failed", n.Failed()).Msg("response received")
	}
}

// Close stops the expiry loop, cancels every pending request with
// ErrCancelled and closes the media. Calling Close again does nothing.
func (g *GXClient) Close() error {
	if g.closed.Swap(true) {
		return nil
	}
	close(g.done)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stop != nil {
		g.stop()
	}
	if n := g.corr.cancelAll(ErrCancelled); n != 0 {
		g.log.Debug().Int("count", n).Msg("pending requests cancelled")
	}
	g.queue.Close()
	var err error
	if g.opened {
		err = g.media.Close()
		if werr := g.group.Wait(); werr != nil && !errors.Is(werr, ErrConnectionLost) {
			err = errors.Join(err, werr)
		}
	}
	g.log.Info().Msg("client closed")
	return err
}

// Localize messages for the specified language.
// No errors is returned if language is not supported.
func (g *GXClient) Localize(tag language.Tag) {
	g.p.Store(message.NewPrinter(tag))
	if l, ok := g.media.(interface{ Localize(language.Tag) }); ok {
		l.Localize(tag)
	}
}
