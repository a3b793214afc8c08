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
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gurux/gxserialrpc-go/api"
	"github.com/prometheus/client_golang/prometheus"
)

// pipeMedia is an in-memory Media. The device side is returned by newPipeMedia.
type pipeMedia struct {
	r     *io.PipeReader
	w     *io.PipeWriter
	opens atomic.Int32
	once  sync.Once
}

func (m *pipeMedia) Open() error {
	m.opens.Add(1)
	return nil
}

func (m *pipeMedia) Read(p []byte) (int, error) {
	return m.r.Read(p)
}

func (m *pipeMedia) Write(p []byte) (int, error) {
	return m.w.Write(p)
}

func (m *pipeMedia) Close() error {
	m.once.Do(func() {
		m.r.Close()
		m.w.Close()
	})
	return nil
}

func (m *pipeMedia) String() string {
	return "pipe"
}

// fakeDevice is the device end of a pipeMedia.
type fakeDevice struct {
	r   *bufio.Reader
	w   *io.PipeWriter
	wmu sync.Mutex
}

func newPipeMedia() (*pipeMedia, *fakeDevice) {
	toClient, fromDevice := io.Pipe()
	toDevice, fromClient := io.Pipe()
	return &pipeMedia{r: toClient, w: fromClient},
		&fakeDevice{r: bufio.NewReader(toDevice), w: fromDevice}
}

// readRequest reads the next request frame.
func (d *fakeDevice) readRequest() (FrameKind, api.Request, error) {
	f, err := ReadFrame(d.r)
	if err != nil {
		return 0, api.Request{}, err
	}
	req, err := api.UnmarshalRequest(api.Channel(f.Kind), f.Payload)
	return f.Kind, req, err
}

// readRaw reads exactly n bytes.
func (d *fakeDevice) readRaw(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := io.ReadFull(d.r, b)
	return b, err
}

func (d *fakeDevice) send(kind FrameKind, r api.Response) error {
	payload, err := api.MarshalResponse(r)
	if err != nil {
		return err
	}
	d.wmu.Lock()
	defer d.wmu.Unlock()
	return WriteFrame(d.w, kind, payload)
}

func (d *fakeDevice) sendRaw(b []byte) error {
	d.wmu.Lock()
	defer d.wmu.Unlock()
	_, err := d.w.Write(b)
	return err
}

func (d *fakeDevice) sendDebug(line string) error {
	return d.sendRaw(append(append([]byte{byte(FrameDebug)}, line...), '\n'))
}

// sendFailure sends an error response the way the firmware does: the
// boolean flag and the text in the message field.
func (d *fakeDevice) sendFailure(id uint16, text string) error {
	return d.send(FramePrimary, api.Response{
		ID:      id,
		Message: &api.Value{Variant: api.StringValue(text)},
		Error:   api.ErrorFlag(true),
	})
}

// serve answers every request with handle until the pipe is closed.
func (d *fakeDevice) serve(handle func(api.Request) api.Response) {
	go func() {
		for {
			f, err := ReadFrame(d.r)
			if err != nil {
				return
			}
			req, err := api.UnmarshalRequest(api.Channel(f.Kind), f.Payload)
			if err != nil {
				err = d.sendFailure(0, "Failed to decode the request")
			} else {
				resp := handle(req)
				resp.ID = req.ID
				err = d.send(f.Kind, resp)
			}
			if err != nil {
				return
			}
		}
	}()
}

func (d *fakeDevice) close() {
	d.w.Close()
}

func testSettings() Settings {
	s := DefaultSettings()
	s.SettleDelay = 0
	s.RequestTimeout = 5 * time.Second
	return s
}

// newTestClient returns an open client connected to a fake device.
func newTestClient(t *testing.T, s Settings, opts ...Option) (*GXClient, *fakeDevice, *pipeMedia) {
	t.Helper()
	media, dev := newPipeMedia()
	opts = append([]Option{WithSettings(s), WithMetrics(NewMetrics(prometheus.NewRegistry()))}, opts...)
	c := NewGXClient(media, opts...)
	if err := c.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		c.Close()
		dev.close()
	})
	return c, dev, media
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// waitFor polls cond until it is true or a second has passed.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
