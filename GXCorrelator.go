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
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Coercion converts a normalized success value into the value returned to the caller.
type Coercion func(value any) (any, error)

// Call is a pending request. Exactly one of dispatch, timeout or cancel resolves it.
type Call struct {
	// ID is the request id.
	ID uint16

	channel  string
	coercion Coercion
	started  time.Time
	deadline time.Time
	// index in the deadline heap, -1 when not scheduled.
	index int
	owner *correlator

	done  chan struct{}
	value any
	err   error
}

// Done is closed when the call is resolved.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Result returns the call result. It is valid after Done is closed.
func (c *Call) Result() (any, error) {
	<-c.done
	return c.value, c.err
}

// Wait waits until the call is resolved or ctx is done. When ctx ends first the
// call is cancelled with ErrRequestTimeout on deadline and ErrCancelled otherwise.
func (c *Call) Wait(ctx context.Context) (any, error) {
	select {
	case <-c.done:
	case <-ctx.Done():
		err := ErrCancelled
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = ErrRequestTimeout
		}
		c.owner.cancel(c, err)
		<-c.done
	}
	return c.value, c.err
}

// deadlineHeap is a min-heap of calls ordered by deadline.
type deadlineHeap []*Call

func (h deadlineHeap) Len() int           { return len(h) }
func (h deadlineHeap) Less(i, j int) bool { return h[i].deadline.Before(h[j].deadline) }
func (h deadlineHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *deadlineHeap) Push(x any) {
	c := x.(*Call)
	c.index = len(*h)
	*h = append(*h, c)
}

func (h *deadlineHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	c.index = -1
	*h = old[:n-1]
	return c
}

type dispatchResult int

const (
	dispatchResolved dispatchResult = iota
	dispatchQueued
	dispatchOrphaned
)

// correlator is the table of in-flight requests.
type correlator struct {
	mu        sync.Mutex
	pending   map[uint16]*Call
	deadlines deadlineHeap
	// closedErr is returned by register after cancelAll.
	closedErr error
	// wake tells the expiry loop that the earliest deadline changed.
	wake chan struct{}

	queue   *ErrorQueue
	metrics *Metrics
	log     zerolog.Logger
	now     func() time.Time
}

func newCorrelator(queue *ErrorQueue, metrics *Metrics, log zerolog.Logger) *correlator {
	return &correlator{
		pending: make(map[uint16]*Call),
		wake:    make(chan struct{}, 1),
		queue:   queue,
		metrics: metrics,
		log:     log,
		now:     time.Now,
	}
}

// register adds a pending request. A timeout of 0 never expires.
func (c *correlator) register(id uint16, ch string, timeout time.Duration, coercion Coercion) (*Call, error) {
	now := c.now()
	call := &Call{
		ID:       id,
		channel:  ch,
		coercion: coercion,
		started:  now,
		index:    -1,
		owner:    c,
		done:     make(chan struct{}),
	}
	c.mu.Lock()
	if c.closedErr != nil {
		c.mu.Unlock()
		return nil, c.closedErr
	}
	if _, ok := c.pending[id]; ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %d", ErrDuplicateRequestID, id)
	}
	c.pending[id] = call
	first := false
	if timeout > 0 {
		call.deadline = now.Add(timeout)
		heap.Push(&c.deadlines, call)
		first = call.index == 0
	}
	c.mu.Unlock()
	c.metrics.RequestsInFlight.Inc()
	if first {
		select {
		case c.wake <- struct{}{}:
		default:
		}
	}
	return call, nil
}

// take removes the call of id. Only the caller that takes a call may resolve it.
// Must be called with the lock held.
func (c *correlator) take(id uint16) *Call {
	call, ok := c.pending[id]
	if !ok {
		return nil
	}
	delete(c.pending, id)
	if call.index >= 0 {
		heap.Remove(&c.deadlines, call.index)
	}
	return call
}

func (c *correlator) resolve(call *Call, value any, err error, outcome string) {
	call.value = value
	call.err = err
	close(call.done)
	c.metrics.requestDone(call.channel, outcome, c.now().Sub(call.started))
}

// dispatch resolves the pending request of resp, or routes an unmatched response.
func (c *correlator) dispatch(resp Response) dispatchResult {
	c.mu.Lock()
	call := c.take(resp.ID)
	c.mu.Unlock()
	if call == nil {
		if resp.Failed() {
			c.queue.Put(resp)
			c.metrics.OrphanedResponses.WithLabelValues(outcomeFailure).Inc()
			return dispatchQueued
		}
		c.metrics.OrphanedResponses.WithLabelValues(outcomeSuccess).Inc()
		c.log.Warn().Uint16("id", resp.ID).Interface("value", resp.Value).Msg("dropped response without a pending request")
		return dispatchOrphaned
	}
	if resp.Failed() {
		c.resolve(call, nil, resp.Err, outcomeFailure)
		return dispatchResolved
	}
	value := resp.Value
	if call.coercion != nil {
		v, err := call.coercion(value)
		if err != nil {
			c.resolve(call, nil, err, outcomeError)
			return dispatchResolved
		}
		value = v
	}
	c.resolve(call, value, nil, outcomeSuccess)
	return dispatchResolved
}

// expire times out every call whose deadline is not after now. It returns the
// next deadline, if any.
func (c *correlator) expire(now time.Time) (time.Time, bool) {
	var expired []*Call
	c.mu.Lock()
	for len(c.deadlines) != 0 && !c.deadlines[0].deadline.After(now) {
		call := heap.Pop(&c.deadlines).(*Call)
		delete(c.pending, call.ID)
		expired = append(expired, call)
	}
	var (
		next time.Time
		ok   bool
	)
	if len(c.deadlines) != 0 {
		next, ok = c.deadlines[0].deadline, true
	}
	c.mu.Unlock()
	for _, call := range expired {
		c.log.Debug().Uint16("id", call.ID).Msg("request timed out")
		c.resolve(call, nil, ErrRequestTimeout, outcomeTimeout)
	}
	return next, ok
}

// run services the deadline heap with one timer until ctx is done.
func (c *correlator) run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()
	for {
		next, ok := c.expire(c.now())
		timer.Stop()
		if ok {
			timer.Reset(next.Sub(c.now()))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-c.wake:
		case <-timer.C:
		}
	}
}

// cancel resolves call with err if it is still pending.
func (c *correlator) cancel(call *Call, err error) bool {
	c.mu.Lock()
	if c.pending[call.ID] != call {
		c.mu.Unlock()
		return false
	}
	c.take(call.ID)
	c.mu.Unlock()
	outcome := outcomeCancelled
	if errors.Is(err, ErrRequestTimeout) {
		outcome = outcomeTimeout
	}
	c.resolve(call, nil, err, outcome)
	return true
}

// cancelAll resolves every pending call with err and rejects later registrations.
func (c *correlator) cancelAll(err error) int {
	c.mu.Lock()
	if c.closedErr == nil {
		c.closedErr = err
	}
	calls := make([]*Call, 0, len(c.pending))
	for _, call := range c.pending {
		calls = append(calls, call)
	}
	clear(c.pending)
	for _, call := range c.deadlines {
		call.index = -1
	}
	c.deadlines = nil
	c.mu.Unlock()
	outcome := outcomeCancelled
	if !errors.Is(err, ErrCancelled) {
		outcome = outcomeError
	}
	for _, call := range calls {
		c.resolve(call, nil, err, outcome)
	}
	return len(calls)
}

// inFlight returns the number of pending calls.
func (c *correlator) inFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
