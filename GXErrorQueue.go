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
	"sync"
)

// DefaultErrorQueueCapacity is the capacity used when none is given.
const DefaultErrorQueueCapacity = 4

// ErrorQueue is a fixed capacity FIFO of failures that did not match a pending request.
// Put never blocks. When the queue is full the oldest item is dropped.
type ErrorQueue struct {
	mu         sync.Mutex
	items      []Response
	head       int
	count      int
	unfinished int
	dropped    uint64
	closed     bool
	// wait is closed and replaced on every change.
	wait chan struct{}
	// onDrop is called for every evicted item, without the lock.
	onDrop func(Response)
}

// NewErrorQueue creates a queue. Capacity below 1 uses DefaultErrorQueueCapacity.
func NewErrorQueue(capacity int) *ErrorQueue {
	if capacity < 1 {
		capacity = DefaultErrorQueueCapacity
	}
	return &ErrorQueue{items: make([]Response, capacity), wait: make(chan struct{})}
}

// Put appends r. It returns true if the oldest item was dropped to make room.
// Items put after Close are ignored.
func (q *ErrorQueue) Put(r Response) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	var (
		evicted Response
		dropped bool
	)
	if q.count == len(q.items) {
		evicted = q.items[q.head]
		q.items[q.head] = Response{}
		q.head = (q.head + 1) % len(q.items)
		q.count--
		q.unfinished--
		q.dropped++
		dropped = true
	}
	q.items[(q.head+q.count)%len(q.items)] = r
	q.count++
	q.unfinished++
	old := q.wait
	q.wait = make(chan struct{})
	onDrop := q.onDrop
	q.mu.Unlock()
	close(old)
	if dropped && onDrop != nil {
		onDrop(evicted)
	}
	return dropped
}

// Get removes and returns the oldest item. It waits until an item is available,
// ctx is done or the queue is closed.
func (q *ErrorQueue) Get(ctx context.Context) (Response, error) {
	for {
		q.mu.Lock()
		if q.count != 0 {
			r := q.items[q.head]
			q.items[q.head] = Response{}
			q.head = (q.head + 1) % len(q.items)
			q.count--
			q.mu.Unlock()
			return r, nil
		}
		if q.closed {
			q.mu.Unlock()
			return Response{}, ErrClosed
		}
		ch := q.wait
		q.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return Response{}, ctx.Err()
		}
	}
}

// TryGet returns the oldest item without waiting.
func (q *ErrorQueue) TryGet() (Response, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return Response{}, false
	}
	r := q.items[q.head]
	q.items[q.head] = Response{}
	q.head = (q.head + 1) % len(q.items)
	q.count--
	return r, true
}

// TaskDone marks one item returned by Get as processed.
func (q *ErrorQueue) TaskDone() {
	q.mu.Lock()
	if q.unfinished > q.count {
		q.unfinished--
	}
	q.mu.Unlock()
}

// Unfinished returns the number of items put and not yet marked done.
func (q *ErrorQueue) Unfinished() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.unfinished
}

// Len returns the number of queued items.
func (q *ErrorQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the queue capacity.
func (q *ErrorQueue) Cap() int {
	return len(q.items)
}

// Dropped returns the number of evicted items.
func (q *ErrorQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Close wakes every waiting Get. Queued items can still be read.
func (q *ErrorQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	old := q.wait
	q.wait = make(chan struct{})
	q.mu.Unlock()
	close(old)
}
