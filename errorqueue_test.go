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
	"errors"
	"fmt"
	"testing"
	"time"
)

func failure(msg string) Response {
	return Response{Err: &DeviceError{Message: msg}}
}

func TestErrorQueueDropsOldest(t *testing.T) {
	q := NewErrorQueue(4)
	var evicted []string
	q.onDrop = func(r Response) {
		evicted = append(evicted, r.Err.Message)
	}
	for i := range 6 {
		dropped := q.Put(failure(fmt.Sprint(i)))
		if dropped != (i >= 4) {
			t.Fatalf("put %d: dropped %v", i, dropped)
		}
	}
	if q.Len() != 4 || q.Dropped() != 2 || q.Unfinished() != 4 {
		t.Fatalf("len %d dropped %d unfinished %d", q.Len(), q.Dropped(), q.Unfinished())
	}
	if len(evicted) != 2 || evicted[0] != "0" || evicted[1] != "1" {
		t.Fatalf("evicted %v", evicted)
	}
	for i := 2; i < 6; i++ {
		r, ok := q.TryGet()
		if !ok || r.Err.Message != fmt.Sprint(i) {
			t.Fatalf("got %+v, %v", r, ok)
		}
		q.TaskDone()
	}
	if q.Unfinished() != 0 {
		t.Fatalf("unfinished %d", q.Unfinished())
	}
}

func TestErrorQueueDefaultCapacity(t *testing.T) {
	if q := NewErrorQueue(0); q.Cap() != DefaultErrorQueueCapacity {
		t.Fatalf("capacity %d", q.Cap())
	}
}

func TestErrorQueueGetWaits(t *testing.T) {
	q := NewErrorQueue(2)
	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Put(failure("late"))
	}()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r, err := q.Get(ctx)
	if err != nil || r.Err.Message != "late" {
		t.Fatalf("got %+v, %v", r, err)
	}
}

func TestErrorQueueGetContext(t *testing.T) {
	q := NewErrorQueue(2)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := q.Get(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v", err)
	}
}

func TestErrorQueueClose(t *testing.T) {
	q := NewErrorQueue(2)
	q.Put(failure("kept"))
	done := make(chan error, 1)
	go func() {
		q.Get(context.Background())
		_, err := q.Get(context.Background())
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	q.Close()
	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Get not woken by Close")
	}
	if q.Put(failure("ignored")) || q.Len() != 0 {
		t.Fatal("put after close")
	}
}
