// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package replay

import (
	"sync"
)

// RecorderStatus is a snapshot of the current recorder status.
type RecorderStatus struct {
	Frames int64
	Bytes  int64
	Error  error
}

// A Recorder is a concurrency-safe frame sink that appends every recorded
// frame to a stream.
//
// Recorder implements the device package's FrameSink. Write errors are
// latched and reported by Stop, never propagated to frame commits.
type Recorder struct {
	mu sync.Mutex
	// sw is the currently-active stream writer.
	sw *StreamWriter
	// err is a latched write error.
	err error
}

// Start starts recording to sw.
//
// The recording continues until Stop is called. Start takes ownership of sw
// and will close it on Stop.
func (r *Recorder) Start(sw *StreamWriter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sw != nil {
		panic("already recording")
	}
	r.sw = sw
	recorderActiveGauge.Inc()
}

// Stop stops the Recorder, finalizing its stream and releasing its
// resources.
//
// Stop returns the stream close error or, if the close succeeded, any
// latched frame write error. Stopping a stopped Recorder does nothing.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sw == nil {
		return nil
	}

	err := r.sw.Close()
	r.sw = nil

	if err == nil {
		err = r.err
	}
	r.err = nil

	recorderActiveGauge.Dec()
	return err
}

// Status returns a snapshot of the current Recorder status, or nil if the
// Recorder is not currently recording.
func (r *Recorder) Status() *RecorderStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sw == nil {
		return nil
	}
	return &RecorderStatus{
		Frames: r.sw.NumFrames(),
		Bytes:  r.sw.NumBytes(),
		Error:  r.err,
	}
}

// RecordFrame adds one transmitted frame to the recording.
//
// RecordFrame implements the device FrameSink interface. The frame is
// written out before returning; the slice is not retained.
func (r *Recorder) RecordFrame(uuid int, frame []byte) {
	recorderFrames.Inc()

	r.mu.Lock()
	defer r.mu.Unlock()

	// If we've been stopped, or we're already in an error state, do nothing.
	if r.sw == nil || r.err != nil {
		return
	}

	if err := r.sw.WriteFrame(int32(uuid), frame); err != nil {
		recorderErrors.Inc()
		r.err = err
	}
}
