// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package device

import (
	"sync"

	"github.com/danjacques/gopanelpixels/pixel"
	"github.com/danjacques/gopanelpixels/support/fmtutil"
	"github.com/danjacques/gopanelpixels/support/logging"
)

// FrameSink receives a copy-worthy view of each successfully transmitted
// wire frame. Implementations must be safe for concurrent use and must not
// retain the frame slice after returning.
type FrameSink interface {
	RecordFrame(uuid int, frame []byte)
}

// Dispatcher converts and transmits device frames.
//
// Commit fans out one worker per device. Workers are independent: each
// exclusively owns its device's wire buffer and serial port for the duration
// of the commit, and reads only shared immutable state (the gamma table,
// panel buffers, and geometry). No locks are needed.
type Dispatcher struct {
	// Logger, if not nil, is the logger to use to log events.
	Logger logging.L

	// Recorder, if not nil, receives every transmitted frame.
	Recorder FrameSink
}

// Commit encodes and writes a frame for every device, in parallel, and
// returns once every worker has finished both encoding and transmission.
//
// A write failure on one device is logged and does not disturb the other
// workers. There is no retry.
func (disp *Dispatcher) Commit(devices []*Device, gt *pixel.GammaTable) {
	logger := logging.Must(disp.Logger)

	var wg sync.WaitGroup
	for _, d := range devices {
		wg.Add(1)
		go func(d *Device) {
			defer wg.Done()

			if err := d.Flush(gt); err != nil {
				logger.Errorf("Failed to flush frame to device %s: %s", d, err)
				return
			}
			logger.Debugf("Wrote frame to device %s (%d byte(s)):\n%s",
				d, d.FrameSize(), fmtutil.Hex(d.WireFrame()))

			if disp.Recorder != nil {
				disp.Recorder.RecordFrame(d.UUID(), d.WireFrame())
			}
		}(d)
	}
	wg.Wait()
}
