// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package led exposes the public display surface used by the protocol server
// and any embedder.
//
// Displays owns the device registry and gamma table for its lifetime: Init
// fully replaces any previous state, and Clear releases every owned resource
// deterministically. All panel addressing is by panel ID.
package led

import (
	"github.com/danjacques/gopanelpixels/device"
	"github.com/danjacques/gopanelpixels/pixel"
	"github.com/danjacques/gopanelpixels/protocol"
	"github.com/danjacques/gopanelpixels/support/logging"

	"github.com/pkg/errors"
)

// ErrNoSuchPanel is returned when a panel ID is not part of the initialized
// display set.
var ErrNoSuchPanel = errors.New("no such panel")

// Displays is the set of initialized LED displays.
//
// Displays is not safe for concurrent use: Init, Clear, SetData, and the
// accessors must all be called from a single thread. EndDisplay fans out one
// worker per device internally, but blocks until all workers have finished;
// Clear must not be called concurrently with EndDisplay.
//
// The exported fields must not be changed after Init is called.
type Displays struct {
	// Logger, if not nil, is the logger to use to log events.
	Logger logging.L

	// Serial configures port enumeration and access. The zero value uses the
	// host serial layer.
	Serial device.Options

	// Recorder, if not nil, receives every frame transmitted by EndDisplay.
	Recorder device.FrameSink

	reg   *device.Registry
	gamma pixel.GammaTable
}

// Init enumerates serial ports, handshakes with every attached controller,
// and builds the gamma table.
//
// Init fully replaces any previous state: if displays are already
// initialized, they are cleared first.
func (ds *Displays) Init(gamma float64) error {
	ds.Clear()

	opts := ds.Serial
	if opts.Logger == nil {
		opts.Logger = ds.Logger
	}

	reg := &device.Registry{Logger: ds.Logger}
	if err := reg.Discover(&opts); err != nil {
		_ = reg.Close()
		return err
	}

	ds.reg = reg
	ds.gamma = pixel.MakeGammaTable(gamma)
	return nil
}

// Clear closes every serial connection and releases all owned buffers and
// cached state. Clearing uninitialized displays does nothing.
func (ds *Displays) Clear() {
	if ds.reg == nil {
		return
	}

	if err := ds.reg.Close(); err != nil {
		logging.Must(ds.Logger).Warnf("Error closing device registry: %s", err)
	}
	ds.reg = nil
	ds.gamma = pixel.GammaTable{}
}

// Exists returns true if id addresses an initialized panel.
func (ds *Displays) Exists(id int) bool {
	return ds.reg != nil && ds.reg.Device(id) != nil
}

// Count returns the number of initialized panels (two per device).
func (ds *Displays) Count() int {
	if ds.reg == nil {
		return 0
	}
	return ds.reg.PanelCount()
}

// AvailableDisplayNumbers returns the ordered list of panel IDs. The order is
// the insertion order induced by port enumeration, and is the order used for
// whole-fleet uploads.
func (ds *Displays) AvailableDisplayNumbers() []int {
	if ds.reg == nil {
		return nil
	}
	return ds.reg.PanelIDs()
}

// BytesPerLed returns the number of bytes per LED (3, RGB).
func (ds *Displays) BytesPerLed() int { return protocol.BytesPerLed }

// Size returns the number of LEDs on the identified panel, or -1 if the
// panel is unknown.
func (ds *Displays) Size(id int) int {
	h := ds.headerFor(id)
	if h == nil {
		return -1
	}
	return h.PanelPixels()
}

// ByteSize returns the RGB framebuffer size, in bytes, for the identified
// panel, or -1 if the panel is unknown.
func (ds *Displays) ByteSize(id int) int {
	h := ds.headerFor(id)
	if h == nil {
		return -1
	}
	return h.PanelByteSize()
}

// Stride returns the width, in LEDs, of the identified panel, or -1 if the
// panel is unknown.
func (ds *Displays) Stride(id int) int {
	h := ds.headerFor(id)
	if h == nil {
		return -1
	}
	return h.PanelWidth()
}

// Height returns the height, in LEDs, of the identified panel, or -1 if the
// panel is unknown.
func (ds *Displays) Height(id int) int {
	h := ds.headerFor(id)
	if h == nil {
		return -1
	}
	return h.PanelHeight()
}

// MaxByteSize returns the byte size of the largest initialized panel, or -1
// if no panels are initialized.
func (ds *Displays) MaxByteSize() int {
	maxSize := -1
	for _, id := range ds.AvailableDisplayNumbers() {
		if s := ds.ByteSize(id); s > maxSize {
			maxSize = s
		}
	}
	return maxSize
}

// TotalSize returns the total number of LEDs across all panels.
func (ds *Displays) TotalSize() int {
	if ds.reg == nil {
		return 0
	}

	total := 0
	for _, d := range ds.reg.Devices() {
		total += d.Header().DevicePixels()
	}
	return total
}

// TotalByteSize returns the total framebuffer byte size across all panels.
func (ds *Displays) TotalByteSize() int {
	return ds.TotalSize() * protocol.BytesPerLed
}

// SetData points the identified panel at the caller-owned framebuffer buf.
//
// The buffer is borrowed, not copied: the caller must keep it alive until
// the next SetData for the same panel, or Clear.
func (ds *Displays) SetData(id int, buf *pixel.Buffer) error {
	d := ds.deviceFor(id)
	if d == nil {
		return errors.Wrapf(ErrNoSuchPanel, "panel %d", id)
	}
	return d.SetPanelData(id, buf)
}

// Data returns the framebuffer currently bound to the identified panel, or
// nil if the panel is unknown or unbound.
func (ds *Displays) Data(id int) *pixel.Buffer {
	d := ds.deviceFor(id)
	if d == nil {
		return nil
	}
	return d.PanelData(id)
}

// EndDisplay converts and transmits every device's frame in parallel,
// returning once all devices have received their data.
func (ds *Displays) EndDisplay() {
	if ds.reg == nil {
		return
	}

	disp := device.Dispatcher{
		Logger:   ds.Logger,
		Recorder: ds.Recorder,
	}
	disp.Commit(ds.reg.Devices(), &ds.gamma)
}

func (ds *Displays) deviceFor(id int) *device.Device {
	if ds.reg == nil {
		return nil
	}
	return ds.reg.Device(id)
}

func (ds *Displays) headerFor(id int) *protocol.DeviceHeader {
	d := ds.deviceFor(id)
	if d == nil {
		return nil
	}
	return d.Header()
}
