// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package device provides LED interface device definition and management.
//
// A Device is one microcontroller board, reached over a serial port, that
// drives two logical LED panels wired as eight parallel strips. Devices are
// discovered and initialized by probing enumerated serial ports (see Probe
// and Registry.Discover), and addressed externally by their panel IDs.
//
// Dispatcher converts and transmits a frame for every registered device in
// parallel.
//
// Optional Prometheus monitoring can be enabled by registering on startup
// (generally init()) via RegisterMonitoring.
package device

import (
	"fmt"
	"io"
	"time"

	"github.com/danjacques/gopanelpixels/pixel"
	"github.com/danjacques/gopanelpixels/protocol"

	"github.com/pkg/errors"
)

// Port is the subset of a serial connection that this package uses. It is
// satisfied by go.bug.st/serial's Port.
type Port interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds the duration of a single Read call.
	SetReadTimeout(t time.Duration) error
}

// PortInfo identifies an enumerated serial port.
type PortInfo struct {
	// Name is the OS name of the port (e.g. "/dev/ttyACM0", "COM3").
	Name string
	// Description is the port's self-reported product description. It may be
	// empty.
	Description string
}

func (pi *PortInfo) String() string {
	if pi.Description == "" {
		return pi.Name
	}
	return fmt.Sprintf("%s (%s)", pi.Name, pi.Description)
}

// Device is a single LED interface board and its two panels.
//
// A Device's panel framebuffers are borrowed: SetPanelData stores the
// caller's buffer, and the caller must keep it alive until the next
// SetPanelData for that panel or Close. The wire buffer is owned by the
// Device.
//
// A Device's buffers must only be mutated from the thread that owns the
// Device's registry; Flush assumes exclusive use of the wire buffer and the
// serial port for its duration.
type Device struct {
	conn   Port
	info   PortInfo
	header *protocol.DeviceHeader
	name   string

	// panelOne covers linear indices [0, PanelPixels); panelTwo the rest.
	panelOne *pixel.Buffer
	panelTwo *pixel.Buffer

	// wire is the encoded frame, rewritten on every Flush.
	wire []byte

	monitoring Monitoring
}

// New assembles a Device from an open connection and a parsed header.
//
// The Device takes ownership of conn and will close it when closed. Most
// users obtain Devices through Probe rather than calling New directly.
func New(conn Port, info PortInfo, header *protocol.DeviceHeader) *Device {
	return &Device{
		conn:   conn,
		info:   info,
		header: header,
		name:   fmt.Sprintf("Interface%d", header.UUID),
		wire:   make([]byte, header.FrameSize()),
	}
}

func (d *Device) String() string { return fmt.Sprintf("%s@%s", d.name, d.info.Name) }

// UUID returns the controller-assigned device identifier.
func (d *Device) UUID() int { return d.header.UUID }

// Name returns the device's human-readable name.
func (d *Device) Name() string { return d.name }

// Info returns the serial port this device is attached to.
func (d *Device) Info() PortInfo { return d.info }

// Header returns the geometry reported by the controller during handshake.
func (d *Device) Header() *protocol.DeviceHeader { return d.header }

// PanelOne returns the panel ID of the device's first panel.
func (d *Device) PanelOne() int { return d.header.UUID * 2 }

// PanelTwo returns the panel ID of the device's second panel.
func (d *Device) PanelTwo() int { return d.header.UUID*2 + 1 }

// OwnsPanel returns true if id addresses one of this device's panels.
func (d *Device) OwnsPanel(id int) bool { return id == d.PanelOne() || id == d.PanelTwo() }

// SetPanelData points the identified panel at the caller-owned framebuffer
// buf. buf may be nil to unbind the panel, in which case it renders black.
func (d *Device) SetPanelData(id int, buf *pixel.Buffer) error {
	if buf != nil && buf.ByteLen() < d.header.PanelByteSize() {
		return errors.Errorf("panel %d buffer holds %d byte(s), need %d",
			id, buf.ByteLen(), d.header.PanelByteSize())
	}

	switch id {
	case d.PanelOne():
		d.panelOne = buf
	case d.PanelTwo():
		d.panelTwo = buf
	default:
		return errors.Errorf("device %s does not own panel %d", d.name, id)
	}
	return nil
}

// PanelData returns the framebuffer currently bound to the identified panel,
// or nil if the panel is unbound or not owned by this device.
func (d *Device) PanelData(id int) *pixel.Buffer {
	switch id {
	case d.PanelOne():
		return d.panelOne
	case d.PanelTwo():
		return d.panelTwo
	default:
		return nil
	}
}

// FrameSize returns the size, in bytes, of this device's wire frame.
func (d *Device) FrameSize() int { return len(d.wire) }

// WireFrame returns the device's encoded wire frame as of the last Flush.
//
// The returned slice is the Device's owned buffer; it is only stable while
// no Flush is in flight.
func (d *Device) WireFrame() []byte { return d.wire }

// Flush encodes the device's current panel data and writes the resulting
// frame to the serial port in a single call.
func (d *Device) Flush(gt *pixel.GammaTable) error {
	if err := protocol.EncodeFrame(d.wire, d.header, d.panelOne, d.panelTwo, gt); err != nil {
		return err
	}

	switch n, err := d.conn.Write(d.wire); {
	case err != nil:
		d.monitoring.WriteError(d)
		return errors.Wrapf(err, "failed to write frame to %s", d.info.Name)
	case n != len(d.wire):
		d.monitoring.WriteError(d)
		return errors.Errorf("short frame write to %s (%d of %d byte(s))",
			d.info.Name, n, len(d.wire))
	default:
		d.monitoring.FrameWritten(d, n)
		return nil
	}
}

// Close closes the device's serial port and unbinds its panel buffers.
func (d *Device) Close() error {
	err := d.conn.Close()
	d.panelOne, d.panelTwo = nil, nil
	d.monitoring.Closed(d)
	return err
}
