// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package protocol implements the wire formats spoken to the LED interface
// controllers.
//
// Two formats live here:
//
// The handshake: a controller answers a single "?" query byte with an ASCII,
// comma-separated, newline-terminated description of its geometry.
// ParseDeviceHeader extracts the fields that the host consumes.
//
// The frame: EncodeFrame folds the two RGB panel framebuffers attached to a
// device into the bit-sliced byte stream that OctoWS2811-style firmware
// expects, prefixed with a 3-byte frame-sync header.
package protocol

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"
)

const (
	// HandshakeQuery is the single byte transmitted to a controller to request
	// its device header.
	HandshakeQuery = '?'

	// HandshakeReplySize is the maximum size, in bytes, of a handshake reply.
	HandshakeReplySize = 250

	// handshakeFieldCount is the minimum number of comma-separated fields in a
	// valid handshake reply. Field indices consumed by the host are listed in
	// the field* constants below; the remainder are controller-internal and
	// tolerated.
	handshakeFieldCount = 12
)

// Consumed handshake reply field indices.
const (
	fieldStripLength = 0
	fieldLedHeight   = 1
	fieldLayout      = 5
	fieldUUID        = 11
)

// DeviceHeader is the geometry that a controller reports during handshake.
//
// A controller drives two logical panels wired as eight parallel strips. The
// strip length is the width of one panel; the LED height spans both panels
// along the pin direction and must be a positive multiple of 8.
type DeviceHeader struct {
	// StripLength is the number of LEDs on a single connected strip.
	StripLength int

	// LedHeight is the total number of LEDs along the pin direction, across
	// both panels.
	LedHeight int

	// Layout is true when the physical strip zigzag starts left-to-right on
	// row 0, false when it starts right-to-left.
	Layout bool

	// UUID is the controller-assigned device identifier.
	UUID int
}

// ParseDeviceHeader parses a handshake reply.
//
// The reply is tokenized at commas, stopping at the first newline. Replies
// with fewer fields than the consumed indices require are rejected.
func ParseDeviceHeader(raw []byte) (*DeviceHeader, error) {
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		raw = raw[:i]
	}
	if len(raw) == 0 {
		return nil, errors.New("empty handshake reply")
	}

	fields := bytes.Split(raw, []byte(","))
	if len(fields) < handshakeFieldCount {
		return nil, errors.Errorf("handshake reply has %d field(s), need %d",
			len(fields), handshakeFieldCount)
	}

	intField := func(index int) (int, error) {
		v, err := strconv.Atoi(string(fields[index]))
		if err != nil {
			return 0, errors.Wrapf(err, "invalid handshake field %d", index)
		}
		return v, nil
	}

	var (
		h   DeviceHeader
		err error
	)
	if h.StripLength, err = intField(fieldStripLength); err != nil {
		return nil, err
	}
	if h.LedHeight, err = intField(fieldLedHeight); err != nil {
		return nil, err
	}
	layout, err := intField(fieldLayout)
	if err != nil {
		return nil, err
	}
	h.Layout = layout == 0
	if h.UUID, err = intField(fieldUUID); err != nil {
		return nil, err
	}
	return &h, nil
}

// ValidGeometry returns true if the header's LED height is a positive
// multiple of 8. Devices with invalid geometry are still usable, but their
// frame encoding is undefined; callers should warn.
func (h *DeviceHeader) ValidGeometry() bool {
	return h.LedHeight > 0 && h.LedHeight%8 == 0
}

// PanelWidth returns the width, in LEDs, of one panel.
func (h *DeviceHeader) PanelWidth() int { return h.StripLength }

// PanelHeight returns the height, in LEDs, of one panel.
func (h *DeviceHeader) PanelHeight() int { return h.LedHeight / 2 }

// PanelPixels returns the number of LEDs on one panel.
func (h *DeviceHeader) PanelPixels() int { return h.PanelWidth() * h.PanelHeight() }

// PanelByteSize returns the RGB framebuffer size, in bytes, for one panel.
func (h *DeviceHeader) PanelByteSize() int { return h.PanelPixels() * BytesPerLed }

// DevicePixels returns the number of LEDs across both panels.
func (h *DeviceHeader) DevicePixels() int { return h.StripLength * h.LedHeight }

// StripsPerPin returns the number of horizontal LED rows driven by a single
// output pin.
func (h *DeviceHeader) StripsPerPin() int { return h.LedHeight / outputPins }

// FrameSize returns the size, in bytes, of one encoded wire frame for this
// device, including the frame-sync header.
func (h *DeviceHeader) FrameSize() int {
	return h.DevicePixels()*BytesPerLed + FrameHeaderSize
}
