// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package protocol

import (
	"bytes"

	"github.com/danjacques/gopanelpixels/pixel"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

const (
	// BytesPerLed is the number of bytes used by a single LED's color data.
	BytesPerLed = 3

	// FrameHeaderSize is the size, in bytes, of the frame-sync header.
	FrameHeaderSize = 3

	// FrameSyncMarker marks the device as the frame-sync master.
	FrameSyncMarker = '*'

	// SyncPulseWidth is the requested frame-sync pulse width in microseconds:
	// 75% of a 30 Hz frame.
	SyncPulseWidth uint16 = 25000

	// outputPins is the number of parallel strips driven by one controller.
	outputPins = 8
)

// syncHeader is the in-band frame-sync header. Unlike the network protocol,
// the controller consumes its pulse width little-endian.
type syncHeader struct {
	Marker     byte
	PulseWidth uint16 `struc:"uint16,little"`
}

// EncodeFrame rewrites dst with the wire frame for a device with geometry h,
// sampling panel framebuffers one and two.
//
// dst must be exactly h.FrameSize() bytes. Either panel buffer may be nil, in
// which case its half of the device renders black; a non-nil buffer must hold
// at least h.PanelByteSize() bytes.
//
// The body interleaves eight logical pixels per column position, one per
// output pin, serpentine-remapped per row and gamma-corrected per channel,
// repacked in the controller's GRB wiring order and emitted as 24 bit-sliced
// bytes per position.
func EncodeFrame(dst []byte, h *DeviceHeader, one, two *pixel.Buffer, gt *pixel.GammaTable) error {
	if len(dst) != h.FrameSize() {
		return errors.Errorf("frame buffer size %d does not match geometry (want %d)",
			len(dst), h.FrameSize())
	}

	oneData, err := panelData(h, one, "one")
	if err != nil {
		return err
	}
	twoData, err := panelData(h, two, "two")
	if err != nil {
		return err
	}

	var hdr bytes.Buffer
	if err := struc.Pack(&hdr, &syncHeader{
		Marker:     FrameSyncMarker,
		PulseWidth: SyncPulseWidth,
	}); err != nil {
		return errors.Wrap(err, "failed to pack sync header")
	}
	copy(dst, hdr.Bytes())

	width := h.PanelWidth()
	stripsPerPin := h.StripsPerPin()
	panelMaxIndex := h.PanelPixels()

	layoutBias := 0
	if !h.Layout {
		layoutBias = 1
	}

	var pixels [outputPins]uint32
	offset := FrameHeaderSize

	for y := 0; y < stripsPerPin; y++ {
		// Alternate the scan direction per row; Layout selects which parity
		// runs left-to-right.
		xbegin, xend, xinc := 0, width, 1
		if (y & 1) != layoutBias {
			xbegin, xend, xinc = width-1, -1, -1
		}

		for x := xbegin; x != xend; x += xinc {
			// Sample one logical pixel per output pin.
			for i := 0; i < outputPins; i++ {
				index := x + (y+stripsPerPin*i)*width

				data := oneData
				if index >= panelMaxIndex {
					data = twoData
				}
				index %= panelMaxIndex

				var r, g, b uint8
				if data != nil {
					base := index * BytesPerLed
					r = gt.Correct(data[base])
					g = gt.Correct(data[base+1])
					b = gt.Correct(data[base+2])
				}

				// GRB is the controller's wiring order.
				pixels[i] = uint32(g)<<16 | uint32(r)<<8 | uint32(b)
			}

			// Bit-slice the eight pixels into 24 bytes, one byte per bit,
			// most significant bit first.
			for mask := uint32(0x800000); mask != 0; mask >>= 1 {
				var v byte
				for i := 0; i < outputPins; i++ {
					if pixels[i]&mask != 0 {
						v |= 1 << i
					}
				}
				dst[offset] = v
				offset++
			}
		}
	}
	return nil
}

func panelData(h *DeviceHeader, buf *pixel.Buffer, which string) ([]byte, error) {
	if buf == nil {
		return nil, nil
	}
	data := buf.Bytes()
	if len(data) < h.PanelByteSize() {
		return nil, errors.Errorf("panel %s buffer holds %d byte(s), need %d",
			which, len(data), h.PanelByteSize())
	}
	return data, nil
}
