// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package protocol

import (
	"github.com/danjacques/gopanelpixels/pixel"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// decodeSlice reconstructs the eight 24-bit pixel values from one 24-byte
// bit-sliced group.
func decodeSlice(group []byte) (pixels [8]uint32) {
	for k, b := range group {
		mask := uint32(0x800000) >> uint(k)
		for i := 0; i < 8; i++ {
			if b&(1<<uint(i)) != 0 {
				pixels[i] |= mask
			}
		}
	}
	return
}

func solidBuffer(pixels int, p pixel.P) *pixel.Buffer {
	var buf pixel.Buffer
	buf.Reset(pixels)
	buf.Fill(p)
	return &buf
}

var _ = Describe("EncodeFrame", func() {
	identity := pixel.MakeGammaTable(1.0)

	Context("with a 2x8 device, both panels uniform red", func() {
		h := &DeviceHeader{StripLength: 2, LedHeight: 8, Layout: true}
		var frame []byte

		BeforeEach(func() {
			one := solidBuffer(h.PanelPixels(), pixel.P{Red: 255})
			two := solidBuffer(h.PanelPixels(), pixel.P{Red: 255})

			frame = make([]byte, h.FrameSize())
			Expect(EncodeFrame(frame, h, one, two, &identity)).To(Succeed())
		})

		It("produces a 51-byte frame with the sync header", func() {
			Expect(frame).To(HaveLen(51))
			Expect(frame[:3]).To(Equal([]byte{0x2A, 0xA8, 0x61}))
		})

		It("sets only the red byte of each bit-sliced group", func() {
			expected := make([]byte, 0, 48)
			for pos := 0; pos < 2; pos++ {
				for i := 0; i < 8; i++ { // green byte of GRB
					expected = append(expected, 0x00)
				}
				for i := 0; i < 8; i++ { // red byte, all pins lit
					expected = append(expected, 0xFF)
				}
				for i := 0; i < 8; i++ { // blue byte
					expected = append(expected, 0x00)
				}
			}
			Expect(frame[3:]).To(Equal(expected))
		})
	})

	Context("with a 1x16 device spanning the panel boundary", func() {
		h := &DeviceHeader{StripLength: 1, LedHeight: 16, Layout: true}
		var frame []byte

		BeforeEach(func() {
			one := solidBuffer(h.PanelPixels(), pixel.P{Red: 1})
			two := solidBuffer(h.PanelPixels(), pixel.P{Blue: 2})

			frame = make([]byte, h.FrameSize())
			Expect(EncodeFrame(frame, h, one, two, &identity)).To(Succeed())
		})

		It("splits pins 0-3 and 4-7 across the panels", func() {
			pixels := decodeSlice(frame[3:27])
			for i := 0; i < 4; i++ {
				Expect(pixels[i]).To(Equal(uint32(0x000100)), "pin %d", i)
			}
			for i := 4; i < 8; i++ {
				Expect(pixels[i]).To(Equal(uint32(0x000002)), "pin %d", i)
			}
		})

		It("emits the expected red and blue slice bytes", func() {
			// Mask 0x000100 (red bit 0) is slice byte 15; mask 0x000002
			// (blue bit 1) is slice byte 22.
			Expect(frame[3+15]).To(Equal(byte(0x0F)))
			Expect(frame[3+22]).To(Equal(byte(0xF0)))
		})
	})

	It("round-trips arbitrary pixel values through the bit slice", func() {
		h := &DeviceHeader{StripLength: 1, LedHeight: 16, Layout: true}

		var one, two pixel.Buffer
		one.SetPixels(
			pixel.P{Red: 0x12, Green: 0x34, Blue: 0x56},
			pixel.P{Red: 0xFF},
			pixel.P{Green: 0xFF},
			pixel.P{Blue: 0xFF},
			pixel.P{Red: 0x01, Green: 0x02, Blue: 0x03},
			pixel.P{Red: 0x80, Green: 0x40, Blue: 0x20},
			pixel.P{},
			pixel.P{Red: 0xAA, Green: 0x55, Blue: 0xCC},
		)
		two.SetPixels(
			pixel.P{Green: 0x99},
			pixel.P{Blue: 0x77},
			pixel.P{Red: 0x11, Green: 0x22, Blue: 0x33},
			pixel.P{Red: 0xFE, Green: 0xFD, Blue: 0xFC},
			pixel.P{Red: 0x0F},
			pixel.P{Green: 0xF0},
			pixel.P{Blue: 0x0F},
			pixel.P{Red: 0xC3, Green: 0x3C, Blue: 0x5A},
		)

		frame := make([]byte, h.FrameSize())
		Expect(EncodeFrame(frame, h, &one, &two, &identity)).To(Succeed())

		// Row 0 samples pixels 0, 2, 4, 6 of each panel; row 1 the odd ones.
		for y := 0; y < 2; y++ {
			pixels := decodeSlice(frame[3+24*y : 3+24*(y+1)])
			for i := 0; i < 8; i++ {
				src, index := &one, y+2*i
				if index >= 8 {
					src, index = &two, index-8
				}
				p := src.Pixel(index)
				want := uint32(p.Green)<<16 | uint32(p.Red)<<8 | uint32(p.Blue)
				Expect(pixels[i]).To(Equal(want), "row %d pin %d", y, i)
			}
		}
	})

	It("applies gamma correction per channel", func() {
		h := &DeviceHeader{StripLength: 1, LedHeight: 8, Layout: true}
		gt := pixel.MakeGammaTable(2.0)

		one := solidBuffer(h.PanelPixels(), pixel.P{Red: 128, Green: 255, Blue: 0})

		frame := make([]byte, h.FrameSize())
		Expect(EncodeFrame(frame, h, one, nil, &gt)).To(Succeed())

		pixels := decodeSlice(frame[3:27])
		Expect(pixels[0]).To(Equal(uint32(0xFF)<<16 | uint32(64)<<8))
	})

	Context("serpentine remapping", func() {
		// 2 wide, 32 tall: four rows per pin, so rows 0..3 alternate
		// direction within each pin's section.
		h := &DeviceHeader{StripLength: 2, LedHeight: 32, Layout: true}

		gradient := func(base uint8) *pixel.Buffer {
			var buf pixel.Buffer
			buf.Reset(h.PanelPixels())
			for i := 0; i < buf.Len(); i++ {
				buf.SetPixel(i, pixel.P{Red: base + uint8(i)})
			}
			return &buf
		}

		It("scans even rows forward and odd rows backward", func() {
			one := gradient(0)
			two := gradient(128)

			frame := make([]byte, h.FrameSize())
			Expect(EncodeFrame(frame, h, one, two, &identity)).To(Succeed())

			// Pin 0, row 0 (left-to-right): positions 0 and 1 sample panel
			// one pixels 0 and 1.
			row0 := decodeSlice(frame[3:27])
			row0b := decodeSlice(frame[27:51])
			Expect(uint8(row0[0] >> 8)).To(Equal(uint8(0)))
			Expect(uint8(row0b[0] >> 8)).To(Equal(uint8(1)))

			// Pin 0, row 1 (right-to-left): the first emitted position is
			// x=1, which is panel one pixel 3.
			row1 := decodeSlice(frame[51:75])
			row1b := decodeSlice(frame[75:99])
			Expect(uint8(row1[0] >> 8)).To(Equal(uint8(3)))
			Expect(uint8(row1b[0] >> 8)).To(Equal(uint8(2)))
		})

		It("inverts the scan parity when layout is false", func() {
			inverted := &DeviceHeader{StripLength: 2, LedHeight: 32, Layout: false}
			one := gradient(0)
			two := gradient(128)

			frame := make([]byte, inverted.FrameSize())
			Expect(EncodeFrame(frame, inverted, one, two, &identity)).To(Succeed())

			// Row 0 now scans right-to-left: first position is x=1, panel
			// one pixel 1.
			row0 := decodeSlice(frame[3:27])
			Expect(uint8(row0[0] >> 8)).To(Equal(uint8(1)))
		})
	})

	It("renders a nil panel buffer as black", func() {
		h := &DeviceHeader{StripLength: 1, LedHeight: 16, Layout: true}
		one := solidBuffer(h.PanelPixels(), pixel.P{Red: 255, Green: 255, Blue: 255})

		frame := make([]byte, h.FrameSize())
		Expect(EncodeFrame(frame, h, one, nil, &identity)).To(Succeed())

		pixels := decodeSlice(frame[3:27])
		for i := 4; i < 8; i++ {
			Expect(pixels[i]).To(BeZero(), "pin %d", i)
		}
	})

	It("rejects a mis-sized frame buffer", func() {
		h := &DeviceHeader{StripLength: 2, LedHeight: 8, Layout: true}
		err := EncodeFrame(make([]byte, 10), h, nil, nil, &identity)
		Expect(err).To(HaveOccurred())
	})

	It("rejects an undersized panel buffer", func() {
		h := &DeviceHeader{StripLength: 2, LedHeight: 8, Layout: true}
		short := solidBuffer(h.PanelPixels()-1, pixel.P{})

		err := EncodeFrame(make([]byte, h.FrameSize()), h, short, nil, &identity)
		Expect(err).To(HaveOccurred())
	})
})
