// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package pixel offers primitives for RGB pixel data.
//
// Buffer holds a series of contiguous RGB pixel values, and is the unit of
// framebuffer exchange between embedders, the protocol server, and the frame
// encoder.
//
// GammaTable is a precomputed gamma correction lookup applied by the frame
// encoder immediately before pixel data is serialized for the wire.
package pixel

import (
	"fmt"
)

// BytesPerPixel is the number of bytes used by a single RGB pixel.
const BytesPerPixel = 3

// P is the state of a single pixel.
type P struct {
	Red   uint8
	Green uint8
	Blue  uint8
}

func (p *P) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.Red, p.Green, p.Blue)
}
