// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package pixel

import (
	"math"
)

// GammaTable maps a linear 8-bit channel value to its gamma-corrected 8-bit
// value.
//
// A GammaTable is a pure function of its gamma value, and is computed once per
// display initialization. For gamma >= 1 the table is monotone, with
// table[0] == 0 and table[255] == 255.
type GammaTable [256]uint8

// MakeGammaTable computes the lookup table for the supplied gamma value.
func MakeGammaTable(gamma float64) (t GammaTable) {
	for i := range t {
		t[i] = uint8(math.Pow(float64(i)/255.0, gamma)*255.0 + 0.5)
	}
	return
}

// Correct returns the gamma-corrected value for a single channel.
func (t *GammaTable) Correct(v uint8) uint8 { return t[v] }

// CorrectPixel returns a copy of p with each channel gamma-corrected.
func (t *GammaTable) CorrectPixel(p P) P {
	return P{
		Red:   t[p.Red],
		Green: t[p.Green],
		Blue:  t[p.Blue],
	}
}
