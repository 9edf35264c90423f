// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package server

import (
	"encoding/binary"
	"io"
)

// All protocol integers are signed 32-bit big-endian (network byte order).
// Byte payloads travel raw, with no length prefix; lengths are implicit from
// the display configuration.
//
// Note that this is distinct from the serial frame-sync header, whose pulse
// width is little-endian.

func readInt32(r io.Reader) (int32, error) {
	var v int32
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func writeInt32(w io.Writer, v int32) error {
	return binary.Write(w, binary.BigEndian, v)
}

// configRecord is one panel's record in a GetConfig response. struc packs
// fields big-endian by default, matching the protocol byte order.
type configRecord struct {
	PanelID  int32
	Size     int32
	ByteSize int32
	Height   int32
	Width    int32
}
