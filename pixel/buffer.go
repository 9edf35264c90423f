// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package pixel

// Buffer represents a series of consecutive RGB pixels. It is used for
// minimal-copy pixel processing: network payloads are read directly into a
// Buffer's bytes, and the frame encoder samples those same bytes.
type Buffer struct {
	buf []byte
}

// Len returns the number of pixels allocated in pb.
func (pb *Buffer) Len() int { return len(pb.buf) / BytesPerPixel }

// ByteLen returns the number of bytes allocated in pb.
func (pb *Buffer) ByteLen() int { return len(pb.buf) }

// Reset clears the buffer and allocates room for size pixels. All pixels are
// zeroed (black).
//
// If the underlying buffer is already >= this size, it will be reused;
// otherwise, a new buffer will be allocated.
func (pb *Buffer) Reset(size int) {
	bytesNeeded := size * BytesPerPixel
	if cap(pb.buf) < bytesNeeded {
		pb.buf = make([]byte, bytesNeeded)
		return
	}

	pb.buf = pb.buf[:bytesNeeded]
	for i := range pb.buf {
		pb.buf[i] = 0
	}
}

// UseBytes loads buf directly into this Buffer. This creates a functional
// Buffer with no copying.
//
// Note that buf may be retained and used by pb indefinitely, and should not be
// reused while pb is active. Loading a new buffer using UseBytes will cause
// pb to stop using buf.
func (pb *Buffer) UseBytes(buf []byte) { pb.buf = buf }

// Bytes returns the raw bytes for this buffer.
func (pb *Buffer) Bytes() []byte { return pb.buf }

// Pixel returns the pixel data for the Pixel at index i.
//
// If i is out of bounds, Pixel will return a zero value.
func (pb *Buffer) Pixel(i int) (p P) {
	offset := i * BytesPerPixel
	if offset < 0 || offset >= len(pb.buf) {
		return
	}

	p.Red, p.Green, p.Blue = pb.buf[offset], pb.buf[offset+1], pb.buf[offset+2]
	return
}

// SetPixel sets the pixel value at index i.
//
// If i is out of bounds, SetPixel will do nothing.
func (pb *Buffer) SetPixel(i int, p P) {
	offset := i * BytesPerPixel
	if offset < 0 || offset >= len(pb.buf) {
		return
	}

	pb.buf[offset], pb.buf[offset+1], pb.buf[offset+2] = p.Red, p.Green, p.Blue
}

// SetPixels sets the Buffer's content to the set of pixels provided.
func (pb *Buffer) SetPixels(pixels ...P) {
	pb.Reset(len(pixels))
	for i, p := range pixels {
		pb.SetPixel(i, p)
	}
}

// Fill sets every pixel in the buffer to p.
func (pb *Buffer) Fill(p P) {
	for i := 0; i < pb.Len(); i++ {
		pb.SetPixel(i, p)
	}
}
