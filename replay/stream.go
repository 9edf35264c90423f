// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package replay handles the recording and playback of device wire frames.
//
// A stream file is a snappy-compressed sequence of frame records. Each
// record is a fixed-size big-endian header (device UUID, frame size)
// followed by the raw frame bytes.
package replay

import (
	"io"
	"os"

	"github.com/danjacques/gopanelpixels/support/dataio"

	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// maxFrameSize bounds a single record's payload, protecting readers from
// corrupt or truncated stream files.
const maxFrameSize = 1 << 24

// frameHeader precedes every frame record. struc packs fields big-endian by
// default.
type frameHeader struct {
	UUID int32
	Size int32
}

// StreamWriter writes a frame stream.
//
// StreamWriter is not safe for concurrent use; see Recorder for a
// concurrency-safe frame sink.
type StreamWriter struct {
	base io.WriteCloser
	sw   *snappy.Writer

	frames int64
	bytes  int64
}

// CreateStream creates a stream file at path and returns a StreamWriter on
// it.
func CreateStream(path string) (*StreamWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create stream file %q", path)
	}
	return NewStreamWriter(f), nil
}

// NewStreamWriter returns a StreamWriter that writes records through w.
//
// The StreamWriter takes ownership of w, and will close it when closed.
func NewStreamWriter(w io.WriteCloser) *StreamWriter {
	return &StreamWriter{
		base: w,
		sw:   snappy.NewBufferedWriter(w),
	}
}

// WriteFrame appends one frame record to the stream.
func (w *StreamWriter) WriteFrame(uuid int32, frame []byte) error {
	hdr := frameHeader{
		UUID: uuid,
		Size: int32(len(frame)),
	}
	if err := struc.Pack(w.sw, &hdr); err != nil {
		return errors.Wrap(err, "failed to write frame header")
	}
	if _, err := w.sw.Write(frame); err != nil {
		return errors.Wrap(err, "failed to write frame payload")
	}

	w.frames++
	w.bytes += int64(len(frame))
	return nil
}

// NumFrames returns the number of frames written so far.
func (w *StreamWriter) NumFrames() int64 { return w.frames }

// NumBytes returns the number of payload bytes written so far.
func (w *StreamWriter) NumBytes() int64 { return w.bytes }

// Close flushes and closes the stream.
func (w *StreamWriter) Close() error {
	err := w.sw.Close()
	if cerr := w.base.Close(); err == nil {
		err = cerr
	}
	return err
}

// StreamReader iterates the frame records of a stream.
type StreamReader struct {
	base io.Closer
	sr   *snappy.Reader
}

// OpenStream opens the stream file at path for reading.
func OpenStream(path string) (*StreamReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open stream file %q", path)
	}
	return &StreamReader{
		base: f,
		sr:   snappy.NewReader(f),
	}, nil
}

// NewStreamReader returns a StreamReader that reads records from r.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		sr: snappy.NewReader(r),
	}
}

// ReadFrame reads the next frame record.
//
// ReadFrame returns io.EOF when the stream is cleanly exhausted.
func (r *StreamReader) ReadFrame() (uuid int32, frame []byte, err error) {
	var hdr frameHeader
	if err = struc.Unpack(r.sr, &hdr); err != nil {
		if errors.Cause(err) == io.EOF {
			return 0, nil, io.EOF
		}
		return 0, nil, errors.Wrap(err, "failed to read frame header")
	}

	if hdr.Size < 0 || hdr.Size > maxFrameSize {
		return 0, nil, errors.Errorf("invalid frame size %d", hdr.Size)
	}

	frame = make([]byte, hdr.Size)
	if err = dataio.ReadFull(r.sr, frame); err != nil {
		return 0, nil, errors.Wrap(err, "failed to read frame payload")
	}
	return hdr.UUID, frame, nil
}

// Close closes the stream.
func (r *StreamReader) Close() error {
	if r.base == nil {
		return nil
	}
	return r.base.Close()
}
