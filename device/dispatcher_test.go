// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package device

import (
	"sync"

	"github.com/danjacques/gopanelpixels/pixel"

	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

type testFrameSink struct {
	mu     sync.Mutex
	frames map[int][]byte
}

func (s *testFrameSink) RecordFrame(uuid int, frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frames == nil {
		s.frames = make(map[int][]byte)
	}
	s.frames[uuid] = append([]byte(nil), frame...)
}

var _ = Describe("Dispatcher", func() {
	gt := pixel.MakeGammaTable(1.0)

	var (
		disp     *Dispatcher
		d0, d1   *Device
		p0, p1   *testPort
		fillRed  pixel.Buffer
		fillBlue pixel.Buffer
	)
	BeforeEach(func() {
		disp = &Dispatcher{}

		d0, p0 = makeTestDevice(0, 2, 8)
		d1, p1 = makeTestDevice(1, 2, 8)

		fillRed.Reset(d0.Header().PanelPixels())
		fillRed.Fill(pixel.P{Red: 255})
		fillBlue.Reset(d1.Header().PanelPixels())
		fillBlue.Fill(pixel.P{Blue: 255})

		Expect(d0.SetPanelData(0, &fillRed)).To(Succeed())
		Expect(d0.SetPanelData(1, &fillRed)).To(Succeed())
		Expect(d1.SetPanelData(2, &fillBlue)).To(Succeed())
		Expect(d1.SetPanelData(3, &fillBlue)).To(Succeed())
	})

	It("transmits one full frame per device", func() {
		disp.Commit([]*Device{d0, d1}, &gt)

		for _, p := range []*testPort{p0, p1} {
			frame := p.writtenBytes()
			Expect(frame).To(HaveLen(51))
			Expect(frame[:3]).To(Equal([]byte{'*', 0xA8, 0x61}))
		}
	})

	It("keeps committing to healthy devices when one fails", func() {
		p0.writeErr = errors.New("cable pulled")

		disp.Commit([]*Device{d0, d1}, &gt)

		Expect(p0.writtenBytes()).To(BeEmpty())
		Expect(p1.writtenBytes()).To(HaveLen(51))
	})

	It("records transmitted frames in the attached sink", func() {
		sink := &testFrameSink{}
		disp.Recorder = sink

		disp.Commit([]*Device{d0, d1}, &gt)

		Expect(sink.frames).To(HaveLen(2))
		Expect(sink.frames[0]).To(Equal(p0.writtenBytes()))
		Expect(sink.frames[1]).To(Equal(p1.writtenBytes()))
	})

	It("does not record frames for failed devices", func() {
		sink := &testFrameSink{}
		disp.Recorder = sink
		p0.writeErr = errors.New("cable pulled")

		disp.Commit([]*Device{d0, d1}, &gt)

		Expect(sink.frames).To(HaveLen(1))
		Expect(sink.frames).To(HaveKey(1))
	})

	It("handles an empty device list", func() {
		disp.Commit(nil, &gt)
	})
})
