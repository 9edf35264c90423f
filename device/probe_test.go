// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package device

import (
	"time"

	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Probe", func() {
	var (
		port *testPort
		opts *Options
	)
	BeforeEach(func() {
		port = &testPort{reply: []byte("2,8,0,0,0,0,0,0,0,0,0,5\n")}
		opts = &Options{
			OpenPort:       func(string) (Port, error) { return port, nil },
			HandshakeDelay: time.Millisecond,
		}
	})

	It("handshakes and assembles a device", func() {
		d, err := Probe(PortInfo{Name: "fake0"}, opts)
		Expect(err).ToNot(HaveOccurred())

		Expect(port.writtenBytes()).To(Equal([]byte{'?'}))

		Expect(d.UUID()).To(Equal(5))
		Expect(d.PanelOne()).To(Equal(10))
		Expect(d.PanelTwo()).To(Equal(11))
		Expect(d.Header().StripLength).To(Equal(2))
		Expect(d.Header().LedHeight).To(Equal(8))
		Expect(d.Header().Layout).To(BeTrue())
		Expect(d.FrameSize()).To(Equal(51))
	})

	It("fails when the port cannot be opened", func() {
		opts.OpenPort = func(string) (Port, error) { return nil, errors.New("busy") }

		_, err := Probe(PortInfo{Name: "fake0"}, opts)
		Expect(err).To(HaveOccurred())
	})

	It("fails and closes the port when the query cannot be sent", func() {
		port.writeErr = errors.New("unplugged")

		_, err := Probe(PortInfo{Name: "fake0"}, opts)
		Expect(err).To(HaveOccurred())
		Expect(port.isClosed()).To(BeTrue())
	})

	It("fails and closes the port on a malformed reply", func() {
		port.reply = []byte("not,a,valid,reply\n")

		_, err := Probe(PortInfo{Name: "fake0"}, opts)
		Expect(err).To(HaveOccurred())
		Expect(port.isClosed()).To(BeTrue())
	})

	It("fails and closes the port when the controller stays silent", func() {
		port.reply = nil

		_, err := Probe(PortInfo{Name: "fake0"}, opts)
		Expect(err).To(HaveOccurred())
		Expect(port.isClosed()).To(BeTrue())
	})
})
