// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package device

import (
	"time"

	"github.com/danjacques/gopanelpixels/protocol"
	"github.com/danjacques/gopanelpixels/support/logging"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const (
	// handshakeBaudRate is the baud rate used to talk to the controllers.
	handshakeBaudRate = 9600

	// readTimeout bounds the handshake reply read.
	readTimeout = time.Second

	// defaultHandshakeDelay is how long the firmware needs between receiving
	// the query and producing its reply.
	defaultHandshakeDelay = time.Second
)

// Options configures device discovery.
//
// The zero value enumerates and opens ports through the host serial layer.
// The function fields exist so tests (and alternative transports) can inject
// their own implementations.
type Options struct {
	// Logger, if not nil, is the logger to use to log events.
	Logger logging.L

	// OpenPort, if not nil, opens the named serial port configured for
	// handshake (9600 8-N-1, 1s read timeout).
	OpenPort func(name string) (Port, error)

	// ListPorts, if not nil, enumerates candidate serial ports.
	ListPorts func() ([]PortInfo, error)

	// HandshakeDelay, if >0, overrides the pause between transmitting the
	// handshake query and reading the reply.
	HandshakeDelay time.Duration
}

func (o *Options) logger() logging.L { return logging.Must(o.Logger) }

func (o *Options) openPort(name string) (Port, error) {
	if o.OpenPort != nil {
		return o.OpenPort(name)
	}
	return openSerialPort(name)
}

func (o *Options) listPorts() ([]PortInfo, error) {
	if o.ListPorts != nil {
		return o.ListPorts()
	}
	return listSerialPorts()
}

func (o *Options) handshakeDelay() time.Duration {
	if o.HandshakeDelay > 0 {
		return o.HandshakeDelay
	}
	return defaultHandshakeDelay
}

func openSerialPort(name string) (Port, error) {
	mode := &serial.Mode{
		BaudRate: handshakeBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

func listSerialPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	infos := make([]PortInfo, 0, len(details))
	for _, d := range details {
		infos = append(infos, PortInfo{
			Name:        d.Name,
			Description: d.Product,
		})
	}
	return infos, nil
}

// Probe opens the identified port, handshakes with the controller behind it,
// and returns an initialized Device.
//
// Probe returns an error if the port cannot be opened, the query cannot be
// transmitted, or the reply cannot be parsed. The port is closed on every
// error path.
func Probe(info PortInfo, opts *Options) (*Device, error) {
	logger := opts.logger()

	conn, err := opts.openPort(info.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open connection to port %s", &info)
	}

	if _, err := conn.Write([]byte{protocol.HandshakeQuery}); err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "unable to send interface query to port %s", &info)
	}

	// The firmware needs this delay before it will reply.
	time.Sleep(opts.handshakeDelay())

	reply := make([]byte, protocol.HandshakeReplySize)
	n, err := conn.Read(reply)
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "unable to read interface reply from port %s", &info)
	}

	header, err := protocol.ParseDeviceHeader(reply[:n])
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "invalid interface reply from port %s", &info)
	}

	if !header.ValidGeometry() {
		logger.Warnf("Display height is not a multiple of 8 for device on port %s (height %d).",
			&info, header.LedHeight)
	}

	d := New(conn, info, header)
	d.monitoring.Probed(d)
	return d, nil
}
