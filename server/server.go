// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package server exposes initialized LED displays to remote clients over a
// TCP protocol.
//
// The protocol is a length-free stream of typed commands on a single
// connection: each frame is a big-endian int32 command ID followed by the
// command-specific payload. The server is iterative: it handles one
// synchronous client at a time.
package server

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/danjacques/gopanelpixels/led"
	"github.com/danjacques/gopanelpixels/pixel"
	"github.com/danjacques/gopanelpixels/support/logging"

	"github.com/pkg/errors"
)

// DefaultPort is the TCP port the server listens on when none is configured.
const DefaultPort = 7845

// Server is the LED protocol server.
//
// The Server owns one zero-filled framebuffer per panel, allocated when the
// listener is bound and registered as both the network upload sink and the
// frame encoder source. The buffers live for the Server's lifetime.
//
// Server's exported fields must not be changed after Listen or Start is
// called.
type Server struct {
	// Displays is the initialized display set to serve. It must not be nil.
	Displays *led.Displays

	// Port is the TCP port to listen on. If zero, DefaultPort is used.
	Port int

	// Logger, if not nil, is the logger to use to log events.
	Logger logging.L

	// Listener, if not nil, is used instead of binding a listener on Port.
	// The Server takes ownership of it.
	Listener net.Listener

	logger logging.L

	ln      net.Listener
	conn    net.Conn
	buffers []*pixel.Buffer
}

// Listen binds the server's IPv4 listener and allocates the per-panel
// framebuffers.
//
// Listen is called implicitly by the first Start.
func (s *Server) Listen() error {
	if s.ln != nil {
		return errors.New("already listening")
	}
	s.logger = logging.Must(s.Logger)

	if s.Listener != nil {
		s.ln = s.Listener
	} else {
		port := s.Port
		if port == 0 {
			port = DefaultPort
		}

		ln, err := net.Listen("tcp4", fmt.Sprintf(":%d", port))
		if err != nil {
			return errors.Wrapf(err, "unable to listen on port %d", port)
		}
		s.ln = ln
	}

	s.bindDisplayBuffers()
	return nil
}

// Addr returns the listener's address, or nil if the server is not
// listening.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// bindDisplayBuffers allocates a zero-filled framebuffer for every panel and
// binds it, so that uploads land in server-owned memory and unwritten panels
// render black.
func (s *Server) bindDisplayBuffers() {
	ids := s.Displays.AvailableDisplayNumbers()

	s.buffers = make([]*pixel.Buffer, 0, len(ids))
	for _, id := range ids {
		buf := &pixel.Buffer{}
		buf.Reset(s.Displays.Size(id))

		if err := s.Displays.SetData(id, buf); err != nil {
			// Unreachable while the display set is stable; ids came from it.
			s.logger.Errorf("Unable to bind framebuffer for panel %d: %s", id, err)
			continue
		}
		s.buffers = append(s.buffers, buf)
	}
}

// Start accepts a single client and serves its commands until it
// disconnects or errors, then closes the connection.
//
// Start blocks for the duration of the client session.
func (s *Server) Start() error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	s.logger.Infof("Started LED server on %s, waiting for connection.", s.ln.Addr())

	conn, err := s.ln.Accept()
	if err != nil {
		return errors.Wrap(err, "unable to accept client connection")
	}
	s.conn = conn
	connectionsTotal.Inc()

	s.logger.Infof("Client connection established on: %s", time.Now().Format(time.ANSIC))
	s.handleClientCommands(conn)

	err = conn.Close()
	s.conn = nil
	return err
}

// Restart closes the current client connection, if one is open, and accepts
// a new client.
func (s *Server) Restart() error {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	return s.Start()
}

// Close shuts down the server, closing the active client connection and the
// listener.
func (s *Server) Close() error {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}

	if s.ln == nil {
		return nil
	}
	err := s.ln.Close()
	s.ln = nil
	return err
}

// handleClientCommands runs the command loop for a single client session.
//
// The loop ends on EOF (clean disconnect), on a connection error, or when a
// command fails.
func (s *Server) handleClientCommands(conn net.Conn) {
	session := &Session{
		conn:     conn,
		displays: s.Displays,
		logger:   s.logger,
	}

	for {
		id, err := readInt32(conn)
		switch {
		case err == io.EOF:
			s.logger.Infof("Client disconnected.")
			return
		case err != nil:
			s.logger.Errorf("Error reading command: %s; closing connection.", err)
			return
		}

		cmd := commandByID(CommandID(id))
		if cmd == nil {
			s.logger.Warnf("Unknown led server command: %d", id)
			continue
		}

		commandsTotal.WithLabelValues(cmd.Name()).Inc()
		if err := cmd.Execute(session); err != nil {
			commandErrors.WithLabelValues(cmd.Name()).Inc()
			s.logger.Errorf("Unable to execute led action %s: %s", cmd.Name(), err)
			return
		}
	}
}
